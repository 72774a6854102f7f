// Package ooxml reads the zip containers shared by DOCX, PPTX and XLSX files.
package ooxml

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
)

// ErrPartNotFound indicates the archive lacks a required part.
var ErrPartNotFound = errors.New("ooxml part not found")

// maxPartSize bounds a single decompressed part.
const maxPartSize = 64 << 20

// Open reads content as a zip archive.
func Open(content []byte) (*zip.Reader, error) {
	r, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: not an office archive: %v", domain.ErrInvalidInput, err)
	}
	return r, nil
}

// ReadPart returns the decompressed bytes of the named part.
func ReadPart(r *zip.Reader, name string) ([]byte, error) {
	for _, f := range r.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(io.LimitReader(rc, maxPartSize))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrPartNotFound, name)
}

// PartNames returns the names of parts under prefix, in archive order.
func PartNames(r *zip.Reader, prefix string) []string {
	var names []string
	for _, f := range r.File {
		if strings.HasPrefix(f.Name, prefix) {
			names = append(names, f.Name)
		}
	}
	return names
}

type coreProperties struct {
	Title string `xml:"title"`
}

// CoreTitle returns the title from docProps/core.xml, or "" when absent.
func CoreTitle(r *zip.Reader) string {
	data, err := ReadPart(r, "docProps/core.xml")
	if err != nil {
		return ""
	}
	var core coreProperties
	if err := xml.Unmarshal(data, &core); err != nil {
		return ""
	}
	return strings.TrimSpace(core.Title)
}
