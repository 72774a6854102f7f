// Package pptx provides a Normaliser for PowerPoint presentations.
package pptx

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driven"
	"github.com/custodia-labs/archon-cli/internal/normalisers/docmeta"
	"github.com/custodia-labs/archon-cli/internal/normalisers/ooxml"
)

// MIMEType is the PPTX media type.
const MIMEType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

const slidePrefix = "ppt/slides/slide"

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles PPTX presentations. Each slide becomes a
// "--- Slide N ---" block holding one line per text paragraph.
type Normaliser struct{}

// New creates a new PPTX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{MIMEType}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise converts a presentation to a normalised document.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	reader, err := ooxml.Open(raw.Content)
	if err != nil {
		return nil, err
	}

	slides := slideParts(ooxml.PartNames(reader, slidePrefix))
	if len(slides) == 0 {
		return nil, fmt.Errorf("%w: presentation has no slides", domain.ErrInvalidInput)
	}

	var out strings.Builder
	for i, slide := range slides {
		data, err := ooxml.ReadPart(reader, slide.name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		paragraphs, err := slideText(data)
		if err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrInvalidInput, slide.name, err)
		}

		if i > 0 {
			out.WriteString("\n")
		}
		fmt.Fprintf(&out, "--- Slide %d ---\n", slide.number)
		for _, p := range paragraphs {
			out.WriteString(p)
			out.WriteString("\n")
		}
	}

	title := ooxml.CoreTitle(reader)
	if title == "" {
		title = docmeta.TitleFromURI(raw.URI)
	}

	res := docmeta.Result(raw, "pptx", title, strings.TrimSpace(out.String()))
	res.Document.Metadata["slide_count"] = len(slides)
	return res, nil
}

type slidePart struct {
	name   string
	number int
}

// slideParts keeps slideN.xml entries and orders them numerically.
func slideParts(names []string) []slidePart {
	var parts []slidePart
	for _, name := range names {
		if path.Dir(name) != "ppt/slides" {
			continue
		}
		base := strings.TrimSuffix(strings.TrimPrefix(name, slidePrefix), ".xml")
		n, err := strconv.Atoi(base)
		if err != nil {
			continue
		}
		parts = append(parts, slidePart{name: name, number: n})
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].number < parts[j].number })
	return parts
}

// slideText returns the non-empty a:p paragraphs of one slide.
func slideText(data []byte) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		paragraphs []string
		current    strings.Builder
		inText     bool
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				current.Reset()
			case "t":
				inText = true
			case "br":
				current.WriteString(" ")
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if text := strings.TrimSpace(current.String()); text != "" {
					paragraphs = append(paragraphs, text)
				}
				current.Reset()
			}
		}
	}

	return paragraphs, nil
}
