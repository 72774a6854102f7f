// Package docx provides a Normaliser for Word documents.
// Headings become markdown headings and tables become pipe-delimited rows
// so the segmenter and classifier see the same structure as in markdown input.
package docx

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driven"
	"github.com/custodia-labs/archon-cli/internal/normalisers/docmeta"
	"github.com/custodia-labs/archon-cli/internal/normalisers/ooxml"
)

// MIMEType is the DOCX media type.
const MIMEType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
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

// Normalise converts a DOCX document to a normalised document.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	reader, err := ooxml.Open(raw.Content)
	if err != nil {
		return nil, err
	}

	body, err := ooxml.ReadPart(reader, "word/document.xml")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	content, err := parseDocumentXML(body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse word/document.xml: %v", domain.ErrInvalidInput, err)
	}

	title := ooxml.CoreTitle(reader)
	if title == "" {
		title = docmeta.TitleFromURI(raw.URI)
	}

	return docmeta.Result(raw, "docx", title, content), nil
}

// paragraphState collects one w:p element.
type paragraphState struct {
	text    strings.Builder
	heading int
	list    bool
}

// parseDocumentXML walks word/document.xml in document order.
func parseDocumentXML(data []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		out       strings.Builder
		para      *paragraphState
		inText    bool
		inRun     bool
		tableRows [][]string
		row       []string
		cell      []string
		inCell    bool
		depth     int
	)

	emit := func(line string) {
		out.WriteString(line)
		out.WriteString("\n")
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				depth++
				if depth == 1 {
					tableRows = nil
				}
			case "tr":
				row = nil
			case "tc":
				inCell = true
				cell = nil
			case "p":
				para = &paragraphState{}
			case "pStyle":
				if para != nil {
					para.heading = headingLevel(attr(t, "val"))
				}
			case "numPr":
				if para != nil {
					para.list = true
				}
			case "r":
				inRun = true
			case "t":
				inText = true
			case "tab":
				if para != nil && inRun {
					para.text.WriteString("\t")
				}
			case "br", "cr":
				if para != nil && inRun {
					para.text.WriteString("\n")
				}
			}

		case xml.CharData:
			if inText && para != nil {
				para.text.Write(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "r":
				inRun = false
			case "p":
				if para == nil {
					continue
				}
				text := strings.TrimSpace(para.text.String())
				switch {
				case text == "":
				case inCell:
					cell = append(cell, text)
				case para.heading > 0:
					emit("")
					emit(strings.Repeat("#", para.heading) + " " + text)
				case para.list:
					emit("- " + text)
				default:
					emit(text)
				}
				para = nil
			case "tc":
				row = append(row, strings.Join(cell, " "))
				inCell = false
			case "tr":
				if depth == 1 {
					tableRows = append(tableRows, row)
				}
			case "tbl":
				depth--
				if depth == 0 {
					emit("")
					emit("[TABLE]")
					for _, r := range tableRows {
						emit("| " + strings.Join(r, " | ") + " |")
					}
					emit("")
				}
			}
		}
	}

	return docmeta.CollapseBlankLines(out.String()), nil
}

// headingLevel maps paragraph styles such as "Heading2" or "Title" to a level.
func headingLevel(style string) int {
	s := strings.ToLower(strings.ReplaceAll(style, " ", ""))
	if s == "title" {
		return 1
	}
	if rest, ok := strings.CutPrefix(s, "heading"); ok {
		if n, err := strconv.Atoi(rest); err == nil && n >= 1 && n <= 6 {
			return n
		}
	}
	return 0
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
