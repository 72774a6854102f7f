// Package xlsx provides a Normaliser for Excel workbooks.
package xlsx

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driven"
	"github.com/custodia-labs/archon-cli/internal/normalisers/docmeta"
	"github.com/custodia-labs/archon-cli/internal/normalisers/ooxml"
)

// MIMEType is the XLSX media type.
const MIMEType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles XLSX workbooks. Each sheet becomes a
// "--- Sheet: name ---" block with one tab-separated line per row.
type Normaliser struct{}

// New creates a new XLSX normaliser.
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

// Normalise converts a workbook to a normalised document.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	reader, err := ooxml.Open(raw.Content)
	if err != nil {
		return nil, err
	}

	sheets, err := workbookSheets(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	shared, err := sharedStrings(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	var out strings.Builder
	for i, sheet := range sheets {
		data, err := ooxml.ReadPart(reader, sheet.part)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		rows, err := sheetRows(data, shared)
		if err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrInvalidInput, sheet.part, err)
		}

		if i > 0 {
			out.WriteString("\n")
		}
		fmt.Fprintf(&out, "--- Sheet: %s ---\n", sheet.name)
		for _, row := range rows {
			out.WriteString(strings.Join(row, "\t"))
			out.WriteString("\n")
		}
	}

	title := ooxml.CoreTitle(reader)
	if title == "" {
		title = docmeta.TitleFromURI(raw.URI)
	}

	res := docmeta.Result(raw, "xlsx", title, strings.TrimSpace(out.String()))
	res.Document.Metadata["sheet_count"] = len(sheets)
	return res, nil
}

type sheet struct {
	name string
	part string
}

type workbookXML struct {
	Sheets []struct {
		Name string `xml:"name,attr"`
		RID  string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sheets>sheet"`
}

type relationshipsXML struct {
	Relationships []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// workbookSheets resolves sheet names to worksheet parts in workbook order.
func workbookSheets(r *zip.Reader) ([]sheet, error) {
	data, err := ooxml.ReadPart(r, "xl/workbook.xml")
	if err != nil {
		return nil, err
	}
	var wb workbookXML
	if err := xml.Unmarshal(data, &wb); err != nil {
		return nil, fmt.Errorf("parse workbook: %w", err)
	}

	targets := make(map[string]string)
	if data, err := ooxml.ReadPart(r, "xl/_rels/workbook.xml.rels"); err == nil {
		var rels relationshipsXML
		if err := xml.Unmarshal(data, &rels); err == nil {
			for _, rel := range rels.Relationships {
				targets[rel.ID] = rel.Target
			}
		}
	}

	sheets := make([]sheet, 0, len(wb.Sheets))
	for i, s := range wb.Sheets {
		target, ok := targets[s.RID]
		if !ok {
			target = fmt.Sprintf("worksheets/sheet%d.xml", i+1)
		}
		part := strings.TrimPrefix(target, "/")
		if !strings.HasPrefix(part, "xl/") {
			part = path.Join("xl", part)
		}
		sheets = append(sheets, sheet{name: s.Name, part: part})
	}
	return sheets, nil
}

type sharedStringsXML struct {
	Items []struct {
		Text string `xml:"t"`
		Runs []struct {
			Text string `xml:"t"`
		} `xml:"r"`
	} `xml:"si"`
}

// sharedStrings returns the workbook's shared string table; it is optional.
func sharedStrings(r *zip.Reader) ([]string, error) {
	data, err := ooxml.ReadPart(r, "xl/sharedStrings.xml")
	if err != nil {
		return nil, nil
	}
	var sst sharedStringsXML
	if err := xml.Unmarshal(data, &sst); err != nil {
		return nil, fmt.Errorf("parse shared strings: %w", err)
	}

	out := make([]string, len(sst.Items))
	for i, item := range sst.Items {
		if len(item.Runs) == 0 {
			out[i] = item.Text
			continue
		}
		var b strings.Builder
		for _, run := range item.Runs {
			b.WriteString(run.Text)
		}
		out[i] = b.String()
	}
	return out, nil
}

type worksheetXML struct {
	Rows []struct {
		Cells []struct {
			Ref    string `xml:"r,attr"`
			Type   string `xml:"t,attr"`
			Value  string `xml:"v"`
			Inline struct {
				Text string `xml:"t"`
			} `xml:"is"`
		} `xml:"c"`
	} `xml:"sheetData>row"`
}

// sheetRows returns cell text per row, padding gaps left by empty cells.
func sheetRows(data []byte, shared []string) ([][]string, error) {
	var ws worksheetXML
	if err := xml.Unmarshal(data, &ws); err != nil {
		return nil, err
	}

	var rows [][]string
	for _, row := range ws.Rows {
		var cells []string
		for _, c := range row.Cells {
			if col := columnIndex(c.Ref); col > len(cells) {
				cells = append(cells, make([]string, col-len(cells))...)
			}

			value := c.Value
			switch c.Type {
			case "s":
				if idx, err := strconv.Atoi(c.Value); err == nil && idx >= 0 && idx < len(shared) {
					value = shared[idx]
				}
			case "inlineStr":
				value = c.Inline.Text
			case "b":
				if value == "1" {
					value = "TRUE"
				} else {
					value = "FALSE"
				}
			}
			cells = append(cells, strings.TrimSpace(value))
		}

		if strings.TrimSpace(strings.Join(cells, "")) != "" {
			rows = append(rows, cells)
		}
	}
	return rows, nil
}

// columnIndex converts the letters of a cell reference such as "C7" to a
// zero-based column index. It returns -1 for a missing reference.
func columnIndex(ref string) int {
	col := 0
	n := 0
	for _, r := range ref {
		if r < 'A' || r > 'Z' {
			break
		}
		col = col*26 + int(r-'A'+1)
		n++
	}
	if n == 0 {
		return -1
	}
	return col - 1
}
