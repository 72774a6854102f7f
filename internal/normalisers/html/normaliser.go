// Package html provides a Normaliser for HTML documents.
// Markup is rendered as markdown-like text: headings keep their level as
// leading hashes, list items become dashes, tables become pipe rows and
// preformatted blocks become fenced code.
package html

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driven"
	"github.com/custodia-labs/archon-cli/internal/normalisers/docmeta"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise converts an HTML document to a normalised document.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	root, err := parse(raw.Content, raw.MIMEType)
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %v", domain.ErrInvalidInput, err)
	}

	title := extractTitle(root)
	if title == "" {
		title = docmeta.TitleFromURI(raw.URI)
	}

	return docmeta.Result(raw, "html", title, render(root)), nil
}

// parse decodes content using the charset declared in the document,
// falling back to the raw bytes when no decoder applies.
func parse(content []byte, contentType string) (*html.Node, error) {
	var r io.Reader = bytes.NewReader(content)
	if decoded, err := charset.NewReader(r, contentType); err == nil {
		r = decoded
	} else {
		r = bytes.NewReader(content)
	}
	return html.Parse(r)
}

// skipped elements never contribute text.
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Head:     true,
	atom.Noscript: true,
	atom.Svg:      true,
	atom.Template: true,
	atom.Iframe:   true,
	atom.Img:      true,
}

// blocks start and end on their own line.
var blocks = map[atom.Atom]bool{
	atom.P:          true,
	atom.Div:        true,
	atom.Section:    true,
	atom.Article:    true,
	atom.Header:     true,
	atom.Footer:     true,
	atom.Main:       true,
	atom.Nav:        true,
	atom.Aside:      true,
	atom.Ul:         true,
	atom.Ol:         true,
	atom.Dl:         true,
	atom.Dt:         true,
	atom.Dd:         true,
	atom.Figure:     true,
	atom.Figcaption: true,
	atom.Form:       true,
	atom.Address:    true,
	atom.Body:       true,
}

var headingLevels = map[atom.Atom]int{
	atom.H1: 1, atom.H2: 2, atom.H3: 3, atom.H4: 4, atom.H5: 5, atom.H6: 6,
}

// extractTitle returns the collapsed text of the first <title> element.
func extractTitle(root *html.Node) string {
	var title string
	var find func(*html.Node) bool
	find = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Title {
			title = collapse(textContent(n))
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if find(c) {
				return true
			}
		}
		return false
	}
	find(root)
	return strings.TrimSpace(title)
}

// renderer accumulates output lines.
type renderer struct {
	lines  []string
	cur    strings.Builder
	prefix string

	listDepth  int
	quoteDepth int
}

func render(root *html.Node) string {
	r := &renderer{}
	r.walk(root)
	r.flush()
	return docmeta.CollapseBlankLines(strings.Join(r.lines, "\n"))
}

func (r *renderer) flush() {
	line := strings.TrimSpace(r.cur.String())
	r.cur.Reset()
	if line != "" {
		r.appendLine(r.prefix + line)
	}
	r.prefix = ""
}

func (r *renderer) appendLine(line string) {
	if r.quoteDepth > 0 {
		line = strings.Repeat("> ", r.quoteDepth) + line
	}
	r.lines = append(r.lines, line)
}

func (r *renderer) blank() {
	r.flush()
	if len(r.lines) > 0 && r.lines[len(r.lines)-1] != "" {
		r.lines = append(r.lines, "")
	}
}

func (r *renderer) text(s string) {
	c := collapse(s)
	if c == "" {
		if s != "" {
			c = " "
		} else {
			return
		}
	}
	if r.cur.Len() == 0 || strings.HasSuffix(r.cur.String(), " ") {
		c = strings.TrimLeft(c, " ")
	}
	r.cur.WriteString(c)
}

func (r *renderer) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		r.text(n.Data)
		return
	case html.CommentNode, html.DoctypeNode:
		return
	case html.ElementNode:
		if skipped[n.DataAtom] {
			return
		}
		if r.element(n) {
			return
		}
	}

	r.children(n)
}

func (r *renderer) children(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		r.walk(c)
	}
}

// element renders elements with special layout and reports whether it did.
func (r *renderer) element(n *html.Node) bool {
	if level, ok := headingLevels[n.DataAtom]; ok {
		r.blank()
		r.prefix = strings.Repeat("#", level) + " "
		r.children(n)
		r.flush()
		return true
	}

	switch n.DataAtom {
	case atom.Br:
		r.flush()
	case atom.Hr:
		r.blank()
		r.appendLine("---")
		r.blank()
	case atom.Li:
		r.flush()
		r.prefix = strings.Repeat("  ", max(r.listDepth-1, 0)) + "- "
		r.children(n)
		r.flush()
	case atom.Ul, atom.Ol:
		r.flush()
		r.listDepth++
		r.children(n)
		r.listDepth--
		r.flush()
	case atom.Blockquote:
		r.flush()
		r.quoteDepth++
		r.children(n)
		r.flush()
		r.quoteDepth--
	case atom.Pre:
		r.blank()
		r.appendLine("```")
		for _, line := range strings.Split(strings.Trim(textContent(n), "\n"), "\n") {
			r.appendLine(line)
		}
		r.appendLine("```")
		r.blank()
	case atom.Table:
		r.blank()
		for _, row := range tableRows(n) {
			r.appendLine("| " + strings.Join(row, " | ") + " |")
		}
		r.blank()
	default:
		if !blocks[n.DataAtom] {
			return false
		}
		r.flush()
		r.children(n)
		r.flush()
	}
	return true
}

// tableRows collects the cell text of every row in t, excluding nested tables.
func tableRows(t *html.Node) [][]string {
	var rows [][]string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Table:
			case atom.Tr:
				var cells []string
				for cell := c.FirstChild; cell != nil; cell = cell.NextSibling {
					if cell.Type == html.ElementNode && (cell.DataAtom == atom.Td || cell.DataAtom == atom.Th) {
						cells = append(cells, strings.TrimSpace(collapse(textContent(cell))))
					}
				}
				if len(cells) > 0 {
					rows = append(rows, cells)
				}
			default:
				walk(c)
			}
		}
	}
	walk(t)
	return rows
}

// textContent returns the raw text below n, ignoring skipped elements.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
			return
		case n.Type == html.ElementNode && skipped[n.DataAtom]:
			return
		case n.Type == html.ElementNode && n.DataAtom == atom.Br:
			b.WriteString("\n")
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// collapse folds whitespace runs into single spaces, keeping one space at
// either edge when the input had whitespace there.
func collapse(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	out := strings.Join(fields, " ")
	if strings.TrimLeft(s, " \t\r\n\f") != s {
		out = " " + out
	}
	if strings.TrimRight(s, " \t\r\n\f") != s {
		out += " "
	}
	return out
}
