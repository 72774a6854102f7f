// Package plaintext provides the fallback Normaliser. It accepts any bytes,
// detects their character encoding and always produces UTF-8 text.
package plaintext

import (
	"bytes"
	"context"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driven"
	"github.com/custodia-labs/archon-cli/internal/normalisers/docmeta"
)

// MetaEncoding records the encoding the content was decoded from.
const MetaEncoding = "encoding"

// minConfidence is the chardet score below which a guess is ignored.
const minConfidence = 50

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"text/plain",
		"text/x-go",
		"text/x-python",
		"text/x-rust",
		"text/x-java",
		"text/x-c",
		"text/x-c++",
		"text/x-ruby",
		"text/x-shellscript",
		"text/x-sql",
		"text/csv",
		"text/yaml",
		"text/toml",
		"text/javascript",
		"text/typescript",
		"text/css",
		"application/json",
		"application/xml",
		"application/octet-stream",
	}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback normaliser
}

// Normalise decodes raw bytes into a text document. Any non-nil input succeeds.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	text, enc := Decode(raw.Content)
	text = strings.ReplaceAll(text, "\r\n", "\n")

	res := docmeta.Result(raw, "text", titleFor(raw), text)
	res.Document.Metadata[MetaEncoding] = enc
	return res, nil
}

// titleFor prefers a title supplied in raw metadata over the file name.
func titleFor(raw *domain.RawDocument) string {
	if title, ok := raw.Metadata["title"].(string); ok && title != "" {
		return title
	}
	return docmeta.TitleFromURI(raw.URI)
}

// Decode converts b to UTF-8 and names the encoding it was read as.
// Byte order marks win, then valid UTF-8, then the chardet guess, then
// windows-1252 and ISO-8859-1. Invalid sequences are replaced as a last resort.
func Decode(b []byte) (string, string) {
	switch {
	case bytes.HasPrefix(b, []byte{0xEF, 0xBB, 0xBF}):
		if rest := b[3:]; utf8.Valid(rest) {
			return string(rest), "utf-8"
		}
	case bytes.HasPrefix(b, []byte{0xFF, 0xFE}):
		if s, ok := decodeWith(unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM), b); ok {
			return s, "utf-16le"
		}
	case bytes.HasPrefix(b, []byte{0xFE, 0xFF}):
		if s, ok := decodeWith(unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM), b); ok {
			return s, "utf-16be"
		}
	}

	if utf8.Valid(b) {
		return string(b), "utf-8"
	}

	if name, enc := detect(b); enc != nil {
		if s, ok := decodeWith(enc, b); ok {
			return s, name
		}
	}

	if !hasUndefinedWindows1252(b) {
		if s, ok := decodeWith(charmap.Windows1252, b); ok {
			return s, "windows-1252"
		}
	}
	if s, ok := decodeWith(charmap.ISO8859_1, b); ok {
		return s, "iso-8859-1"
	}

	return strings.ToValidUTF8(string(b), "\uFFFD"), "utf-8"
}

// detect asks chardet for the most likely charset and resolves it to a decoder.
func detect(b []byte) (string, encoding.Encoding) {
	res, err := chardet.NewTextDetector().DetectBest(b)
	if err != nil || res == nil || res.Confidence < minConfidence {
		return "", nil
	}
	enc, err := htmlindex.Get(res.Charset)
	if err != nil {
		return "", nil
	}
	name, err := htmlindex.Name(enc)
	if err != nil {
		name = strings.ToLower(res.Charset)
	}
	return name, enc
}

func decodeWith(enc encoding.Encoding, b []byte) (string, bool) {
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil || !utf8.Valid(out) {
		return "", false
	}
	return string(out), true
}

// hasUndefinedWindows1252 reports bytes with no character in windows-1252.
func hasUndefinedWindows1252(b []byte) bool {
	for _, c := range b {
		switch c {
		case 0x81, 0x8D, 0x8F, 0x90, 0x9D:
			return true
		}
	}
	return false
}
