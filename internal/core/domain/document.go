package domain

import "time"

// Document is the plain text extracted from one input file, ready to be
// split into chunks.
type Document struct {
	ID  string
	URI string

	// Title comes from the file's own metadata or heading when it has one,
	// otherwise from the file name.
	Title string

	// Format names the normaliser that produced Content, e.g. "docx" or "text".
	Format string

	Content string

	// Metadata carries the raw document's metadata plus "mime_type" and "format".
	Metadata map[string]any

	CreatedAt time.Time
}
