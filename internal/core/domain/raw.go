package domain

// RawDocument is an input file as read from disk, before any format is applied.
type RawDocument struct {
	URI string

	// MIMEType selects the normaliser. Parameters such as charset are allowed.
	MIMEType string

	Content []byte

	// Metadata is copied onto the resulting Document.
	Metadata map[string]any
}
