// Package normalisers turns raw input files into text documents.
//
// Each subpackage handles one family of formats. The Registry picks the
// highest-priority normaliser for a document's MIME type and falls back to
// the plaintext decoder whenever extraction fails, so ingestion never stops
// on an unreadable file.
package normalisers
