package driven

import (
	"context"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
)

// NormaliserRegistry routes architecture documents to the normaliser for
// their format.
type NormaliserRegistry interface {
	// Normalise tries each normaliser registered for raw's MIME type,
	// highest priority first, and decodes the bytes as plain text when all
	// of them fail. Parameters on the MIME type are ignored.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)

	Register(normaliser Normaliser)

	// SupportedMIMETypes lists every MIME type some normaliser accepts, sorted.
	SupportedMIMETypes() []string
}
