package driven

import "github.com/custodia-labs/archon-cli/internal/core/domain"

// ErrorReporter is the sink components report classified failures to.
type ErrorReporter interface {
	// Report records err and returns it, enriched with an ID, kind and suggestions.
	Report(stage string, err error, context map[string]any) *domain.Error
}
