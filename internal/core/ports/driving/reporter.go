package driving

import "github.com/custodia-labs/archon-cli/internal/core/domain"

// ErrorSummary aggregates recorded failures.
type ErrorSummary struct {
	Total      int
	ByKind     map[domain.ErrorKind]int
	BySeverity map[domain.Severity]int
	Recent     []*domain.Error
}

// ErrorHistoryService exposes recorded failures for status output.
type ErrorHistoryService interface {
	// Summary aggregates recorded failures.
	Summary() ErrorSummary
}
