package services

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driven"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driving"
	"github.com/custodia-labs/archon-cli/internal/logger"
)

// Ensure ErrorHistory implements the interfaces.
var (
	_ driven.ErrorReporter        = (*ErrorHistory)(nil)
	_ driving.ErrorHistoryService = (*ErrorHistory)(nil)
)

// DefaultErrorHistoryLimit bounds the number of failures kept in memory.
const DefaultErrorHistoryLimit = 100

// recentErrors is how many failures Summary returns.
const recentErrors = 10

// ErrorHistory records classified failures for one process.
// It is passed to the components that report into it.
type ErrorHistory struct {
	mu      sync.Mutex
	entries []*domain.Error
	limit   int
}

// NewErrorHistory creates a history that keeps at most limit entries.
func NewErrorHistory(limit int) *ErrorHistory {
	if limit <= 0 {
		limit = DefaultErrorHistoryLimit
	}
	return &ErrorHistory{limit: limit}
}

// Report classifies err, assigns it a short ID and records it.
// An error that was already reported is returned unchanged.
func (h *ErrorHistory) Report(stage string, err error, context map[string]any) *domain.Error {
	if err == nil {
		return nil
	}

	var existing *domain.Error
	if errors.As(err, &existing) && existing.ID != "" {
		return existing
	}

	kind := domain.ClassifyError(err)
	reported := &domain.Error{
		ID:          shortID(),
		Kind:        kind,
		Severity:    domain.DefaultSeverity(kind),
		Stage:       stage,
		Err:         err,
		Suggestions: domain.RecoverySuggestions(err),
		Context:     context,
	}

	logger.L().Debug("error reported",
		zap.String("id", reported.ID),
		zap.String("stage", stage),
		zap.String("kind", string(kind)),
		zap.String("severity", string(reported.Severity)),
		zap.Error(err),
	)

	h.mu.Lock()
	h.entries = append(h.entries, reported)
	if over := len(h.entries) - h.limit; over > 0 {
		h.entries = h.entries[over:]
	}
	h.mu.Unlock()

	return reported
}

// Summary aggregates recorded failures, most recent first.
func (h *ErrorHistory) Summary() driving.ErrorSummary {
	h.mu.Lock()
	defer h.mu.Unlock()

	summary := driving.ErrorSummary{
		Total:      len(h.entries),
		ByKind:     make(map[domain.ErrorKind]int),
		BySeverity: make(map[domain.Severity]int),
	}
	for _, e := range h.entries {
		summary.ByKind[e.Kind]++
		summary.BySeverity[e.Severity]++
	}
	for i := len(h.entries) - 1; i >= 0 && len(summary.Recent) < recentErrors; i-- {
		summary.Recent = append(summary.Recent, h.entries[i])
	}
	return summary
}

// shortID returns eight hex characters of a random UUID.
func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
