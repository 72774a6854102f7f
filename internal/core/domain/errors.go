package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
)

// Domain errors represent pipeline failures.
// Adapters wrap them with %w so callers can test with errors.Is.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown document format or instruction type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates no text-generation provider is configured or reachable.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrAllProvidersFailed indicates every configured provider failed after retries.
	ErrAllProvidersFailed = errors.New("all generation providers failed")

	// ErrInvalidResponse indicates a generation response did not match the declared schema.
	ErrInvalidResponse = errors.New("invalid generation response")

	// ErrPlanInvalid indicates a build plan failed validation.
	ErrPlanInvalid = errors.New("invalid build plan")

	// ErrCommandFailed indicates a subprocess exited non-zero.
	ErrCommandFailed = errors.New("command failed")

	// ErrCommandTimeout indicates a subprocess exceeded its wall-clock limit.
	ErrCommandTimeout = errors.New("command timed out")

	// ErrCommandsDisabled indicates shell commands are disabled by configuration.
	ErrCommandsDisabled = errors.New("shell commands disabled")

	// ErrPathEscapesRoot indicates an instruction target resolves outside the project root.
	ErrPathEscapesRoot = errors.New("path escapes project root")

	// ErrInvalidConfig indicates malformed settings.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ErrorKind classifies failures for reporting.
type ErrorKind string

// Error kinds.
const (
	KindValidation    ErrorKind = "validation"
	KindNetwork       ErrorKind = "network"
	KindAIProvider    ErrorKind = "ai_provider"
	KindFileIO        ErrorKind = "file_io"
	KindTemplate      ErrorKind = "template"
	KindBuild         ErrorKind = "build"
	KindConfiguration ErrorKind = "configuration"
	KindSystem        ErrorKind = "system"
)

// Severity ranks how much a failure matters to the run.
type Severity string

// Severities, lowest first.
const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Pipeline stages named in user-visible failures.
const (
	StageIngest    = "ingest"
	StageSynthesis = "synthesis"
	StageCompile   = "compile"
	StageExecute   = "execute"
	StageConfig    = "config"
)

// Error is a classified failure carrying a short correlation ID.
type Error struct {
	// ID is a short opaque identifier for correlating logs and output.
	ID string

	// Kind is the failure category.
	Kind ErrorKind

	// Severity ranks the failure.
	Severity Severity

	// Stage is the pipeline stage that failed.
	Stage string

	// Err is the underlying cause.
	Err error

	// Suggestions are short recovery hints.
	Suggestions []string

	// Context holds structured details (instruction, file, provider).
	Context map[string]any
}

// Error formats the failure as "[id] stage: cause".
func (e *Error) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("[%s] %v", e.ID, e.Err)
	}
	return fmt.Sprintf("[%s] %s failed: %v", e.ID, e.Stage, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// ClassifyError infers an ErrorKind from sentinel errors and standard library error types.
func ClassifyError(err error) ErrorKind {
	if err == nil {
		return KindSystem
	}

	var de *Error
	if errors.As(err, &de) && de.Kind != "" {
		return de.Kind
	}

	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrPlanInvalid),
		errors.Is(err, ErrInvalidResponse), errors.Is(err, ErrUnsupportedType):
		return KindValidation
	case errors.Is(err, ErrLLMUnavailable), errors.Is(err, ErrAllProvidersFailed):
		return KindAIProvider
	case errors.Is(err, ErrCommandFailed), errors.Is(err, ErrCommandTimeout),
		errors.Is(err, ErrPathEscapesRoot), errors.Is(err, ErrCommandsDisabled):
		return KindBuild
	case errors.Is(err, ErrInvalidConfig):
		return KindConfiguration
	case errors.Is(err, context.DeadlineExceeded):
		return KindNetwork
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetwork
	}
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return KindFileIO
	}
	if errors.Is(err, os.ErrPermission) || errors.Is(err, os.ErrNotExist) {
		return KindFileIO
	}

	return KindSystem
}

// DefaultSeverity returns the severity normally associated with a kind.
func DefaultSeverity(kind ErrorKind) Severity {
	switch kind {
	case KindValidation, KindTemplate:
		return SeverityMedium
	case KindNetwork, KindAIProvider:
		return SeverityMedium
	case KindFileIO, KindBuild, KindConfiguration:
		return SeverityHigh
	default:
		return SeverityCritical
	}
}

// RecoverySuggestions returns short hints keyed off the failure message.
func RecoverySuggestions(err error) []string {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())

	var suggestions []string
	if strings.Contains(msg, "network") || strings.Contains(msg, "connection") ||
		strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out") {
		suggestions = append(suggestions, "Check network connectivity", "Retry the operation")
	}
	if strings.Contains(msg, "permission") || strings.Contains(msg, "access") {
		suggestions = append(suggestions, "Check file permissions", "Run with appropriate privileges")
	}
	if strings.Contains(msg, "api") || strings.Contains(msg, "key") {
		suggestions = append(suggestions, "Verify API key configuration", "Check API key validity")
	}
	if len(suggestions) == 0 {
		suggestions = append(suggestions, "Check logs for more details")
	}
	return suggestions
}
