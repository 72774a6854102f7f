// Package mcp exposes archon over the Model Context Protocol so assistants
// can analyse documents, compile plans and run them.
package mcp

import "errors"

// ErrMissingPipelineService is returned when the pipeline service is not provided.
var ErrMissingPipelineService = errors.New("mcp: pipeline service is required")

// errToolUnavailable is returned by tools whose backing port is absent.
var errToolUnavailable = errors.New("mcp: tool not available in this configuration")
