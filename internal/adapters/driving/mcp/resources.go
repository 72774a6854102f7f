package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
)

const uriScheme = "archon://"

type cacheInfo struct {
	Enabled   bool   `json:"enabled"`
	Entries   int    `json:"entries"`
	Expired   int    `json:"expired"`
	SizeBytes int64  `json:"size_bytes"`
	Path      string `json:"path,omitempty"`
}

type errorInfo struct {
	ID          string   `json:"id"`
	Kind        string   `json:"kind"`
	Severity    string   `json:"severity"`
	Stage       string   `json:"stage,omitempty"`
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions,omitempty"`
}

type errorsInfo struct {
	Total      int            `json:"total"`
	ByKind     map[string]int `json:"by_kind"`
	BySeverity map[string]int `json:"by_severity"`
	Recent     []errorInfo    `json:"recent"`
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "cache/stats",
		Name:        "cache-stats",
		Description: "Occupancy of the document and analysis cache",
		MIMEType:    "application/json",
	}, s.handleCacheResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "errors",
		Name:        "errors",
		Description: "Failures recorded during this session",
		MIMEType:    "application/json",
	}, s.handleErrorsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "errors/{kind}",
		Name:        "errors-by-kind",
		Description: "Recorded failures of one kind, such as ai_provider or build",
		MIMEType:    "application/json",
	}, s.handleErrorsResource)
}

func (s *Server) handleCacheResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	info := cacheInfo{}
	if s.ports.Cache != nil {
		stats, err := s.ports.Cache.Stats(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading cache stats: %w", err)
		}
		info = cacheInfo{
			Enabled:   true,
			Entries:   stats.Entries,
			Expired:   stats.Expired,
			SizeBytes: stats.SizeBytes,
			Path:      stats.Path,
		}
	}
	return jsonResource(req.Params.URI, info)
}

// handleErrorsResource serves archon://errors and archon://errors/{kind}.
func (s *Server) handleErrorsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	kind, filtered := extractErrorKind(req.Params.URI)
	if filtered && kind == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	info := errorsInfo{
		ByKind:     map[string]int{},
		BySeverity: map[string]int{},
		Recent:     []errorInfo{},
	}
	if s.ports.Errors != nil {
		summary := s.ports.Errors.Summary()
		info.Total = summary.Total
		for k, n := range summary.ByKind {
			info.ByKind[string(k)] = n
		}
		for sev, n := range summary.BySeverity {
			info.BySeverity[string(sev)] = n
		}
		for _, e := range summary.Recent {
			if filtered && string(e.Kind) != kind {
				continue
			}
			info.Recent = append(info.Recent, errorInfoFrom(e))
		}
	}
	if filtered {
		info.Total = info.ByKind[kind]
	}
	return jsonResource(req.Params.URI, info)
}

func errorInfoFrom(e *domain.Error) errorInfo {
	msg := e.Error()
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return errorInfo{
		ID:          e.ID,
		Kind:        string(e.Kind),
		Severity:    string(e.Severity),
		Stage:       e.Stage,
		Message:     msg,
		Suggestions: e.Suggestions,
	}
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractErrorKind extracts the kind from archon://errors/{kind}.
// filtered is false for the unfiltered archon://errors resource.
func extractErrorKind(uri string) (kind string, filtered bool) {
	const prefix = uriScheme + "errors/"
	if !strings.HasPrefix(uri, prefix) {
		return "", false
	}
	return strings.Trim(strings.TrimPrefix(uri, prefix), "/"), true
}
