package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driving"
)

func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestExtractErrorKind(t *testing.T) {
	tests := []struct {
		name         string
		uri          string
		wantKind     string
		wantFiltered bool
	}{
		{name: "unfiltered", uri: "archon://errors", wantKind: "", wantFiltered: false},
		{name: "kind", uri: "archon://errors/build", wantKind: "build", wantFiltered: true},
		{name: "trailing slash", uri: "archon://errors/ai_provider/", wantKind: "ai_provider", wantFiltered: true},
		{name: "empty kind", uri: "archon://errors/", wantKind: "", wantFiltered: true},
		{name: "other scheme", uri: "file://errors/build", wantKind: "", wantFiltered: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, filtered := extractErrorKind(tt.uri)
			assert.Equal(t, tt.wantKind, kind)
			assert.Equal(t, tt.wantFiltered, filtered)
		})
	}
}

func TestServer_handleCacheResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil cache reports disabled", func(t *testing.T) {
		server, err := NewServer(&Ports{Pipeline: &mockPipelineService{}})
		require.NoError(t, err)

		result, err := server.handleCacheResource(ctx, makeReadResourceRequest("archon://cache/stats"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Contains(t, result.Contents[0].Text, `"enabled": false`)
	})

	t.Run("reports stats", func(t *testing.T) {
		cache := &mockCacheService{stats: domain.CacheStats{Entries: 3, SizeBytes: 2048, Path: "/tmp/cache.db"}}
		server, err := NewServer(&Ports{Pipeline: &mockPipelineService{}, Cache: cache})
		require.NoError(t, err)

		result, err := server.handleCacheResource(ctx, makeReadResourceRequest("archon://cache/stats"))

		require.NoError(t, err)
		var info cacheInfo
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &info))
		assert.True(t, info.Enabled)
		assert.Equal(t, 3, info.Entries)
		assert.Equal(t, int64(2048), info.SizeBytes)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
	})

	t.Run("stats error propagates", func(t *testing.T) {
		cache := &mockCacheService{err: errors.New("database locked")}
		server, err := NewServer(&Ports{Pipeline: &mockPipelineService{}, Cache: cache})
		require.NoError(t, err)

		_, err = server.handleCacheResource(ctx, makeReadResourceRequest("archon://cache/stats"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading cache stats")
	})
}

func TestServer_handleErrorsResource(t *testing.T) {
	ctx := context.Background()
	history := &mockErrorHistory{summary: driving.ErrorSummary{
		Total:      2,
		ByKind:     map[domain.ErrorKind]int{domain.KindBuild: 1, domain.KindAIProvider: 1},
		BySeverity: map[domain.Severity]int{domain.SeverityHigh: 2},
		Recent: []*domain.Error{
			{ID: "e1", Kind: domain.KindBuild, Severity: domain.SeverityHigh, Stage: "execute", Err: errors.New("npm failed")},
			{ID: "e2", Kind: domain.KindAIProvider, Severity: domain.SeverityHigh, Err: errors.New("rate limited"), Suggestions: []string{"retry later"}},
		},
	}}

	t.Run("nil history returns empty summary", func(t *testing.T) {
		server, err := NewServer(&Ports{Pipeline: &mockPipelineService{}})
		require.NoError(t, err)

		result, err := server.handleErrorsResource(ctx, makeReadResourceRequest("archon://errors"))

		require.NoError(t, err)
		var info errorsInfo
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &info))
		assert.Zero(t, info.Total)
		assert.Empty(t, info.Recent)
	})

	t.Run("lists all errors", func(t *testing.T) {
		server, err := NewServer(&Ports{Pipeline: &mockPipelineService{}, Errors: history})
		require.NoError(t, err)

		result, err := server.handleErrorsResource(ctx, makeReadResourceRequest("archon://errors"))

		require.NoError(t, err)
		var info errorsInfo
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &info))
		assert.Equal(t, 2, info.Total)
		assert.Equal(t, 2, info.BySeverity["high"])
		require.Len(t, info.Recent, 2)
		assert.Equal(t, "npm failed", info.Recent[0].Message)
		assert.Equal(t, []string{"retry later"}, info.Recent[1].Suggestions)
	})

	t.Run("filters by kind", func(t *testing.T) {
		server, err := NewServer(&Ports{Pipeline: &mockPipelineService{}, Errors: history})
		require.NoError(t, err)

		result, err := server.handleErrorsResource(ctx, makeReadResourceRequest("archon://errors/ai_provider"))

		require.NoError(t, err)
		var info errorsInfo
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &info))
		assert.Equal(t, 1, info.Total)
		require.Len(t, info.Recent, 1)
		assert.Equal(t, "e2", info.Recent[0].ID)
	})

	t.Run("empty kind is not found", func(t *testing.T) {
		server, err := NewServer(&Ports{Pipeline: &mockPipelineService{}, Errors: history})
		require.NoError(t, err)

		_, err = server.handleErrorsResource(ctx, makeReadResourceRequest("archon://errors/"))
		require.Error(t, err)
	})
}
