package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driving"
)

func TestStatusCmd_NoProviders(t *testing.T) {
	ts := setupTestServices(t)
	ts.settings.settings.Providers = ts.settings.settings.Providers[:3]

	out, err := runCommand(t, "status")

	require.NoError(t, err)
	assert.Contains(t, out, "none configured")
	assert.Contains(t, out, "none this session")
}

func TestStatusCmd_ReportsEverything(t *testing.T) {
	ts := setupTestServices(t)
	ts.settings.settings.Providers[0].APIKey = "sk-test-123456789"
	ts.settings.settings.PreferredProvider = domain.AIProviderOpenAI
	ts.cache.stats = domain.CacheStats{Entries: 12, Expired: 2, SizeBytes: 2_500_000, Path: "/home/test/.archon/cache/cache.db"}
	ts.errors.summary = driving.ErrorSummary{
		Total:  1,
		ByKind: map[domain.ErrorKind]int{domain.KindAIProvider: 1},
		Recent: []*domain.Error{{ID: "f00d", Kind: domain.KindAIProvider, Err: errors.New("rate limited")}},
	}

	out, err := runCommand(t, "status")

	require.NoError(t, err)
	assert.Contains(t, out, "openai")
	assert.Contains(t, out, "preferred")
	assert.Contains(t, out, "12")
	assert.Contains(t, out, "2.5 MB")
	assert.Contains(t, out, "cache.db")
	assert.Contains(t, out, "ai_provider")
	assert.Contains(t, out, "rate limited")
	assert.NotContains(t, out, "sk-test")
}

func TestStatusCmd_CacheDisabled(t *testing.T) {
	setupTestServices(t)
	SetServices(&Services{Settings: newMockSettings()})

	out, err := runCommand(t, "status")

	require.NoError(t, err)
	assert.Contains(t, out, "disabled")
	assert.Contains(t, out, "not recorded")
}

func TestStatusCmd_CacheError(t *testing.T) {
	ts := setupTestServices(t)
	ts.cache.err = errors.New("database is locked")

	_, err := runCommand(t, "status")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache stats")
}

func TestClearCacheCmd(t *testing.T) {
	ts := setupTestServices(t)
	ts.cache.stats = domain.CacheStats{Entries: 4, SizeBytes: 4096}

	out, err := runCommand(t, "clear-cache")

	require.NoError(t, err)
	assert.True(t, ts.cache.cleared)
	assert.Contains(t, out, "Removed 4 cache entries (4.1 kB)")
}

func TestClearCacheCmd_NoCache(t *testing.T) {
	setupTestServices(t)
	SetServices(&Services{})

	_, err := runCommand(t, "clear-cache")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache service not configured")
}
