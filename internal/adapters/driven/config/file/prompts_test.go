package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/archon-cli/internal/core/ports/driven"
)

func TestDefaultPrompt(t *testing.T) {
	system, ok := DefaultPrompt(driven.PromptAnalysisSystem)
	require.True(t, ok)
	assert.Contains(t, system, `"build_instructions"`)
	assert.NotContains(t, system, "%s")

	analysis, ok := DefaultPrompt(driven.PromptArchitectureAnalysis)
	require.True(t, ok)
	assert.Equal(t, 1, strings.Count(analysis, "%s"))
	assert.True(t, strings.HasSuffix(analysis, "%s"))

	_, ok = DefaultPrompt("missing")
	assert.False(t, ok)
}

func TestNewPromptStore_DefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewPromptStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".archon", "prompts"), store.Dir())
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "prompts")
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	// No I/O until the first load.
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))

	_, err = store.Load(driven.PromptAnalysisSystem)
	require.NoError(t, err)

	for _, f := range []string{"analysis_system.txt", "architecture_analysis.txt", "README.md"} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, "expected file %s to exist", f)
	}
}

func TestPromptStore_Load_DefaultIsFormattable(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	template, err := store.Load(driven.PromptArchitectureAnalysis)
	require.NoError(t, err)

	rendered := fmt.Sprintf(template, "EXTRACTED DATA SUMMARY:")
	assert.True(t, strings.HasSuffix(rendered, "EXTRACTED DATA SUMMARY:"))
	assert.NotContains(t, rendered, "%!")
}

func TestPromptStore_Load_CustomContent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "architecture_analysis.txt"), []byte("\n  Custom: %s  \n"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptArchitectureAnalysis)
	require.NoError(t, err)
	assert.Equal(t, "Custom: %s", prompt)

	// Existing files are not overwritten by initialisation.
	data, err := os.ReadFile(filepath.Join(dir, "architecture_analysis.txt"))
	require.NoError(t, err)
	assert.Equal(t, "\n  Custom: %s  \n", string(data))
}

func TestPromptStore_Load_FallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, _ = store.Load(driven.PromptAnalysisSystem) // Trigger init
	require.NoError(t, os.Remove(filepath.Join(dir, "analysis_system.txt")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "architecture_analysis.txt"), []byte("   \n"), 0600))
	store.Reload()

	want, _ := DefaultPrompt(driven.PromptAnalysisSystem)
	prompt, err := store.Load(driven.PromptAnalysisSystem)
	require.NoError(t, err)
	assert.Equal(t, want, prompt)

	want, _ = DefaultPrompt(driven.PromptArchitectureAnalysis)
	prompt, err = store.Load(driven.PromptArchitectureAnalysis)
	require.NoError(t, err)
	assert.Equal(t, want, prompt)
}

func TestPromptStore_Load_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("nonexistent_prompt")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "nonexistent_prompt")
}

func TestPromptStore_Load_InitFailureUsesDefaults(t *testing.T) {
	store, err := NewPromptStore("/dev/null/prompts")
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptAnalysisSystem)
	require.NoError(t, err)
	assert.Contains(t, prompt, "project_name")

	_, err = store.Load("nonexistent_prompt")
	assert.Error(t, err)
}

func TestPromptStore_CacheAndReload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	first, err := store.Load(driven.PromptArchitectureAnalysis)
	require.NoError(t, err)

	path := filepath.Join(dir, "architecture_analysis.txt")
	require.NoError(t, os.WriteFile(path, []byte("edited: %s"), 0600))

	cached, err := store.Load(driven.PromptArchitectureAnalysis)
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	store.Reload()
	fresh, err := store.Load(driven.PromptArchitectureAnalysis)
	require.NoError(t, err)
	assert.Equal(t, "edited: %s", fresh)
}

func TestPromptStore_Load_ConcurrentAccess(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	const goroutines = 50
	var wg sync.WaitGroup
	results := make([]string, goroutines)
	errs := make([]error, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = store.Load(driven.PromptAnalysisSystem)
		}()
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0], results[i])
	}
}

func TestIsTemplateChange(t *testing.T) {
	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"write template", fsnotify.Event{Name: "/p/analysis_system.txt", Op: fsnotify.Write}, true},
		{"remove template", fsnotify.Event{Name: "/p/analysis_system.txt", Op: fsnotify.Remove}, true},
		{"rename template", fsnotify.Event{Name: "/p/analysis_system.txt", Op: fsnotify.Rename}, true},
		{"chmod template", fsnotify.Event{Name: "/p/analysis_system.txt", Op: fsnotify.Chmod}, false},
		{"editor swap file", fsnotify.Event{Name: "/p/.analysis_system.txt.swp", Op: fsnotify.Write}, false},
		{"readme", fsnotify.Event{Name: "/p/README.md", Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isTemplateChange(tt.event))
		})
	}
}

func TestPromptStore_Watch(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- store.Watch(ctx) }()

	// Watch initialises the directory; wait for the defaults before caching one.
	path := filepath.Join(dir, "architecture_analysis.txt")
	require.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)
	_, err = store.Load(driven.PromptArchitectureAnalysis)
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("edited: %s"), 0600))

	require.Eventually(t, func() bool {
		prompt, err := store.Load(driven.PromptArchitectureAnalysis)
		return err == nil && prompt == "edited: %s"
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestPromptStore_Watch_InitFailure(t *testing.T) {
	store, err := NewPromptStore("/dev/null/prompts")
	require.NoError(t, err)

	assert.Error(t, store.Watch(context.Background()))
}
