// Package app wires driven adapters into core services for one CLI invocation.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/archon-cli/internal/adapters/driven/ai"
	"github.com/custodia-labs/archon-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/archon-cli/internal/adapters/driven/runner/shell"
	"github.com/custodia-labs/archon-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/archon-cli/internal/adapters/driven/storage/planfile"
	"github.com/custodia-labs/archon-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/archon-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/archon-cli/internal/core/domain"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driven"
	"github.com/custodia-labs/archon-cli/internal/core/services"
	"github.com/custodia-labs/archon-cli/internal/logger"
	"github.com/custodia-labs/archon-cli/internal/normalisers"
	"github.com/custodia-labs/archon-cli/internal/postprocessors"
)

// MemoryConfig keeps settings in memory and the cache in process.
const MemoryConfig = ":memory:"

// Options configures New.
type Options struct {
	// ConfigPath overrides <DataDir>/config.toml. MemoryConfig skips the filesystem.
	ConfigPath string

	// Mode overrides the configured processing mode when set.
	Mode domain.ProcessingMode

	// DataDir holds config.toml, cache/ and prompts/. Defaults to ~/.archon.
	DataDir string
}

// App holds the wired services and the adapters that need closing.
type App struct {
	Settings *domain.AppSettings

	Pipeline     *services.PipelineService
	Plans        *services.PlanService
	Executor     *services.ExecutorService
	SettingsSvc  *services.SettingsService
	Cache        *services.CacheService
	ErrorHistory *services.ErrorHistory

	cache   driven.Cache
	chain   *ai.InitResult
	prompts *file.PromptStore
	watch   func(ctx context.Context, onChange func()) error
}

// New builds every service from persisted settings.
func New(opts Options) (*App, error) {
	inMemory := opts.ConfigPath == MemoryConfig

	dataDir := opts.DataDir
	if dataDir == "" && !inMemory {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".archon")
	}

	store, err := newConfigStore(opts.ConfigPath, dataDir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}

	settingsSvc := services.NewSettingsService(store, ai.NewConfigValidator())
	settings, err := settingsSvc.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if opts.Mode != "" {
		if !opts.Mode.IsValid() {
			return nil, fmt.Errorf("%w: processing mode %q", domain.ErrInvalidConfig, opts.Mode)
		}
		settings.Pipeline.Mode = opts.Mode
	}
	logger.Debug("Config: %s (mode %s)", store.Path(), settings.Pipeline.Mode)

	postPipeline, err := postprocessors.DefaultPipeline(settings.Pipeline)
	if err != nil {
		return nil, fmt.Errorf("build post-processors: %w", err)
	}
	logger.Debug("Post-processors: %v", postPipeline.Stages())

	a := &App{Settings: settings, SettingsSvc: settingsSvc}
	if fs, ok := store.(*file.ConfigStore); ok {
		a.watch = a.watchFiles(fs)
	}
	a.ErrorHistory = services.NewErrorHistory(services.DefaultErrorHistoryLimit)

	if settings.Cache.Enabled {
		a.cache = openCache(settings.Cache, dataDir, inMemory)
		a.Cache = services.NewCacheService(a.cache)
	}

	ingest := services.NewIngestService(normalisers.NewDefaultRegistry(), postPipeline, normalisers.MIMETypeFor)
	if a.cache != nil {
		ingest.SetCache(a.cache, settings.Cache.TTL, pipelineFingerprint(settings.Pipeline))
	}

	a.chain = ai.NewChainFromSettings(*settings)
	for _, w := range a.chain.Warnings {
		logger.Warn("provider unavailable: %s", w)
	}
	logger.Debug("Providers: %v", a.chain.Chain.Providers())

	synthesis := services.NewSynthesisService(a.chain.Chain, settings.Generation)
	synthesis.SetErrorReporter(a.ErrorHistory)
	if !inMemory {
		prompts, err := file.NewPromptStore(filepath.Join(dataDir, "prompts"))
		if err != nil {
			logger.Warn("custom prompts disabled: %v", err)
		} else {
			synthesis.SetPromptStore(prompts)
			a.prompts = prompts
		}
	}
	if a.cache != nil {
		synthesis.SetCache(a.cache, settings.Cache.AnalysisTTL)
	}

	a.Plans = services.NewPlanService(planfile.NewStore())

	a.Executor = services.NewExecutorService(shell.NewRunner(), settings.Build)
	a.Executor.SetErrorReporter(a.ErrorHistory)

	a.Pipeline = services.NewPipelineService(ingest, synthesis, a.Plans, a.Executor)
	a.Pipeline.SetErrorReporter(a.ErrorHistory)

	return a, nil
}

// watchFiles follows config edits, calling onChange for each, and prompt
// edits when custom prompts are enabled. Either watcher failing stops both.
func (a *App) watchFiles(config *file.ConfigStore) func(context.Context, func()) error {
	return func(ctx context.Context, onChange func()) error {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return config.Watch(gctx, onChange) })
		if a.prompts != nil {
			g.Go(func() error { return a.prompts.Watch(gctx) })
		}
		return g.Wait()
	}
}

// Close releases the provider clients and the cache.
func (a *App) Close() error {
	var err error
	if a.chain != nil {
		a.chain.Close()
		a.chain = nil
	}
	if a.cache != nil {
		err = multierr.Append(err, a.cache.Close())
		a.cache = nil
	}
	return err
}

// Services exposes the app through the CLI's driving ports.
func (a *App) Services() *cli.Services {
	s := &cli.Services{
		Pipeline: a.Pipeline,
		Plan:     a.Plans,
		Executor: a.Executor,
		Settings: a.SettingsSvc,
		Errors:   a.ErrorHistory,
		Close:    a.Close,

		WatchConfig: a.watch,
	}
	// A nil *CacheService must not become a non-nil interface.
	if a.Cache != nil {
		s.Cache = a.Cache
	}
	return s
}

// Bootstrap adapts New to cli.Bootstrap.
func Bootstrap(opts cli.BootstrapOptions) (*cli.Services, error) {
	a, err := New(Options{ConfigPath: opts.ConfigPath, Mode: opts.Mode})
	if err != nil {
		return nil, err
	}
	return a.Services(), nil
}

func newConfigStore(path, dataDir string) (driven.ConfigStore, error) {
	switch path {
	case MemoryConfig:
		return memory.NewConfigStore(), nil
	case "":
		return file.NewConfigStore(dataDir)
	default:
		return file.NewConfigStoreAt(path)
	}
}

// openCache prefers the sqlite cache and falls back to an in-process one
// when the database cannot be opened.
func openCache(s domain.CacheSettings, dataDir string, inMemory bool) driven.Cache {
	if !inMemory {
		c, err := sqlite.NewCache(
			filepath.Join(dataDir, "cache"),
			sqlite.WithTTL(s.TTL),
			sqlite.WithMaxEntries(s.MaxEntries),
		)
		if err == nil {
			logger.Debug("Cache: %s", c.Path())
			return c
		}
		logger.Warn("persistent cache unavailable, using memory: %v", err)
	}
	return memory.NewCache(s.MaxEntries, s.TTL)
}

// pipelineFingerprint identifies settings that change chunk output.
func pipelineFingerprint(p domain.PipelineSettings) string {
	return fmt.Sprintf("%s/%d/%d", p.Mode, p.MaxChunkSize, p.ChunkOverlap)
}
