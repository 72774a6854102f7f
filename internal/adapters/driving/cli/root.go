// Package cli implements the archon command line.
//
// Commands reach the core through driving ports held in package variables.
// main installs a Bootstrap that builds them once flags are parsed; tests
// install services directly with SetServices.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driving"
	"github.com/custodia-labs/archon-cli/internal/logger"
)

// skipBootstrap marks commands that run without services.
const skipBootstrap = "skip-bootstrap"

var (
	version    = "dev"
	verbose    bool
	configFile string
)

var (
	pipelineService driving.PipelineService
	planService     driving.PlanService
	executorService driving.ExecutorService
	settingsService driving.SettingsService
	cacheService    driving.CacheService
	errorHistory    driving.ErrorHistoryService
	watchConfig     func(ctx context.Context, onChange func()) error
	closeServices   func() error
)

// Services bundles the driving ports the commands use.
type Services struct {
	Pipeline driving.PipelineService
	Plan     driving.PlanService
	Executor driving.ExecutorService
	Settings driving.SettingsService
	Cache    driving.CacheService
	Errors   driving.ErrorHistoryService

	// WatchConfig blocks, calling onChange whenever the config file changes.
	// It is nil when settings are not file backed.
	WatchConfig func(ctx context.Context, onChange func()) error

	// Close releases adapters. It may be nil.
	Close func() error
}

// BootstrapOptions carries the flags that shape service construction.
type BootstrapOptions struct {
	// ConfigPath overrides the config file. ":memory:" keeps settings in memory.
	ConfigPath string

	// Mode overrides the configured processing mode when set.
	Mode domain.ProcessingMode
}

// Bootstrap builds the services for one invocation.
type Bootstrap func(opts BootstrapOptions) (*Services, error)

var bootstrap Bootstrap

// SetServices installs the driving ports used by commands.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	pipelineService = s.Pipeline
	planService = s.Plan
	executorService = s.Executor
	settingsService = s.Settings
	cacheService = s.Cache
	errorHistory = s.Errors
	watchConfig = s.WatchConfig
	closeServices = s.Close
}

// SetBootstrap installs the service factory run before each command.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetVersion sets the version reported by `archon version`.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

var rootCmd = &cobra.Command{
	Use:   "archon",
	Short: "Turn architecture documents into executable build plans",
	Long: `Archon reads an architecture document (markdown, docx, pdf, pptx, xlsx,
html or plain text), extracts a project description with an LLM or with
rule-based fallbacks, compiles it into an ordered build plan and executes it.

Configuration lives in ~/.archon/config.toml. Provider API keys can also be
supplied through ARCHON_OPENAI_API_KEY, ARCHON_ANTHROPIC_API_KEY and
ARCHON_GEMINI_API_KEY.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		teardown()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ~/.archon/config.toml)")
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetVerbose(verbose)

	if bootstrap == nil || cmd.Annotations[skipBootstrap] == "true" {
		return nil
	}

	opts := BootstrapOptions{ConfigPath: configFile}
	if basic, err := cmd.Flags().GetBool("basic"); err == nil && basic {
		opts.Mode = domain.ProcessingBasic
	}

	services, err := bootstrap(opts)
	if err != nil {
		return fmt.Errorf("initialise: %w", err)
	}
	SetServices(services)
	return nil
}

func teardown() {
	if closeServices != nil {
		if err := closeServices(); err != nil {
			logger.Warn("closing services: %v", err)
		}
		closeServices = nil
	}
	_ = logger.Sync()
}

// Execute runs the root command.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx and prints recovery
// suggestions for classified failures.
func ExecuteContext(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	// PersistentPostRun is skipped when a command fails.
	teardown()

	var derr *domain.Error
	if errors.As(err, &derr) {
		w := rootCmd.ErrOrStderr()
		fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("error %s (%s, %s)", derr.ID, derr.Kind, derr.Severity)))
		for _, s := range derr.Suggestions {
			fmt.Fprintln(w, "  • "+s)
		}
	}
	return err
}

func requireService(ok bool, name string) error {
	if !ok {
		return fmt.Errorf("%s service not configured", name)
	}
	return nil
}

// currentSettings returns configured settings, or defaults when no settings
// service is installed.
func currentSettings() domain.AppSettings {
	if settingsService == nil {
		return domain.DefaultAppSettings()
	}
	s, err := settingsService.Get()
	if err != nil || s == nil {
		logger.Warn("reading settings: %v", err)
		return domain.DefaultAppSettings()
	}
	return *s
}
