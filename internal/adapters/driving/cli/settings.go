package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change providers, generation limits, build defaults and cache settings.

Settings resolve in order: environment (ARCHON_*), config file, built-in default.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value by dot key. Values are parsed by key, so
durations accept "90s" and booleans accept "true".

Examples:
  archon settings set providers.preferred anthropic
  archon settings set generation.timeout 90s
  archon settings set build.dry_run_default true`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var (
	setKeyModel    string
	setKeyValidate bool
)

var settingsSetKeyCmd = &cobra.Command{
	Use:   "set-key <provider>",
	Short: "Store a provider API key",
	Long: `Store the API key for openai, anthropic or gemini. The key is read from
the terminal without echo, or from stdin when piped.

Examples:
  archon settings set-key openai
  echo "$KEY" | archon settings set-key anthropic --model claude-3-5-sonnet-latest`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsSetKey,
}

func init() {
	settingsSetKeyCmd.Flags().StringVar(&setKeyModel, "model", "", "model to use with this provider")
	settingsSetKeyCmd.Flags().BoolVar(&setKeyValidate, "validate", false, "ping the provider after saving")
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsSetKeyCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, titleStyle.Render("Current Settings"))
	fmt.Fprintln(out, mutedStyle.Render(settingsService.ConfigPath()))
	fmt.Fprintln(out)

	fmt.Fprintln(out, headingStyle.Render("[Providers]"))
	for _, p := range settings.Providers {
		status := "not configured"
		if p.IsConfigured() {
			status = "configured"
		}
		rows := [][2]string{{"Model", p.Model}, {"Status", status}}
		if p.Provider.IsLocal() {
			rows = append(rows, [2]string{"Base URL", p.BaseURL})
		}
		if p.Provider.RequiresAPIKey() {
			key := "(not set)"
			if p.APIKey != "" {
				key = maskAPIKey(p.APIKey)
			}
			rows = append(rows, [2]string{"API Key", key})
		}
		fmt.Fprintf(out, "  %s\n", p.Provider.Description())
		fmt.Fprintln(out, indent(keyValues(rows), "    "))
	}
	preferred := "(priority order)"
	if settings.PreferredProvider != "" {
		preferred = settings.PreferredProvider.String()
	}
	fmt.Fprintf(out, "  Preferred: %s\n\n", preferred)

	fmt.Fprintln(out, headingStyle.Render("[Generation]"))
	fmt.Fprintln(out, indent(keyValues([][2]string{
		{"Timeout", settings.Generation.Timeout.String()},
		{"Max retries", fmt.Sprint(settings.Generation.MaxRetries)},
		{"Temperature", fmt.Sprint(settings.Generation.Temperature)},
		{"Max tokens", fmt.Sprint(settings.Generation.MaxTokens)},
		{"Requests/s", fmt.Sprint(settings.Generation.RequestsPerSecond)},
	}), "  "))
	fmt.Fprintln(out)

	fmt.Fprintln(out, headingStyle.Render("[Pipeline]"))
	fmt.Fprintln(out, indent(keyValues([][2]string{
		{"Mode", string(settings.Pipeline.Mode)},
		{"Max chunk size", fmt.Sprint(settings.Pipeline.MaxChunkSize)},
		{"Chunk overlap", fmt.Sprint(settings.Pipeline.ChunkOverlap)},
	}), "  "))
	fmt.Fprintln(out)

	fmt.Fprintln(out, headingStyle.Render("[Build]"))
	fmt.Fprintln(out, indent(keyValues([][2]string{
		{"Output dir", settings.Build.OutputDir},
		{"Command timeout", settings.Build.CommandTimeout.String()},
		{"Dry run default", fmt.Sprint(settings.Build.DryRunDefault)},
		{"Shell commands", fmt.Sprint(settings.Build.AllowShellCommands)},
	}), "  "))
	fmt.Fprintln(out)

	fmt.Fprintln(out, headingStyle.Render("[Cache]"))
	fmt.Fprintln(out, indent(keyValues([][2]string{
		{"Enabled", fmt.Sprint(settings.Cache.Enabled)},
		{"TTL", settings.Cache.TTL.String()},
		{"Analysis TTL", settings.Cache.AnalysisTTL.String()},
		{"Max entries", fmt.Sprint(settings.Cache.MaxEntries)},
	}), "  "))
	fmt.Fprintln(out)

	if err := settingsService.Validate(); err != nil {
		fmt.Fprintln(out, warningStyle.Render(fmt.Sprintf("Warning: %v", err)))
		fmt.Fprintln(out, "Run 'archon settings set <key> <value>' to fix configuration issues.")
	} else {
		fmt.Fprintln(out, successStyle.Render("Configuration is valid."))
	}

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Set(args[0], args[1]); err != nil {
		return err
	}
	cmd.Printf("Set %s = %s\n", args[0], args[1])
	return nil
}

func runSettingsSetKey(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	provider := domain.AIProvider(strings.ToLower(args[0]))
	if !provider.IsValid() {
		return fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidInput, args[0])
	}
	if !provider.RequiresAPIKey() {
		return fmt.Errorf("%w: %s does not use an API key", domain.ErrInvalidInput, provider)
	}

	cmd.Printf("Enter %s API key: ", provider)
	apiKey := readSecret(cmd.InOrStdin())
	cmd.Println()
	if apiKey == "" {
		return errors.New("API key is required for this provider")
	}

	if err := settingsService.SetLLMProvider(provider, setKeyModel, apiKey); err != nil {
		return fmt.Errorf("failed to configure %s: %w", provider, err)
	}
	cmd.Printf("Saved %s key %s\n", provider, maskAPIKey(apiKey))

	if setKeyValidate {
		cmd.Print("Validating configuration... ")
		if err := settingsService.ValidateLLMConfig(provider); err != nil {
			cmd.Printf("FAILED: %v\n", err)
			return fmt.Errorf("%s configuration validation failed: %w", provider, err)
		}
		cmd.Println("OK")
	}
	return nil
}

// readSecret reads one line without echo when in is a terminal.
//
//nolint:errcheck // CLI helper, error ignored for UX
func readSecret(in io.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(secret))
		}
	}
	line, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimSpace(line)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
