package cli

import (
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show providers, cache occupancy and recent errors",
	RunE:  runStatus,
}

var clearCacheCmd = &cobra.Command{
	Use:   "clear-cache",
	Short: "Remove every cached document and analysis",
	RunE:  runClearCache,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(clearCacheCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	settings := currentSettings()

	fmt.Fprintln(out, headingStyle.Render("Providers"))
	configured := settings.ConfiguredProviders()
	if len(configured) == 0 {
		fmt.Fprintln(out, warningStyle.Render("  none configured; rule-based extraction only"))
	}
	rows := make([][2]string, 0, len(configured)+1)
	for _, p := range configured {
		rows = append(rows, [2]string{p.Provider.String(), p.Model})
	}
	if settings.PreferredProvider != "" {
		rows = append(rows, [2]string{"preferred", settings.PreferredProvider.String()})
	}
	if len(rows) > 0 {
		fmt.Fprintln(out, boxStyle.Render(keyValues(rows)))
	}

	fmt.Fprintln(out, headingStyle.Render("Cache"))
	switch {
	case cacheService == nil:
		fmt.Fprintln(out, mutedStyle.Render("  disabled"))
	default:
		stats, err := cacheService.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("cache stats: %w", err)
		}
		fmt.Fprintln(out, boxStyle.Render(keyValues([][2]string{
			{"Entries", fmt.Sprint(stats.Entries)},
			{"Expired", fmt.Sprint(stats.Expired)},
			{"Size", humanize.Bytes(uint64(max(stats.SizeBytes, 0)))},
			{"Location", stats.Path},
		})))
	}

	fmt.Fprintln(out, headingStyle.Render("Errors"))
	if errorHistory == nil {
		fmt.Fprintln(out, mutedStyle.Render("  not recorded"))
		return nil
	}
	summary := errorHistory.Summary()
	if summary.Total == 0 {
		fmt.Fprintln(out, successStyle.Render("  none this session"))
		return nil
	}

	kinds := make([]string, 0, len(summary.ByKind))
	for k := range summary.ByKind {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	errRows := [][2]string{{"Total", fmt.Sprint(summary.Total)}}
	for _, k := range kinds {
		errRows = append(errRows, [2]string{k, fmt.Sprint(summary.ByKind[domain.ErrorKind(k)])})
	}
	fmt.Fprintln(out, boxStyle.Render(keyValues(errRows)))
	for _, e := range summary.Recent {
		fmt.Fprintf(out, "  %s %s\n", mutedStyle.Render(e.ID), e.Error())
	}
	return nil
}

func runClearCache(cmd *cobra.Command, _ []string) error {
	if err := requireService(cacheService != nil, "cache"); err != nil {
		return err
	}

	stats, err := cacheService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("cache stats: %w", err)
	}
	if err := cacheService.Clear(cmd.Context()); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	cmd.Printf("Removed %d cache entries (%s)\n", stats.Entries, humanize.Bytes(uint64(max(stats.SizeBytes, 0))))
	return nil
}
