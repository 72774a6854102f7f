package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driving"
)

var (
	buildOverlay  string
	buildOutput   string
	buildPlanOnly bool
	buildDryRun   bool
	buildPlanFile string
	buildFormat   string
	buildBasic    bool
)

var buildCmd = &cobra.Command{
	Use:   "build <document>",
	Short: "Generate a build plan from a document and execute it",
	Long: `Process an architecture document end to end: extract chunks, synthesise
a project description, compile a build plan, save it and execute it.

The plan is written to <output>/BuildPlan.json unless --plan-file is given.
The project is created in <output>/<project_name>.

Examples:
  archon build architecture.md
  archon build architecture.docx --overlay tasks.md --plan-only
  archon build design.pdf --dry-run --format yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	f := buildCmd.Flags()
	f.StringVar(&buildOverlay, "overlay", "", "secondary document merged after the primary one")
	f.StringVarP(&buildOutput, "output", "o", "", "output directory (default from build.output_dir)")
	f.BoolVar(&buildPlanOnly, "plan-only", false, "stop after the plan is saved")
	f.BoolVar(&buildDryRun, "dry-run", false, "describe actions without touching the filesystem")
	f.StringVar(&buildPlanFile, "plan-file", "", "where to save the plan (default <output>/BuildPlan.<format>)")
	f.StringVar(&buildFormat, "format", "json", "plan file format: json or yaml")
	f.BoolVar(&buildBasic, "basic", false, "use basic segmentation and classification rules")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	if err := requireService(pipelineService != nil, "pipeline"); err != nil {
		return err
	}

	settings := currentSettings()
	output := buildOutput
	if output == "" {
		output = settings.Build.OutputDir
	}
	dryRun := buildDryRun
	if !cmd.Flags().Changed("dry-run") {
		dryRun = settings.Build.DryRunDefault
	}

	planPath, err := resolvePlanPath(buildPlanFile, output, buildFormat)
	if err != nil {
		return err
	}

	req := driving.BuildRequest{
		Document: args[0],
		Overlay:  buildOverlay,
		PlanPath: planPath,
		PlanOnly: buildPlanOnly,
		Execute: driving.ExecuteOptions{
			WorkingDir: output,
			DryRun:     dryRun,
		},
	}

	result, err := pipelineService.Build(cmd.Context(), req)
	out := cmd.OutOrStdout()
	if result != nil {
		if result.Synthesis != nil && result.Synthesis.FellBack {
			fmt.Fprintln(out, warningStyle.Render("Rule-based analysis used: "+result.Synthesis.FallbackReason))
		}
		if result.Plan != nil {
			printPlan(out, result.Plan)
			fmt.Fprintln(out, mutedStyle.Render("Plan saved to "+planPath))
		}
		printReport(out, result.Report)
	}
	return err
}

// resolvePlanPath picks the plan file location for build.
func resolvePlanPath(planFile, output, format string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != "json" && format != "yaml" {
		return "", fmt.Errorf("%w: --format must be json or yaml, got %q", domain.ErrInvalidInput, format)
	}
	if planFile != "" {
		return planFile, nil
	}
	return filepath.Join(output, "BuildPlan."+format), nil
}

var analyzeOutput string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <document>",
	Short: "Extract and classify chunks from a document",
	Long: `Run ingestion only: normalise the document, segment it and classify each
chunk. Use --output to write the chunks as JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "write chunks as JSON to this file")
	analyzeCmd.Flags().Bool("basic", false, "use basic segmentation and classification rules")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if err := requireService(pipelineService != nil, "pipeline"); err != nil {
		return err
	}

	chunks, err := pipelineService.Analyze(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if analyzeOutput != "" {
		data, err := json.MarshalIndent(chunks, "", "  ")
		if err != nil {
			return fmt.Errorf("encode chunks: %w", err)
		}
		if dir := filepath.Dir(analyzeOutput); dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
		}
		if err := os.WriteFile(analyzeOutput, data, 0644); err != nil { //nolint:gosec // chunks are not secret
			return fmt.Errorf("write chunks: %w", err)
		}
		cmd.Printf("Wrote %d chunks to %s\n", len(chunks), analyzeOutput)
		return nil
	}

	printChunkSummary(cmd.OutOrStdout(), args[0], chunks)
	return nil
}
