package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driving"
)

var (
	executeOutput string
	executeDryRun bool
)

var executeCmd = &cobra.Command{
	Use:   "execute <plan>",
	Short: "Execute a saved build plan",
	Long: `Load a build plan (JSON or YAML), validate it and run its instructions
in order. The project is created in <output>/<project_name>.`,
	Args: cobra.ExactArgs(1),
	RunE: runExecute,
}

var validateCmd = &cobra.Command{
	Use:   "validate <plan>",
	Short: "Check a saved build plan without running it",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	executeCmd.Flags().StringVarP(&executeOutput, "output", "o", "", "output directory (default from build.output_dir)")
	executeCmd.Flags().BoolVar(&executeDryRun, "dry-run", false, "describe actions without touching the filesystem")
	rootCmd.AddCommand(executeCmd)
	rootCmd.AddCommand(validateCmd)
}

func loadAndValidate(cmd *cobra.Command, path string) (*domain.BuildPlan, error) {
	if err := requireService(planService != nil, "plan"); err != nil {
		return nil, err
	}
	if err := requireService(executorService != nil, "executor"); err != nil {
		return nil, err
	}

	plan, err := planService.Load(path)
	if err != nil {
		return nil, err
	}

	result := executorService.Validate(plan)
	printValidation(cmd.OutOrStdout(), result)
	if !result.IsValid {
		return plan, fmt.Errorf("%w: %d error(s) in %s", domain.ErrPlanInvalid, len(result.Errors), path)
	}
	return plan, nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	_, err := loadAndValidate(cmd, args[0])
	return err
}

func runExecute(cmd *cobra.Command, args []string) error {
	plan, err := loadAndValidate(cmd, args[0])
	if err != nil {
		return err
	}

	settings := currentSettings()
	output := executeOutput
	if output == "" {
		output = settings.Build.OutputDir
	}
	dryRun := executeDryRun
	if !cmd.Flags().Changed("dry-run") {
		dryRun = settings.Build.DryRunDefault
	}

	report, err := executorService.Execute(cmd.Context(), plan, driving.ExecuteOptions{
		WorkingDir: output,
		DryRun:     dryRun,
	})
	printReport(cmd.OutOrStdout(), report)
	return err
}
