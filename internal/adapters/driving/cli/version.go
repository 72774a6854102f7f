package cli

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/archon-cli/internal/adapters/driving/mcp"
)

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Show the archon build and the runtime it was built with",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipBootstrap: "true"},
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("archon version %s\n", version)
		cmd.Printf("  mcp server  %s\n", mcp.Version)
		cmd.Printf("  go          %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
