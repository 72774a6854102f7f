package cli

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/archon-cli/internal/adapters/driving/mcp"
	"github.com/custodia-labs/archon-cli/internal/logger"
)

var mcpHTTPAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve archon to AI assistants over the Model Context Protocol",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Expose archon's pipeline to an assistant.

Tools: analyze and plan always; validate and execute for saved plan files.
Resources: archon://cache/stats, archon://errors and archon://errors/{kind}.

The server speaks JSON-RPC on stdio unless --http is given, in which case it
serves streamable HTTP on that address along with GET /healthz. Edits to
config.toml are reported but need a restart; prompt edits apply immediately.

Examples:
  archon mcp serve
  archon mcp serve --http 127.0.0.1:8080

Assistant configuration (stdio):
  {"mcpServers": {"archon": {"command": "archon", "args": ["mcp", "serve"]}}}`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "serve streamable HTTP on `addr` (host:port or a bare port) instead of stdio")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	server, err := mcp.NewServer(&mcp.Ports{
		Pipeline: pipelineService,
		Plan:     planService,
		Executor: executorService,
		Cache:    cacheService,
		Errors:   errorHistory,
	})
	if err != nil {
		return err
	}

	addr, err := listenAddr(mcpHTTPAddr)
	if err != nil {
		return err
	}

	if watchConfig != nil {
		go func() {
			err := watchConfig(cmd.Context(), func() {
				logger.Info("config.toml changed; restart the server to pick up provider or pipeline settings")
			})
			if err != nil {
				logger.Warn("file watch stopped: %v", err)
			}
		}()
	}

	if addr == "" {
		return server.Run(cmd.Context())
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "MCP server on http://%s (health: /healthz)\n", displayAddr(addr))
	return server.RunHTTP(cmd.Context(), addr)
}

// listenAddr accepts "", a bare port such as "8080", or host:port.
func listenAddr(flag string) (string, error) {
	if flag == "" {
		return "", nil
	}
	if n, err := strconv.Atoi(flag); err == nil {
		if n < 1 || n > 65535 {
			return "", fmt.Errorf("--http: port %d out of range", n)
		}
		return ":" + flag, nil
	}
	if _, _, err := net.SplitHostPort(flag); err != nil {
		return "", fmt.Errorf("--http: %w", err)
	}
	return flag, nil
}

func displayAddr(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil || host != "" {
		return addr
	}
	return net.JoinHostPort("localhost", port)
}
