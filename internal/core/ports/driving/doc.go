// Package driving declares what the CLI and the MCP server may ask of archon:
// run the pipeline, load and execute plans, manage settings, inspect the cache
// and recent errors. internal/core/services implements every interface here.
package driving
