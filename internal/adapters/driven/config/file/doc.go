// Package file keeps archon's user-editable state on disk: config.toml (or a
// YAML file given with --config) and the prompt templates under prompts/.
// Both can be watched so a running MCP server notices edits.
package file
