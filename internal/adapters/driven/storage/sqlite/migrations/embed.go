// Package migrations holds the cache schema as numbered up/down SQL pairs.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
