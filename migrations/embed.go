// Package migrations embeds the schema migrations applied at startup.
package migrations

import "embed"

// FS holds the versioned up/down SQL files.
//
//go:embed *.sql
var FS embed.FS
