// Package migrations embeds the SQL schema migrations applied by
// database.Migrate at startup and in integration tests.
package migrations

import "embed"

// FS holds all *.sql migration files embedded at compile time.
//
//go:embed *.sql
var FS embed.FS
