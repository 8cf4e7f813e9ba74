// Package migrations embeds the SQLite schema migrations.
package migrations

import "embed"

// FS contains the up/down migration pairs in golang-migrate naming.
//
//go:embed *.sql
var FS embed.FS
