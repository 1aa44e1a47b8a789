// Package migrations embeds the PostgreSQL schema applied at start-up.
package migrations

import "embed"

// FS holds the *.up.sql files, applied in lexical order.
//
//go:embed *.up.sql
var FS embed.FS
