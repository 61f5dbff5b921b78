package migrations

import "embed"

// FS contains embedded SQLite migrations for governor storage.
//
//go:embed *.sql
var FS embed.FS
