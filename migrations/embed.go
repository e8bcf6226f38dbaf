// Package migrations embeds the catalog schema migrations for goose.
package migrations

import "embed"

// FS holds every *.sql migration, applied in version order by storage.RunMigrations.
//
//go:embed *.sql
var FS embed.FS
