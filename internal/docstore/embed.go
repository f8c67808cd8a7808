package docstore

import "embed"

// Migrations holds the goose SQL migrations for the document store.
//
//go:embed migrations/*.sql
var Migrations embed.FS
