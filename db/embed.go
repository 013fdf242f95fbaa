package db

import "embed"

// Migrations holds the schema migration files shipped with the binary.
//
//go:embed migrations/*.sql
var Migrations embed.FS
