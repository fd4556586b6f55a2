package behavior

import "embed"

// Migrations holds the goose SQL migrations for PostgresStore.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations.
const MigrationsDir = "migrations"
