package pgstore

import "embed"

// Migrations holds the goose migrations creating the default "session" table.
// Files live under the "migrations" directory.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations that holds the files.
const MigrationsDir = "migrations"
