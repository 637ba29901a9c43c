package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds every schema step; each step registers itself from a
// file named <version>_<comment>.go.
var Migrations = migrate.NewMigrations()
