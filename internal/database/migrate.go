package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// schemaTarget is the highest migration version shipped with this build.
const schemaTarget = 2

// InspectSchemaVersion returns the schema version recorded in the database,
// or 0 for a fresh database. A database written by a newer build reports a
// version greater than the version this build ships.
func InspectSchemaVersion(db *sql.DB) (uint, error) {
	ok, err := HasTable(db, "schema_migrations")
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	var ver uint
	var dirty bool
	err = db.QueryRow(`SELECT version, dirty FROM schema_migrations LIMIT 1`).Scan(&ver, &dirty)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if dirty {
		return ver, fmt.Errorf("schema version %d is dirty", ver)
	}
	return ver, nil
}

// RunMigrations applies all up migrations embedded in the binary. Migrations
// are additive only. A database already at or ahead of this build's target
// version is left untouched: asking migrate to "downgrade" to an older
// target would fail hard, and newer schemas are kept readable because
// upgrades never drop tables.
func RunMigrations(db *sql.DB) error {
	ver, err := InspectSchemaVersion(db)
	if err != nil {
		return fmt.Errorf("inspect schema: %w", err)
	}
	if ver >= schemaTarget {
		return nil
	}

	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("open migration source: %w", err)
	}
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("open migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return err
	}

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

// Rebuild drops every application table and reapplies the schema from
// scratch. Last-resort recovery for a database that cannot be upgraded; the
// caller is expected to re-pull data from the remote store afterwards.
func Rebuild(db *sql.DB) error {
	drops := []string{
		"DROP TABLE IF EXISTS balance_adjustments",
		"DROP TABLE IF EXISTS sync_state",
		"DROP TABLE IF EXISTS recurring_transactions",
		"DROP TABLE IF EXISTS transactions",
		"DROP TABLE IF EXISTS user_preferences",
		"DROP TABLE IF EXISTS accounts",
		"DROP TABLE IF EXISTS schema_migrations",
	}
	for _, stmt := range drops {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("drop table: %w", err)
		}
	}
	return RunMigrations(db)
}
