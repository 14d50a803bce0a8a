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

// SchemaVersion is the latest migration under migrations/.
const SchemaVersion = 2

//go:embed migrations/*.sql
var schemaFS embed.FS

var ErrDirtySchema = errors.New("database schema is dirty")

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(schemaFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("db.migrate.source: %w", err)
	}
	target, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return nil, fmt.Errorf("db.migrate.target: %w", err)
	}
	return migrate.NewWithInstance("iofs", src, "sqlite3", target)
}

// upgradeSchema brings db to SchemaVersion and returns the version it started from.
func upgradeSchema(db *sql.DB) (from uint, err error) {
	m, err := newMigrator(db)
	if err != nil {
		return 0, err
	}

	from, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		from = 0
	case err != nil:
		return 0, fmt.Errorf("db.migrate.version: %w", err)
	case dirty:
		return from, fmt.Errorf("%w at version %d", ErrDirtySchema, from)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return from, fmt.Errorf("db.migrate.up: %w", err)
	}
	return from, nil
}
