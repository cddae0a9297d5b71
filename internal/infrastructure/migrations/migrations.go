// Package migrations manages the bookforge database schema.
//
// Schema files are embedded and applied with golang-migrate. A custom
// driver is required because the stock golang-migrate sqlite3 driver
// imports mattn/go-sqlite3, which collides with the CGO-free ncruces
// driver over the "sqlite3" registration name. The driver here speaks to
// any sql.DB opened via ncruces/go-sqlite3.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed *.sql
var schemaFS embed.FS

// SchemaFS exposes the embedded migration files for tests.
func SchemaFS() fs.FS {
	return schemaFS
}

// Run applies all pending migrations to db. A fully migrated database is
// not an error.
func Run(db *sql.DB) error {
	source, err := iofs.New(schemaFS, ".")
	if err != nil {
		return err
	}

	driver, err := WithInstance(db, &Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
