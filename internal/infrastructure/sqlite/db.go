// Package sqlite provides the SQLite persistence layer for bookforge:
// connection lifecycle, schema migrations, and the session store.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nwestfall/bookforge/internal/infrastructure/migrations"
	"github.com/nwestfall/bookforge/internal/log"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DB manages the SQLite connection for bookforge.
type DB struct {
	conn *sql.DB
	path string
}

// Open opens (creating if needed) the database at path, configures
// pragmas, and applies migrations.
func Open(path string) (*DB, error) {
	log.Debug(log.CatDB, "Opening database", "path", path)

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("applying %s: %w", pragma, err)
		}
	}

	if err := migrations.Run(conn); err != nil {
		_ = conn.Close()
		log.ErrorErr(log.CatDB, "Failed to run migrations", err)
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	log.Info(log.CatDB, "Database initialized", "path", path)
	return &DB{conn: conn, path: path}, nil
}

// Close releases the database connection.
func (db *DB) Close() error {
	if db.conn != nil {
		log.Debug(log.CatDB, "Closing database", "path", db.path)
		return db.conn.Close()
	}
	return nil
}

// SessionStore returns a session store backed by this connection.
func (db *DB) SessionStore() *SessionStore {
	return newSessionStore(db.conn)
}

// Connection exposes the underlying *sql.DB for tests.
func (db *DB) Connection() *sql.DB {
	return db.conn
}
