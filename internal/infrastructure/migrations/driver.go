package migrations

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/golang-migrate/migrate/v4/database"
)

// migrationsTable is the default tracking table name.
const migrationsTable = "schema_migrations"

// ErrNilConfig indicates no config was provided to WithInstance.
var ErrNilConfig = errors.New("no config")

// Config holds configuration for the sqlite migration driver.
type Config struct {
	MigrationsTable string
}

// Driver is a golang-migrate database.Driver for connections opened with
// ncruces/go-sqlite3. It deliberately avoids importing mattn/go-sqlite3.
type Driver struct {
	db       *sql.DB
	isLocked atomic.Bool
	config   *Config
}

// WithInstance wraps an existing sql.DB connection in a migration driver.
func WithInstance(instance *sql.DB, config *Config) (database.Driver, error) {
	if config == nil {
		return nil, ErrNilConfig
	}
	if err := instance.Ping(); err != nil {
		return nil, err
	}
	if config.MigrationsTable == "" {
		config.MigrationsTable = migrationsTable
	}

	d := &Driver{db: instance, config: config}
	if err := d.ensureVersionTable(); err != nil {
		return nil, err
	}
	return d, nil
}

// ensureVersionTable creates the tracking table if it doesn't exist.
func (d *Driver) ensureVersionTable() (err error) {
	if err = d.Lock(); err != nil {
		return err
	}
	defer func() {
		if e := d.Unlock(); e != nil {
			err = errors.Join(err, e)
		}
	}()

	query := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (version uint64, dirty bool);
	CREATE UNIQUE INDEX IF NOT EXISTS version_unique ON %s (version);
	`, d.config.MigrationsTable, d.config.MigrationsTable)

	_, err = d.db.Exec(query)
	return err
}

// Open is not supported; connections are injected via WithInstance.
func (d *Driver) Open(_ string) (database.Driver, error) {
	return nil, errors.New("Open not supported; use WithInstance with an ncruces connection")
}

// Close closes the database connection.
func (d *Driver) Close() error {
	return d.db.Close()
}

// Lock acquires the in-memory migration lock.
func (d *Driver) Lock() error {
	if !d.isLocked.CompareAndSwap(false, true) {
		return database.ErrLocked
	}
	return nil
}

// Unlock releases the in-memory migration lock.
func (d *Driver) Unlock() error {
	if !d.isLocked.CompareAndSwap(true, false) {
		return database.ErrNotLocked
	}
	return nil
}

// Run executes one migration inside a transaction.
func (d *Driver) Run(migration io.Reader) error {
	raw, err := io.ReadAll(migration)
	if err != nil {
		return err
	}
	return d.execTx(string(raw))
}

func (d *Driver) execTx(query string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return &database.Error{OrigErr: err, Err: "transaction start failed"}
	}
	if _, err := tx.Exec(query); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			err = errors.Join(err, rbErr)
		}
		return &database.Error{OrigErr: err, Query: []byte(query)}
	}
	if err := tx.Commit(); err != nil {
		return &database.Error{OrigErr: err, Err: "transaction commit failed"}
	}
	return nil
}

// SetVersion records the current migration version.
func (d *Driver) SetVersion(version int, dirty bool) error {
	tx, err := d.db.Begin()
	if err != nil {
		return &database.Error{OrigErr: err, Err: "transaction start failed"}
	}

	query := "DELETE FROM " + d.config.MigrationsTable //nolint:gosec // table name comes from trusted config
	if _, err := tx.Exec(query); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			err = errors.Join(err, rbErr)
		}
		return &database.Error{OrigErr: err, Query: []byte(query)}
	}

	// A dirty nil version is still recorded so a failed down migration on
	// the first migration leaves a traceable state.
	if version >= 0 || (version == database.NilVersion && dirty) {
		query := fmt.Sprintf(`INSERT INTO %s (version, dirty) VALUES (?, ?)`, d.config.MigrationsTable) //nolint:gosec // table name comes from trusted config
		if _, err := tx.Exec(query, version, dirty); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = errors.Join(err, rbErr)
			}
			return &database.Error{OrigErr: err, Query: []byte(query)}
		}
	}

	if err := tx.Commit(); err != nil {
		return &database.Error{OrigErr: err, Err: "transaction commit failed"}
	}
	return nil
}

// Version returns the current migration version.
func (d *Driver) Version() (version int, dirty bool, err error) {
	query := "SELECT version, dirty FROM " + d.config.MigrationsTable + " LIMIT 1"
	if err := d.db.QueryRow(query).Scan(&version, &dirty); err != nil {
		return database.NilVersion, false, nil
	}
	return version, dirty, nil
}

// Drop removes every table in the database.
func (d *Driver) Drop() (err error) {
	query := `SELECT name FROM sqlite_master WHERE type = 'table';`
	rows, err := d.db.Query(query)
	if err != nil {
		return &database.Error{OrigErr: err, Query: []byte(query)}
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		if name != "" {
			tables = append(tables, name)
		}
	}
	if err := rows.Err(); err != nil {
		return &database.Error{OrigErr: err, Query: []byte(query)}
	}

	for _, table := range tables {
		if err := d.execTx("DROP TABLE " + table); err != nil {
			return err
		}
	}
	if len(tables) > 0 {
		if _, err := d.db.Exec("VACUUM"); err != nil {
			return &database.Error{OrigErr: err, Query: []byte("VACUUM")}
		}
	}
	return nil
}
