// Package db opens the shared SQLite database for the engine.
//
// Each subsystem (memory, task, drift, graph snapshots) owns its own tables
// and runs its own idempotent migrations against the handle returned here.
// The file lives under the configured data dir; WAL mode keeps concurrent
// agent reads cheap while a writer is active.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Open creates the data directory if needed and opens the engine database
// with the standard pragmas applied. The pragmas ride the DSN so that every
// connection in the pool carries them, not only the one that happens to run
// an Exec; busy_timeout in particular must hold on all connections for
// concurrent writers to queue instead of failing.
func Open(dataDir string) (*sql.DB, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("db: create data dir: %w", err)
	}

	dsn := "file:" + filepath.Join(dataDir, "cortex.db") +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=foreign_keys(ON)"
	conn, err := openDB("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("db: open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("db: open database: %w", err)
	}

	return conn, nil
}

// OpenMemory opens an in-memory database with the same pragmas, for tests.
func OpenMemory() (*sql.DB, error) {
	conn, err := openDB("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("db: open in-memory database: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("db: pragma foreign_keys: %w", err)
	}
	// A single connection keeps the in-memory database alive across calls.
	conn.SetMaxOpenConns(1)
	return conn, nil
}
