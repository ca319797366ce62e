// Package store persists the gameplay event log in SQLite. No world state
// is stored: the arena always starts empty.
package store

import (
	"database/sql"
	"fmt"
	"log"

	_ "modernc.org/sqlite"
)

// MemoryDSN keeps the database in process memory
const MemoryDSN = ":memory:"

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// OpenDB opens (or creates) the SQLite database at path
func OpenDB(path string) (*DB, error) {
	if path == "" {
		path = MemoryDSN
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// one connection: an in-memory database exists once per connection
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks the connection
func (db *DB) Ping() error {
	return db.conn.Ping()
}

// migrate creates tables if they don't exist
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS analytics_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type TEXT NOT NULL,
		tick INTEGER NOT NULL DEFAULT 0,
		player_id TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		score INTEGER NOT NULL DEFAULT 0,
		length INTEGER NOT NULL DEFAULT 0,
		cause TEXT NOT NULL DEFAULT '',
		killer_id TEXT,
		killer_name TEXT,
		gain INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_type ON analytics_events(event_type);
	CREATE INDEX IF NOT EXISTS idx_events_created ON analytics_events(created_at);
	`
	if _, err := db.conn.Exec(schema); err != nil {
		log.Printf("DB migration error: %v", err)
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
