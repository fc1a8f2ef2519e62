package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

type Database struct {
	db *sql.DB
}

// Open creates the SQLite database at dbPath if needed and applies the schema.
func Open(dbPath string) (*Database, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	d := &Database{db: db}
	if err := d.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return d, nil
}

// IsConnected checks if database connection is alive
func (d *Database) IsConnected(ctx context.Context) bool {
	if d == nil || d.db == nil {
		return false
	}
	return d.db.PingContext(ctx) == nil
}

func (d *Database) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

func (d *Database) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS route_overrides (
		guild_id TEXT NOT NULL,
		category TEXT NOT NULL,
		channel_id TEXT NOT NULL,
		updated_by TEXT DEFAULT '',
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (guild_id, category)
	);

	CREATE TABLE IF NOT EXISTS delivery_failures (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		record_id TEXT NOT NULL,
		guild_id TEXT NOT NULL,
		category TEXT NOT NULL,
		destination TEXT DEFAULT '',
		error TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_delivery_failures_guild ON delivery_failures(guild_id, created_at);
	`

	_, err := d.db.Exec(schema)
	return err
}
