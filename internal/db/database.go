package db

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Database owns the sqlite connection and schema.
type Database struct {
	db *sql.DB
}

// NewDatabase opens the sqlite database at the given DSN and ensures the
// schema exists.
func NewDatabase(dsn string) (*Database, error) {
	if dsn == "" {
		return nil, errors.New("database DSN is required")
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("ping failed: %w, close failed: %v", err, closeErr)
		}
		return nil, err
	}

	if err := createTables(db); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("create tables failed: %w, close failed: %v", err, closeErr)
		}
		return nil, err
	}

	return &Database{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS conversations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sender_phone TEXT NOT NULL,
			recipient_phone TEXT NOT NULL,
			bank_id TEXT NOT NULL,
			sim_port TEXT NOT NULL,
			thread_ref TEXT,
			iccid TEXT,
			last_activity INTEGER NOT NULL,
			UNIQUE(sender_phone, recipient_phone)
		);

		CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			conversation_id INTEGER NOT NULL,
			direction TEXT NOT NULL,
			content TEXT NOT NULL,
			sent_by TEXT,
			status TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			FOREIGN KEY(conversation_id) REFERENCES conversations(id)
		);

		CREATE TABLE IF NOT EXISTS blocked_numbers (
			phone TEXT PRIMARY KEY,
			blocked_by TEXT NOT NULL,
			reason TEXT,
			created_at INTEGER NOT NULL
		);
	`)
	return err
}

// GetDB exposes the underlying handle for the repositories.
func (d *Database) GetDB() *sql.DB {
	return d.db
}

// Close closes the database connection.
func (d *Database) Close() error {
	if d == nil || d.db == nil {
		return errors.New("database is nil or already closed")
	}
	err := d.db.Close()
	d.db = nil
	return err
}
