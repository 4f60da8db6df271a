package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // Import the SQLite3 driver
)

// InitDB initializes the database connection. It takes the database path as input.
func InitDB(dbPath string) (*sql.DB, error) {
	// Ensure the directory for the database file exists.
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open the SQLite database. It will be created if it doesn't exist.
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Ping the database to verify the connection.
	if err = db.Ping(); err != nil {
		db.Close() // Close the connection if ping fails
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createPolicyTable(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create channel_topics table: %w", err)
	}

	return db, nil
}

// createPolicyTable creates the 'channel_topics' table if it doesn't exist.
func createPolicyTable(db *sql.DB) error {
	query := `
    CREATE TABLE IF NOT EXISTS channel_topics (
        channel_id TEXT PRIMARY KEY,
        topic TEXT NOT NULL,
        updated_at INTEGER NOT NULL
    );`
	_, err := db.Exec(query)
	return err
}
