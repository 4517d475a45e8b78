package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection keeps :memory: databases and per-connection pragmas consistent.
	db.SetMaxOpenConns(1)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return &DB{db}, nil
}

// RunMigrations creates the schema if it does not exist yet.
func (db *DB) RunMigrations() error {
	migration := `
-- Local sheet backend: one registered sheet per tab
CREATE TABLE IF NOT EXISTS sheets (
    name TEXT PRIMARY KEY,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Sheet rows, cells stored as a JSON array of strings
CREATE TABLE IF NOT EXISTS sheet_rows (
    sheet TEXT NOT NULL,
    row_num INTEGER NOT NULL,
    cells TEXT NOT NULL,
    PRIMARY KEY (sheet, row_num),
    FOREIGN KEY (sheet) REFERENCES sheets(name)
);

-- Last known good read per sheet, served when the remote store is down
CREATE TABLE IF NOT EXISTS snapshots (
    sheet TEXT PRIMARY KEY,
    cells TEXT NOT NULL,
    saved_at TIMESTAMP NOT NULL
);

-- Activity log
CREATE TABLE IF NOT EXISTS activity_log (
    id TEXT PRIMARY KEY,
    activity_type TEXT NOT NULL,
    subject TEXT,
    summary TEXT NOT NULL,
    details TEXT,
    actor TEXT,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_activity_subject ON activity_log(subject);
CREATE INDEX IF NOT EXISTS idx_activity_created_at ON activity_log(created_at);

-- API keys for authentication
CREATE TABLE IF NOT EXISTS api_keys (
    key_hash TEXT PRIMARY KEY,
    operator TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    last_used TIMESTAMP,
    description TEXT
);
CREATE INDEX IF NOT EXISTS idx_operator_keys ON api_keys(operator);
`

	_, err := db.Exec(migration)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
