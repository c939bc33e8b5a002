// Package db keeps a local SQLite history of submitted bills.
package db

import "context"

// Schema defines the SQL statements to create database tables.
const Schema = `
-- One row per bill sent to the store, keyed by the store id
CREATE TABLE IF NOT EXISTS submissions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    bill_id TEXT NOT NULL UNIQUE,      -- storage key returned by the upload
    email TEXT NOT NULL,
    expense_type TEXT NOT NULL,
    name TEXT NOT NULL,
    bill_date TEXT NOT NULL,           -- YYYY-MM-DD
    amount INTEGER NOT NULL,
    vat INTEGER NOT NULL,
    pct INTEGER NOT NULL,
    file_name TEXT NOT NULL,
    file_url TEXT NOT NULL,
    status TEXT NOT NULL,
    submitted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_submissions_date
    ON submissions(bill_date);

CREATE INDEX IF NOT EXISTS idx_submissions_type
    ON submissions(expense_type);

-- Key-value metadata (last list, last error, ...)
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// InitializeSchema creates all tables if they don't exist.
func InitializeSchema(ctx context.Context, conn *Connection) error {
	_, err := conn.ExecContext(ctx, Schema)
	return err
}
