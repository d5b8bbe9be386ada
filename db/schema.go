// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported database types
const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

// Open opens a database of the given type and verifies the connection.
func Open(dbType, url string) (*sql.DB, error) {
	var driver string
	switch dbType {
	case TypeSQLite:
		driver = "sqlite"
	case TypePostgres:
		driver = "postgres"
	default:
		return nil, fmt.Errorf("unsupported database type %q", dbType)
	}

	conn, err := sql.Open(driver, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dbType, err)
	}

	// An in-process SQLite database is private to its connection.
	if dbType == TypeSQLite {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return conn, nil
}

// CreateSchema creates all tables needed by the ledger emulator.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Timestamps are Unix seconds so the schema reads the same on both drivers.
const schema = `
-- Sessions
CREATE TABLE IF NOT EXISTS ledger_session (
    id TEXT PRIMARY KEY,
    seq BIGINT NOT NULL,
    creator TEXT NOT NULL,
    end_date BIGINT NOT NULL,
    created_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ledger_session_seq ON ledger_session(seq);

-- Candidates (deleted candidates keep their row with a blank name)
CREATE TABLE IF NOT EXISTS ledger_candidate (
    session_id TEXT NOT NULL REFERENCES ledger_session(id) ON DELETE CASCADE,
    idx INTEGER NOT NULL,
    name TEXT NOT NULL,
    votes BIGINT NOT NULL DEFAULT 0,
    PRIMARY KEY (session_id, idx)
);

-- Votes (one per address per session)
CREATE TABLE IF NOT EXISTS ledger_vote (
    session_id TEXT NOT NULL REFERENCES ledger_session(id) ON DELETE CASCADE,
    voter TEXT NOT NULL,
    candidate_idx INTEGER NOT NULL,
    tx_hash TEXT NOT NULL,
    PRIMARY KEY (session_id, voter)
);

-- Emulated transactions
CREATE TABLE IF NOT EXISTS ledger_tx (
    hash TEXT PRIMARY KEY,
    method TEXT NOT NULL,
    sender TEXT NOT NULL,
    status TEXT NOT NULL CHECK (status IN ('confirmed', 'reverted')),
    reason TEXT NOT NULL DEFAULT '',
    submitted_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ledger_tx_sender ON ledger_tx(sender);
`
