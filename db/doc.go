// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the emulator database and manages its schema.

# Opening

Open accepts "sqlite" (modernc.org/sqlite) or "postgres" (lib/pq):

	conn, err := db.Open(db.TypeSQLite, "file:voteledger.db")

SQLite connections are limited to one open connection so that in-memory
databases are shared by every query.

# Schema Creation

CreateSchema is idempotent (IF NOT EXISTS):

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

# Tables

  - ledger_session: session id, creation order, creator address, end date
  - ledger_candidate: (session_id, idx) -> name, votes; blank name = deleted
  - ledger_vote: one row per (session_id, voter)
  - ledger_tx: emulated transaction log (hash, method, sender, status)

These tables mirror the storage of the voting contract. They are only used
when the server runs against the emulator instead of a chain.
*/
package db
