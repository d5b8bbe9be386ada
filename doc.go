// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the voteledger command.

voteledger is the front end of a voting contract on a public ledger.
Sessions, candidates and vote counts live on the ledger; this program
reads them, casts votes through a connected wallet and manages sessions
for their creator.

# Starting the Server

Against the deployed contract (reads only, no wallet):

	voteledger serve

With a signing wallet and a local emulated ledger:

	WALLET_KEY=... voteledger serve --backend sqlite -d file:dev.db

# Commands

	serve           HTTP front-end server
	sessions        list active sessions (--candidates, --json)
	results         tally a session (--session)
	vote            cast a vote (--session, --candidate)
	admin ...       create-session, delete-session, add-candidate,
	                delete-candidate, set-end-date
	version         print version information

# Configuration

Settings come from flags, then environment variables, then an optional
TOML file (-c), then defaults. A .env file in the working directory is
loaded first. See package cliparse.

# Architecture

  - ledger: contract client interfaces and the go-ethereum client
  - ledger/sqlledger: contract emulator on SQLite or PostgreSQL
  - wallet: key and keystore providers, per-visit wallet sessions
  - controller: voting, results and admin pages
  - tally: winner and tie computation
  - handlers, router, middleware: HTTP surface
  - models: request, response and domain types
  - db: emulator schema
  - cliparse: configuration parsing

See package documentation for each component.
*/
package main
