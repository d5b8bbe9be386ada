// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the voteledger API.

# Handler Types

  - SessionsHandler: read-only sessions, candidates and vote status
  - ResultsHandler: tallied results of one session
  - VisitHandler: visit creation, wallet connection, voting page
  - AdminHandler: session and candidate management

# Visits

A visit stands for one open browser tab: a wallet connection and the
state of the voting and admin pages. Visits live in a VisitStore
(go-cache) and expire after sitting idle for the configured TTL:

	store := handlers.NewVisitStore(reader, connector, 30*time.Minute, opts)
	visits := handlers.NewVisitHandler(store)

Requests to the same visit are serialized.

# Errors

Page errors are written with the user-facing message of the page:

	400 invalid input, nothing was sent
	401 wallet not connected
	403 wallet request rejected
	404 unknown session or visit
	409 the ledger reverted the transaction
	502 the ledger could not be reached
	503 no wallet provider installed, or the keystore holds no account
*/
package handlers
