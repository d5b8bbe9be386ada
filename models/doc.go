// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - ConnectWalletRequest: passphrase
  - SelectSessionRequest: session_id
  - CastVoteRequest: candidate_index
  - CreateSessionRequest: id, end_date, candidates
  - AddCandidateRequest: name
  - SetEndDateRequest: end_date

# Response Types

Types for JSON responses:

  - CreateVisitResponse: visit_id
  - WalletResponse: connected, address, short_address, status
  - VotingPageResponse: sessions, selection, candidates, vote state
  - AdminPageResponse: session_id, candidates, message
  - TxResponse: tx_hash, message
  - HasVotedResponse: session_id, address, voted
  - ErrorResponse: error, message

# Domain Types

Read-only projections of ledger state:

  - Session: id, end date (Unix seconds), candidate count
  - SessionView: Session plus display fields (ends_at, humanized ends)
  - Candidate: on-chain index, admin ID, name, vote count
  - Tally: maximum vote count and leaders
  - Results: candidates, tally, and summary line for one session

# Constants

Vote submission states:

	VoteIdle       = "idle"
	VoteSubmitting = "submitting"
	VoteAwaiting   = "awaiting_confirmation"
	VoteConfirmed  = "confirmed"
	VoteFailed     = "failed"
*/
package models
