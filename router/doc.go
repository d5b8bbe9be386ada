// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the voteledger API.

# Route Registration

	mux := router.NewRouter(reader, connector, cfg)

# Endpoints

Health:

	GET /health

Ledger reads (public, no wallet):

	GET /sessions                       - Active sessions (?expand=candidates)
	GET /sessions/{id}                  - One session
	GET /sessions/{id}/candidates       - Candidates with vote counts
	GET /sessions/{id}/voters/{address} - Whether address has voted
	GET /results?session={id}           - Tallied results

Visits (one wallet connection plus voting and admin page state):

	POST /visits                            - Start a visit
	GET  /visits/{visit}/wallet             - Wallet status
	POST /visits/{visit}/wallet             - Connect wallet
	GET  /visits/{visit}/vote?session={id}  - Voting page
	POST /visits/{visit}/vote/session       - Select session
	POST /visits/{visit}/vote               - Cast vote

Admin (writes are authorized by the ledger):

	GET    /visits/{visit}/admin                 - Admin page
	POST   /visits/{visit}/admin/session         - Manage a session
	POST   /visits/{visit}/admin/sessions        - Create session
	DELETE /visits/{visit}/admin/sessions/{id}   - Delete session
	POST   /visits/{visit}/admin/candidates      - Add candidate
	DELETE /visits/{visit}/admin/candidates/{id} - Delete candidate
	PUT    /visits/{visit}/admin/end-date        - Change end date

All routes except health and root are wrapped with middleware.WithLogging.
*/
package router
