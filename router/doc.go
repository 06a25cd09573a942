// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Election Room API.

# Route Registration

NewRouter wires the handlers to a http.ServeMux and wraps it with
recovery, CORS and request metrics:

	h := router.NewRouter(router.Deps{...}, cfg)

# Endpoints

Health and introspection:

	GET /health  - Liveness
	GET /metrics - Prometheus metrics
	GET /ws      - Realtime websocket

Accounts:

	GET  /users                    - Every balance
	GET  /users/{username}/ledger  - Ledger history
	POST /transfer                 - Move coins between users

Elections (operator routes require X-Operator-Key):

	GET   /elections                 - Visible elections
	GET   /elections/all             - Every election (operator)
	GET   /elections/{id}            - One election by id or slug
	POST  /elections                 - Create (operator)
	PATCH /elections/{id}/visibility - Show or hide (operator)

Voting and chat:

	GET  /votes/{electionId}              - Tally and status
	GET  /payouts/{electionId}/{username} - A voter's payout table
	POST /stake                           - Cast a vote
	POST /resolve                         - Force a winner (operator)
	GET  /messages/{electionId}           - Chat history

When no operator key is configured the operator routes are open.
*/
package router
