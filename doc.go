// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Election Room API server.

Election Room runs small live elections with a play-money economy. Users
join an election's room, receive an entry bonus, pay to cast one vote and
are paid out from a personal payout table when their pick reaches the
vote threshold. Balances, tallies, chat and resolutions are pushed to
connected clients over a websocket.

# Starting the Server

With no configuration the server uses a local SQLite file:

	go run .

Or with flags:

	go run . -p 3001 -t postgres -d "postgres://..." -seed

# Configuration

Flags override environment variables, which may come from a .env file:

  - PORT (-p): Server port (default: 3001)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - DATABASE_URL (-d): Connection string, required for postgres
  - STARTING_BALANCE (--starting-balance): Balance of new accounts (default: 1000)
  - OPERATOR_KEY (--operator-key): Key for operator routes; unset leaves them open
  - ALLOWED_ORIGIN (--origin): CORS and websocket origin (default: *)
  - SEED (--seed): Insert demo users and elections

# Architecture

  - handlers: HTTP request handlers (users, elections, voting, messages)
  - realtime: Websocket hub and event gateway
  - election: Election lifecycle, voting and resolution
  - participation: Per-user participation records and payout tables
  - ledger: Account balances and the ledger journal
  - chat: Room chat and system announcements
  - payout: Payout table generation
  - keylock: Per-key mutexes that serialize work on one user or election
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, recovery, operator auth, JSON helpers
  - metrics: Prometheus collectors
  - models: Request/response and event types
  - auth: IDs and operator key checks
  - apperr: Error kinds and their HTTP mapping
  - db: Connection, schema and seed data
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
