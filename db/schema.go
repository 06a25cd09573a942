// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	// One statement per Exec: lib/pq accepts a batch but not every sqlite
	// driver path does.
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

// The DDL sticks to types and defaults that mean the same thing in sqlite
// and postgres.
var schema = []string{
	// Accounts
	`CREATE TABLE IF NOT EXISTS account (
    username TEXT PRIMARY KEY,
    balance BIGINT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,

	// Elections
	`CREATE TABLE IF NOT EXISTS election (
    id TEXT PRIMARY KEY,
    slug TEXT UNIQUE,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'open' CHECK (status IN ('open', 'closed')),
    winner TEXT,
    vote_threshold BIGINT NOT NULL CHECK (vote_threshold > 0),
    entry_bonus BIGINT NOT NULL CHECK (entry_bonus >= 0),
    vote_cost BIGINT NOT NULL CHECK (vote_cost >= 0),
    is_visible BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    starts_at TIMESTAMP,
    ends_at TIMESTAMP,
    closed_at TIMESTAMP
)`,
	`CREATE INDEX IF NOT EXISTS idx_election_status ON election(status)`,

	// Candidates carry the tally
	`CREATE TABLE IF NOT EXISTS candidate (
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    votes BIGINT NOT NULL DEFAULT 0,
    PRIMARY KEY (election_id, name),
    UNIQUE (election_id, position)
)`,

	// Participation
	`CREATE TABLE IF NOT EXISTS participation (
    id TEXT PRIMARY KEY,
    username TEXT NOT NULL,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    has_joined BOOLEAN NOT NULL DEFAULT FALSE,
    has_received_bonus BOOLEAN NOT NULL DEFAULT FALSE,
    has_voted BOOLEAN NOT NULL DEFAULT FALSE,
    joined_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (username, election_id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_participation_election ON participation(election_id)`,

	`CREATE TABLE IF NOT EXISTS participation_payout (
    participation_id TEXT NOT NULL REFERENCES participation(id) ON DELETE CASCADE,
    candidate TEXT NOT NULL,
    amount BIGINT NOT NULL,
    PRIMARY KEY (participation_id, candidate)
)`,

	// Stakes (vote audit trail)
	`CREATE TABLE IF NOT EXISTS stake (
    id TEXT PRIMARY KEY,
    username TEXT NOT NULL,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    candidate TEXT NOT NULL,
    amount BIGINT NOT NULL,
    balance_change BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE INDEX IF NOT EXISTS idx_stake_election ON stake(election_id)`,

	// Chat
	`CREATE TABLE IF NOT EXISTS message (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    username TEXT NOT NULL,
    body TEXT NOT NULL,
    sent_at TIMESTAMP NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_message_election_sent ON message(election_id, sent_at)`,

	// Ledger audit
	`CREATE TABLE IF NOT EXISTS ledger_entry (
    id TEXT PRIMARY KEY,
    username TEXT NOT NULL,
    kind TEXT NOT NULL,
    amount BIGINT NOT NULL,
    balance_after BIGINT NOT NULL,
    election_id TEXT,
    created_at TIMESTAMP NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_entry_username ON ledger_entry(username, created_at)`,
}
