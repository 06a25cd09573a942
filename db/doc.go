// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the record store, creates the schema and seeds demo data.

# Drivers

Open selects the driver from the configuration:

  - sqlite (default): modernc.org/sqlite, pure Go, single connection
  - postgres: github.com/lib/pq

For example:

	conn, err := db.Open(ctx, cfg)

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(ctx, conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - account: username and balance (single source of truth for money)
  - election: lifecycle, tuning, visibility, legacy slug
  - candidate: ordered ballot plus the live vote tally
  - participation: per user per election join/bonus/vote flags
  - participation_payout: the personalized payout table
  - stake: append-only vote audit, balance_change filled at resolution
  - message: room chat, ordered by sent_at
  - ledger_entry: audit of every debit and credit

# Relationships

	election 1──* candidate
	election 1──* participation 1──* participation_payout
	election 1──* stake
	election 1──* message

# Transactions

Store code accepts a Querier so it runs the same on *sql.DB and *sql.Tx.
WithTx wraps begin/rollback/commit:

	err := db.WithTx(ctx, conn, func(tx *sql.Tx) error { ... })

# Seed Data

Seed inserts Alice, Bob and Charlie plus two elections addressed by legacy
slugs "1" and "2". Existing rows are left alone.
*/
package db
