// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielhkuo/election-room/auth"
	"github.com/danielhkuo/election-room/models"
)

type seedElection struct {
	slug       string
	title      string
	candidates []string
	threshold  int64
}

var seedUsers = []string{"Alice", "Bob", "Charlie"}

var seedElections = []seedElection{
	{slug: "1", title: "Presidential Election", candidates: []string{"Gerry", "Alex"}, threshold: 10},
	{slug: "2", title: "Local Council Election", candidates: []string{"Sarah", "John", "Mary"}, threshold: 15},
}

// Seed inserts the demo users and elections. Existing rows (matched by
// username or legacy slug) are left untouched.
func Seed(ctx context.Context, conn *sql.DB, startingBalance int64) error {
	return WithTx(ctx, conn, func(tx *sql.Tx) error {
		now := time.Now().UTC()

		for _, username := range seedUsers {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO account (username, balance, created_at)
				VALUES ($1, $2, $3)
				ON CONFLICT (username) DO NOTHING
			`, username, startingBalance, now)
			if err != nil {
				return fmt.Errorf("seed account %s: %w", username, err)
			}
		}

		for _, e := range seedElections {
			var exists bool
			err := tx.QueryRowContext(ctx, `
				SELECT EXISTS(SELECT 1 FROM election WHERE slug = $1)
			`, e.slug).Scan(&exists)
			if err != nil {
				return fmt.Errorf("seed election %s: %w", e.slug, err)
			}
			if exists {
				continue
			}

			id := auth.NewID()
			_, err = tx.ExecContext(ctx, `
				INSERT INTO election (id, slug, title, description, status, vote_threshold,
				                      entry_bonus, vote_cost, is_visible, created_at)
				VALUES ($1, $2, $3, '', $4, $5, $6, $7, $8, $9)
			`, id, e.slug, e.title, models.StatusOpen, e.threshold,
				models.DefaultEntryBonus, models.DefaultVoteCost, true, now)
			if err != nil {
				return fmt.Errorf("seed election %s: %w", e.slug, err)
			}

			for pos, name := range e.candidates {
				_, err = tx.ExecContext(ctx, `
					INSERT INTO candidate (election_id, position, name, votes)
					VALUES ($1, $2, $3, 0)
				`, id, pos, name)
				if err != nil {
					return fmt.Errorf("seed candidate %s: %w", name, err)
				}
			}

			slog.Info("seeded election", "election_id", id, "slug", e.slug, "title", e.title)
		}

		return nil
	})
}
