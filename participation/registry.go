// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package participation

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"maps"
	"math/rand/v2"
	"time"

	"github.com/danielhkuo/election-room/apperr"
	"github.com/danielhkuo/election-room/auth"
	"github.com/danielhkuo/election-room/db"
	"github.com/danielhkuo/election-room/keylock"
	"github.com/danielhkuo/election-room/ledger"
	"github.com/danielhkuo/election-room/models"
	"github.com/danielhkuo/election-room/payout"
)

var (
	ErrElectionNotFound = apperr.New(apperr.NotFound, "Election not found")
	ErrAlreadyVoted     = apperr.New(apperr.InvalidState, "You have already voted in this election")
)

// Registry tracks who joined which election, their one-time bonus and
// vote flags, and the payout table generated for them on first join.
//
// Tx methods assume the caller holds the election lock and then the user
// lock for the record. The other methods take both themselves, in that
// order, so they serialize with votes and resolutions on the same
// election.
type Registry struct {
	db        *sql.DB
	ledger    *ledger.Ledger
	elections *keylock.Set
	jitter    bool
}

// New creates a registry. elections is the per-election lock set shared
// with the election service. With jitter false payout tables are a pure
// function of username and ballot.
func New(conn *sql.DB, l *ledger.Ledger, elections *keylock.Set, jitter bool) *Registry {
	return &Registry{db: conn, ledger: l, elections: elections, jitter: jitter}
}

// ElectionLocks returns the per-election lock set.
func (r *Registry) ElectionLocks() *keylock.Set {
	return r.elections
}

// lock takes the election lock, then the user lock.
func (r *Registry) lock(electionID, username string) func() {
	unlockElection := r.elections.Lock(electionID)
	unlockUser := r.ledger.Locks().Lock(username)
	return func() {
		unlockUser()
		unlockElection()
	}
}

func (r *Registry) rng() *rand.Rand {
	if !r.jitter {
		return nil
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// GetOrCreateRecord loads the participation for (username, election),
// creating it with a freshly generated payout table on first call.
func (r *Registry) GetOrCreateRecord(ctx context.Context, username string, election *models.Election) (models.Participation, error) {
	if election == nil {
		return models.Participation{}, ErrElectionNotFound
	}
	unlock := r.lock(election.ID, username)
	defer unlock()

	var rec models.Participation
	err := db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		rec, _, err = r.GetOrCreateRecordTx(ctx, tx, username, election)
		return err
	})
	return rec, err
}

// GetOrCreateRecordTx is GetOrCreateRecord on the caller's transaction.
// created reports whether the record was inserted by this call.
func (r *Registry) GetOrCreateRecordTx(ctx context.Context, q db.Querier, username string, election *models.Election) (rec models.Participation, created bool, err error) {
	if election == nil {
		return models.Participation{}, false, ErrElectionNotFound
	}

	var exists bool
	err = q.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM election WHERE id = $1)
	`, election.ID).Scan(&exists)
	if err != nil {
		return models.Participation{}, false, fmt.Errorf("check election: %w", err)
	}
	if !exists {
		return models.Participation{}, false, ErrElectionNotFound
	}

	rec, err = r.loadTx(ctx, q, username, election.ID)
	if err == nil {
		return rec, false, nil
	}
	if err != sql.ErrNoRows {
		return models.Participation{}, false, err
	}

	rec = models.Participation{
		ID:         auth.NewID(),
		Username:   username,
		ElectionID: election.ID,
		HasJoined:  true,
		Payouts:    payout.Generate(election.Candidates, payout.DeriveUserIndex(username), r.rng()),
		JoinedAt:   time.Now().UTC(),
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO participation (id, username, election_id, has_joined, has_received_bonus, has_voted, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, rec.ID, rec.Username, rec.ElectionID, true, false, false, rec.JoinedAt)
	if err != nil {
		return models.Participation{}, false, fmt.Errorf("insert participation: %w", err)
	}

	for _, candidate := range election.Candidates {
		_, err = q.ExecContext(ctx, `
			INSERT INTO participation_payout (participation_id, candidate, amount)
			VALUES ($1, $2, $3)
		`, rec.ID, candidate, rec.Payouts[candidate])
		if err != nil {
			return models.Participation{}, false, fmt.Errorf("insert payout: %w", err)
		}
	}

	slog.Info("participation created", "election_id", rec.ElectionID, "username", username)
	return rec, true, nil
}

// Find returns the participation if it exists. ok is false when the user
// never joined.
func (r *Registry) Find(ctx context.Context, username, electionID string) (rec models.Participation, ok bool, err error) {
	rec, err = r.loadTx(ctx, r.db, username, electionID)
	if err == sql.ErrNoRows {
		return models.Participation{}, false, nil
	}
	if err != nil {
		return models.Participation{}, false, err
	}
	return rec, true, nil
}

// loadTx returns sql.ErrNoRows unwrapped when there is no record.
func (r *Registry) loadTx(ctx context.Context, q db.Querier, username, electionID string) (models.Participation, error) {
	var rec models.Participation
	err := q.QueryRowContext(ctx, `
		SELECT id, username, election_id, has_joined, has_received_bonus, has_voted, joined_at
		FROM participation
		WHERE username = $1 AND election_id = $2
	`, username, electionID).Scan(
		&rec.ID, &rec.Username, &rec.ElectionID, &rec.HasJoined,
		&rec.HasReceivedBonus, &rec.HasVoted, &rec.JoinedAt,
	)
	if err == sql.ErrNoRows {
		return models.Participation{}, err
	}
	if err != nil {
		return models.Participation{}, fmt.Errorf("query participation: %w", err)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT candidate, amount FROM participation_payout WHERE participation_id = $1
	`, rec.ID)
	if err != nil {
		return models.Participation{}, fmt.Errorf("query payouts: %w", err)
	}
	defer rows.Close()

	rec.Payouts = make(map[string]int64)
	for rows.Next() {
		var candidate string
		var amount int64
		if err := rows.Scan(&candidate, &amount); err != nil {
			return models.Participation{}, fmt.Errorf("scan payout: %w", err)
		}
		rec.Payouts[candidate] = amount
	}
	return rec, rows.Err()
}

// GrantEntryBonusIfNeeded credits the election's entry bonus exactly once
// per record. It reports whether this call made the grant.
func (r *Registry) GrantEntryBonusIfNeeded(ctx context.Context, rec *models.Participation, bonus int64) (bool, error) {
	unlock := r.lock(rec.ElectionID, rec.Username)
	defer unlock()

	var granted bool
	err := db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		granted, err = r.GrantEntryBonusIfNeededTx(ctx, tx, rec, bonus)
		return err
	})
	if err != nil {
		return false, err
	}
	return granted, nil
}

// GrantEntryBonusIfNeededTx flips has_received_bonus and credits the
// account in the same transaction.
func (r *Registry) GrantEntryBonusIfNeededTx(ctx context.Context, q db.Querier, rec *models.Participation, bonus int64) (bool, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE participation SET has_received_bonus = TRUE
		WHERE id = $1 AND has_joined = TRUE AND has_received_bonus = FALSE
	`, rec.ID)
	if err != nil {
		return false, fmt.Errorf("flag bonus: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("flag bonus: %w", err)
	}
	if n == 0 {
		rec.HasReceivedBonus = true
		return false, nil
	}

	if bonus != 0 {
		if _, err := r.ledger.CreditTx(ctx, q, rec.Username, bonus, models.EntryBonus, rec.ElectionID); err != nil {
			return false, err
		}
	}

	rec.HasReceivedBonus = true
	slog.Info("entry bonus granted", "election_id", rec.ElectionID, "username", rec.Username, "bonus", bonus)
	return true, nil
}

// MarkVoted flips has_voted, failing with ErrAlreadyVoted if it was set.
func (r *Registry) MarkVoted(ctx context.Context, rec *models.Participation) error {
	unlock := r.lock(rec.ElectionID, rec.Username)
	defer unlock()

	return db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		return r.MarkVotedTx(ctx, tx, rec)
	})
}

func (r *Registry) MarkVotedTx(ctx context.Context, q db.Querier, rec *models.Participation) error {
	res, err := q.ExecContext(ctx, `
		UPDATE participation SET has_voted = TRUE
		WHERE id = $1 AND has_voted = FALSE
	`, rec.ID)
	if err != nil {
		return fmt.Errorf("flag vote: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("flag vote: %w", err)
	}
	if n == 0 {
		rec.HasVoted = true
		return ErrAlreadyVoted
	}
	rec.HasVoted = true
	return nil
}

// PayoutsFor returns a copy of the record's payout table.
func PayoutsFor(rec models.Participation) map[string]int64 {
	return maps.Clone(rec.Payouts)
}

// Due is what one voter receives when an election resolves.
type Due struct {
	Username string
	Amount   int64
}

// Voters lists the usernames that voted in an election, sorted.
func (r *Registry) Voters(ctx context.Context, q db.Querier, electionID string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT username FROM participation
		WHERE election_id = $1 AND has_voted = TRUE
		ORDER BY username
	`, electionID)
	if err != nil {
		return nil, fmt.Errorf("query voters: %w", err)
	}
	defer rows.Close()

	var voters []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan voter: %w", err)
		}
		voters = append(voters, u)
	}
	return voters, rows.Err()
}

// WinnerPayoutsTx lists every voter with their payout for winner. A voter
// whose table lacks the winner is owed 0.
func (r *Registry) WinnerPayoutsTx(ctx context.Context, q db.Querier, electionID, winner string) ([]Due, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT p.username, COALESCE(pp.amount, 0)
		FROM participation p
		LEFT JOIN participation_payout pp
		       ON pp.participation_id = p.id AND pp.candidate = $1
		WHERE p.election_id = $2 AND p.has_voted = TRUE
		ORDER BY p.username
	`, winner, electionID)
	if err != nil {
		return nil, fmt.Errorf("query payouts due: %w", err)
	}
	defer rows.Close()

	var dues []Due
	for rows.Next() {
		var d Due
		if err := rows.Scan(&d.Username, &d.Amount); err != nil {
			return nil, fmt.Errorf("scan payout due: %w", err)
		}
		dues = append(dues, d)
	}
	return dues, rows.Err()
}

// Count returns how many users have joined an election.
func (r *Registry) Count(ctx context.Context, electionID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM participation WHERE election_id = $1 AND has_joined = TRUE
	`, electionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count participants: %w", err)
	}
	return n, nil
}
