// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/danielhkuo/election-room/auth"
	"github.com/danielhkuo/election-room/db"
	"github.com/danielhkuo/election-room/ledger"
	"github.com/danielhkuo/election-room/metrics"
	"github.com/danielhkuo/election-room/models"
)

// JoinResult is the state a session needs after entering an election.
type JoinResult struct {
	Election      *models.Election
	Participation models.Participation
	Balance       int64
	BonusGranted  bool
}

// VoteResult describes an accepted vote. Winner and Results are set only
// when the vote closed the election.
type VoteResult struct {
	Election *models.Election
	Balance  int64
	Winner   *string
	Results  []models.PayoutResult
}

// ResolveResult describes a resolution. AlreadyResolved means the election
// was closed before the call and nothing was paid.
type ResolveResult struct {
	Election        *models.Election
	Winner          string
	AlreadyResolved bool
	Results         []models.PayoutResult
}

func normalizeUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", ledger.ErrUsernameRequired
	}
	return username, nil
}

// Join enters username into an election: the account and participation
// are created if needed, and the entry bonus is paid once while the
// election is open.
func (s *Service) Join(ctx context.Context, ref, username string) (JoinResult, error) {
	return s.join(ctx, ref, username, true)
}

// Enroll is Join without the entry bonus. It backs the payout lookup,
// which must hand out a payout table without paying anything.
func (s *Service) Enroll(ctx context.Context, ref, username string) (JoinResult, error) {
	return s.join(ctx, ref, username, false)
}

func (s *Service) join(ctx context.Context, ref, username string, withBonus bool) (JoinResult, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return JoinResult{}, err
	}
	e, err := s.Get(ctx, ref)
	if err != nil {
		return JoinResult{}, err
	}

	unlockElection := s.elections.Lock(e.ID)
	defer unlockElection()
	unlockUser := s.ledger.Locks().Lock(username)
	defer unlockUser()

	var res JoinResult
	err = db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		// Reload under the lock so the open check sees any resolution that
		// finished while we waited.
		e, err := s.load(ctx, tx, e.ID)
		if err != nil {
			return err
		}
		res.Election = e

		if _, err := s.ledger.EnsureTx(ctx, tx, username); err != nil {
			return err
		}
		rec, _, err := s.registry.GetOrCreateRecordTx(ctx, tx, username, e)
		if err != nil {
			return err
		}

		if withBonus && e.Status == models.StatusOpen {
			res.BonusGranted, err = s.registry.GrantEntryBonusIfNeededTx(ctx, tx, &rec, e.EntryBonus)
			if err != nil {
				return err
			}
		}
		res.Participation = rec

		acct, err := s.ledger.EnsureTx(ctx, tx, username)
		if err != nil {
			return err
		}
		res.Balance = acct.Balance
		return nil
	})
	if err != nil {
		return JoinResult{}, err
	}

	if res.BonusGranted {
		s.metrics.Bonus()
	}
	return res, nil
}

// EvaluateWinCondition returns the first candidate, in ballot order, whose
// tally has reached the threshold, or "" if none has.
func EvaluateWinCondition(e *models.Election) string {
	for _, c := range e.Candidates {
		if e.Votes[c] >= e.VoteThreshold {
			return c
		}
	}
	return ""
}

func checkVotable(e *models.Election, candidate string) error {
	if e.Status != models.StatusOpen {
		return ErrClosed
	}
	if !e.IsVisible {
		return ErrNotVisible
	}
	if !e.HasCandidate(candidate) {
		return ErrUnknownCandidate
	}
	return nil
}

// CastVote charges the election's vote cost, records the vote and, if the
// vote reaches the threshold, resolves the election. Either all of it
// happens or none of it does.
func (s *Service) CastVote(ctx context.Context, ref, username, candidate string) (VoteResult, error) {
	res, err := s.castVote(ctx, ref, username, candidate)
	if err != nil {
		s.metrics.Vote(metrics.VoteRejected)
		return VoteResult{}, err
	}
	s.metrics.Vote(metrics.VoteAccepted)
	if res.Winner != nil {
		s.recordResolution(metrics.TriggerThreshold, res.Results)
	}
	return res, nil
}

func (s *Service) castVote(ctx context.Context, ref, username, candidate string) (VoteResult, error) {
	username, err := normalizeUsername(username)
	if err != nil {
		return VoteResult{}, err
	}
	candidate = strings.TrimSpace(candidate)

	e, err := s.Get(ctx, ref)
	if err != nil {
		return VoteResult{}, err
	}

	unlockElection := s.elections.Lock(e.ID)
	defer unlockElection()

	// Nothing else can change the tally now. Work out whether this vote
	// closes the election so every payee's lock is taken up front.
	e, err = s.load(ctx, s.db, e.ID)
	if err != nil {
		return VoteResult{}, err
	}
	if err := checkVotable(e, candidate); err != nil {
		return VoteResult{}, err
	}

	users := []string{username}
	projected := *e
	projected.Votes = map[string]int64{candidate: e.Votes[candidate] + 1}
	for c, n := range e.Votes {
		if c != candidate {
			projected.Votes[c] = n
		}
	}
	if EvaluateWinCondition(&projected) != "" {
		voters, err := s.registry.Voters(ctx, s.db, e.ID)
		if err != nil {
			return VoteResult{}, err
		}
		users = append(users, voters...)
	}

	unlockUsers := s.ledger.Locks().Lock(users...)
	defer unlockUsers()

	var res VoteResult
	err = db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		rec, _, err := s.registry.GetOrCreateRecordTx(ctx, tx, username, e)
		if err != nil {
			return err
		}
		if err := s.registry.MarkVotedTx(ctx, tx, &rec); err != nil {
			return err
		}

		acct, err := s.ledger.EnsureTx(ctx, tx, username)
		if err != nil {
			return err
		}
		if acct.Balance <= 0 {
			return ledger.ErrInsufficientFunds
		}
		res.Balance, err = s.ledger.DebitTx(ctx, tx, username, e.VoteCost, models.EntryVote, e.ID)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO stake (id, username, election_id, candidate, amount, balance_change, created_at)
			VALUES ($1, $2, $3, $4, $5, 0, $6)
		`, auth.NewID(), username, e.ID, candidate, e.VoteCost, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("insert stake: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE candidate SET votes = votes + 1 WHERE election_id = $1 AND name = $2
		`, e.ID, candidate)
		if err != nil {
			return fmt.Errorf("increment tally: %w", err)
		}
		e.Votes[candidate]++

		if winner := EvaluateWinCondition(e); winner != "" {
			results, err := s.resolveTx(ctx, tx, e, winner)
			if err != nil {
				return err
			}
			res.Winner = &winner
			res.Results = results
			for _, r := range results {
				if r.Username == username {
					res.Balance = r.Balance
				}
			}
		}
		return nil
	})
	if err != nil {
		return VoteResult{}, err
	}

	res.Election = e
	slog.Info("vote cast", "election_id", e.ID, "username", username, "candidate", candidate,
		"votes", e.Votes[candidate], "balance", res.Balance)
	return res, nil
}

// Resolve closes an open election with the given winner and pays every
// voter their personalized payout for it. Resolving a closed election is a
// no-op that reports the existing winner.
func (s *Service) Resolve(ctx context.Context, ref, winner string) (ResolveResult, error) {
	winner = strings.TrimSpace(winner)

	e, err := s.Get(ctx, ref)
	if err != nil {
		return ResolveResult{}, err
	}

	unlockElection := s.elections.Lock(e.ID)
	defer unlockElection()

	e, err = s.load(ctx, s.db, e.ID)
	if err != nil {
		return ResolveResult{}, err
	}
	if e.Status == models.StatusClosed {
		return ResolveResult{Election: e, Winner: deref(e.Winner), AlreadyResolved: true, Results: []models.PayoutResult{}}, nil
	}
	if winner == "" {
		return ResolveResult{}, ErrWinnerRequired
	}
	if !e.HasCandidate(winner) {
		return ResolveResult{}, ErrUnknownCandidate
	}

	voters, err := s.registry.Voters(ctx, s.db, e.ID)
	if err != nil {
		return ResolveResult{}, err
	}
	unlockUsers := s.ledger.Locks().Lock(voters...)
	defer unlockUsers()

	var results []models.PayoutResult
	err = db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		results, err = s.resolveTx(ctx, tx, e, winner)
		return err
	})
	if err != nil {
		return ResolveResult{}, err
	}

	s.recordResolution(metrics.TriggerManual, results)
	return ResolveResult{Election: e, Winner: winner, Results: results}, nil
}

// resolveTx closes e and credits each voter's payout for winner. The
// caller holds the election lock and the lock of every voter.
func (s *Service) resolveTx(ctx context.Context, tx *sql.Tx, e *models.Election, winner string) ([]models.PayoutResult, error) {
	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		UPDATE election SET status = $1, winner = $2, closed_at = $3
		WHERE id = $4 AND status = $5
	`, models.StatusClosed, winner, now, e.ID, models.StatusOpen)
	if err != nil {
		return nil, fmt.Errorf("close election: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("close election: %w", err)
	} else if n == 0 {
		return nil, ErrClosed
	}

	dues, err := s.registry.WinnerPayoutsTx(ctx, tx, e.ID, winner)
	if err != nil {
		return nil, err
	}

	results := make([]models.PayoutResult, 0, len(dues))
	for _, d := range dues {
		balance, err := s.ledger.CreditTx(ctx, tx, d.Username, d.Amount, models.EntryPayout, e.ID)
		if err != nil {
			return nil, err
		}

		var candidate string
		err = tx.QueryRowContext(ctx, `
			UPDATE stake SET balance_change = $1
			WHERE election_id = $2 AND username = $3
			RETURNING candidate
		`, d.Amount, e.ID, d.Username).Scan(&candidate)
		if err != nil && err != sql.ErrNoRows {
			return nil, fmt.Errorf("update stake: %w", err)
		}

		results = append(results, models.PayoutResult{
			Username:      d.Username,
			Candidate:     candidate,
			Amount:        d.Amount,
			BalanceChange: d.Amount,
			Balance:       balance,
		})
	}

	e.Status = models.StatusClosed
	e.Winner = &winner
	e.ClosedAt = &now

	slog.Info("election resolved", "election_id", e.ID, "winner", winner, "payees", len(results))
	return results, nil
}

func (s *Service) recordResolution(trigger string, results []models.PayoutResult) {
	s.metrics.Resolution(trigger)
	for _, r := range results {
		s.metrics.Payout(r.Amount)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
