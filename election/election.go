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

	"github.com/danielhkuo/election-room/apperr"
	"github.com/danielhkuo/election-room/auth"
	"github.com/danielhkuo/election-room/db"
	"github.com/danielhkuo/election-room/keylock"
	"github.com/danielhkuo/election-room/ledger"
	"github.com/danielhkuo/election-room/metrics"
	"github.com/danielhkuo/election-room/models"
	"github.com/danielhkuo/election-room/participation"
)

var (
	ErrNotFound           = participation.ErrElectionNotFound
	ErrClosed             = apperr.New(apperr.InvalidState, "Election is closed")
	ErrNotVisible         = apperr.New(apperr.InvalidState, "Election is not visible")
	ErrUnknownCandidate   = apperr.New(apperr.Invalid, "Invalid candidate")
	ErrWinnerRequired     = apperr.New(apperr.Invalid, "Winner is required")
	ErrTitleRequired      = apperr.New(apperr.Invalid, "Title is required")
	ErrNoCandidates       = apperr.New(apperr.Invalid, "At least one candidate is required")
	ErrBlankCandidate     = apperr.New(apperr.Invalid, "Candidate names cannot be empty")
	ErrDuplicateCandidate = apperr.New(apperr.Invalid, "Candidate names must be unique")
	ErrInvalidThreshold   = apperr.New(apperr.Invalid, "Vote threshold must be positive")
	ErrNegativeAmount     = apperr.New(apperr.Invalid, "Entry bonus and vote cost cannot be negative")
	ErrInvalidSchedule    = apperr.New(apperr.Invalid, "Election cannot end before it starts")
	ErrSlugTaken          = apperr.New(apperr.Invalid, "Slug is already in use")
	ErrReservedSlug       = apperr.New(apperr.Invalid, "Slug is reserved")
	ErrVisibilityMissing  = apperr.New(apperr.Invalid, "isVisible is required")
)

// Service owns the election catalog and the open -> closed state machine.
//
// Lock order is election first, then users (sorted). No lock is acquired
// while a transaction is open.
type Service struct {
	db        *sql.DB
	ledger    *ledger.Ledger
	registry  *participation.Registry
	elections *keylock.Set
	metrics   *metrics.Metrics
}

// New wires a Service. User locks come from the ledger and election locks
// from the registry, so work done here and through either of them
// serializes on the same keys.
func New(conn *sql.DB, l *ledger.Ledger, reg *participation.Registry, m *metrics.Metrics) *Service {
	return &Service{
		db:        conn,
		ledger:    l,
		registry:  reg,
		elections: reg.ElectionLocks(),
		metrics:   m,
	}
}

// Create validates req, applies defaults and stores the election with a
// zeroed tally.
func (s *Service) Create(ctx context.Context, req models.CreateElectionRequest) (*models.Election, error) {
	e, err := newElection(req)
	if err != nil {
		return nil, err
	}

	err = db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO election (id, slug, title, description, status, vote_threshold, entry_bonus,
			                      vote_cost, is_visible, created_at, starts_at, ends_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`, e.ID, e.Slug, e.Title, e.Description, e.Status, e.VoteThreshold, e.EntryBonus,
			e.VoteCost, e.IsVisible, e.CreatedAt, e.StartsAt, e.EndsAt)
		if err != nil {
			if db.IsUniqueViolation(err) {
				return ErrSlugTaken
			}
			return fmt.Errorf("insert election: %w", err)
		}

		for pos, name := range e.Candidates {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO candidate (election_id, position, name, votes)
				VALUES ($1, $2, $3, 0)
			`, e.ID, pos, name)
			if err != nil {
				return fmt.Errorf("insert candidate: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("election created", "election_id", e.ID, "title", e.Title, "candidates", len(e.Candidates))
	return e, nil
}

// reservedSlug reports slugs that /elections/{id} cannot reach: "all" is
// its own route, ids are looked up by id and a slash ends the segment.
func reservedSlug(slug string) bool {
	return strings.EqualFold(slug, "all") || auth.IsID(slug) || strings.Contains(slug, "/")
}

func newElection(req models.CreateElectionRequest) (*models.Election, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if len(req.Candidates) == 0 {
		return nil, ErrNoCandidates
	}

	seen := make(map[string]bool, len(req.Candidates))
	candidates := make([]string, 0, len(req.Candidates))
	for _, c := range req.Candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			return nil, ErrBlankCandidate
		}
		if seen[c] {
			return nil, ErrDuplicateCandidate
		}
		seen[c] = true
		candidates = append(candidates, c)
	}

	e := &models.Election{
		ID:            auth.NewID(),
		Title:         title,
		Description:   strings.TrimSpace(req.Description),
		Candidates:    candidates,
		Status:        models.StatusOpen,
		VoteThreshold: valueOr(req.VoteThreshold, models.DefaultVoteThreshold),
		Votes:         make(map[string]int64, len(candidates)),
		EntryBonus:    valueOr(req.EntryBonus, models.DefaultEntryBonus),
		VoteCost:      valueOr(req.VoteCost, models.DefaultVoteCost),
		IsVisible:     req.IsVisible == nil || *req.IsVisible,
		CreatedAt:     time.Now().UTC(),
		StartsAt:      req.StartsAt,
		EndsAt:        req.EndsAt,
	}
	for _, c := range candidates {
		e.Votes[c] = 0
	}

	if slug := strings.TrimSpace(req.Slug); slug != "" {
		if reservedSlug(slug) {
			return nil, ErrReservedSlug
		}
		e.Slug = &slug
	}
	if e.VoteThreshold <= 0 {
		return nil, ErrInvalidThreshold
	}
	if e.EntryBonus < 0 || e.VoteCost < 0 {
		return nil, ErrNegativeAmount
	}
	if e.StartsAt != nil && e.EndsAt != nil && e.EndsAt.Before(*e.StartsAt) {
		return nil, ErrInvalidSchedule
	}

	return e, nil
}

func valueOr(v *int64, def int64) int64 {
	if v == nil {
		return def
	}
	return *v
}

// Get loads an election by id or legacy slug.
func (s *Service) Get(ctx context.Context, ref string) (*models.Election, error) {
	return s.load(ctx, s.db, ref)
}

const electionColumns = `id, slug, title, description, status, winner, vote_threshold, entry_bonus,
	vote_cost, is_visible, created_at, starts_at, ends_at, closed_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanElection(row scanner) (*models.Election, error) {
	var e models.Election
	err := row.Scan(
		&e.ID, &e.Slug, &e.Title, &e.Description, &e.Status, &e.Winner, &e.VoteThreshold,
		&e.EntryBonus, &e.VoteCost, &e.IsVisible, &e.CreatedAt, &e.StartsAt, &e.EndsAt, &e.ClosedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Service) load(ctx context.Context, q db.Querier, ref string) (*models.Election, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrNotFound
	}

	column := "slug"
	if auth.IsID(ref) {
		column = "id"
	}

	e, err := scanElection(q.QueryRowContext(ctx,
		`SELECT `+electionColumns+` FROM election WHERE `+column+` = $1`, ref))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query election: %w", err)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT name, votes FROM candidate WHERE election_id = $1 ORDER BY position
	`, e.ID)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	e.Votes = make(map[string]int64)
	for rows.Next() {
		var name string
		var votes int64
		if err := rows.Scan(&name, &votes); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		e.Candidates = append(e.Candidates, name)
		e.Votes[name] = votes
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}

	return e, nil
}

// List returns elections oldest first, with tallies. visibleOnly hides
// elections an operator has taken off the public list.
func (s *Service) List(ctx context.Context, visibleOnly bool) ([]models.Election, error) {
	query := `SELECT ` + electionColumns + ` FROM election`
	if visibleOnly {
		query += ` WHERE is_visible = TRUE`
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query elections: %w", err)
	}

	var elections []models.Election
	index := make(map[string]int)
	for rows.Next() {
		e, err := scanElection(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan election: %w", err)
		}
		e.Candidates = []string{}
		e.Votes = make(map[string]int64)
		index[e.ID] = len(elections)
		elections = append(elections, *e)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("iterate elections: %w", err)
	}

	crows, err := s.db.QueryContext(ctx, `
		SELECT election_id, name, votes FROM candidate ORDER BY election_id, position
	`)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer crows.Close()

	for crows.Next() {
		var electionID, name string
		var votes int64
		if err := crows.Scan(&electionID, &name, &votes); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		i, ok := index[electionID]
		if !ok {
			continue
		}
		elections[i].Candidates = append(elections[i].Candidates, name)
		elections[i].Votes[name] = votes
	}
	if err := crows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}

	if elections == nil {
		elections = []models.Election{}
	}
	return elections, nil
}

// SetVisibility shows or hides an election. Hidden elections reject votes.
func (s *Service) SetVisibility(ctx context.Context, ref string, visible bool) (*models.Election, error) {
	e, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}

	unlock := s.elections.Lock(e.ID)
	defer unlock()

	_, err = s.db.ExecContext(ctx, `UPDATE election SET is_visible = $1 WHERE id = $2`, visible, e.ID)
	if err != nil {
		return nil, fmt.Errorf("update visibility: %w", err)
	}
	e.IsVisible = visible

	slog.Info("election visibility changed", "election_id", e.ID, "is_visible", visible)
	return e, nil
}

// Votes returns the public tally view of an election.
func (s *Service) Votes(ctx context.Context, ref string) (models.VotesResponse, error) {
	e, err := s.Get(ctx, ref)
	if err != nil {
		return models.VotesResponse{}, err
	}
	return models.VotesResponse{
		Votes:     e.Votes,
		Threshold: e.VoteThreshold,
		Winner:    e.Winner,
		Status:    e.Status,
		VoteCost:  e.VoteCost,
	}, nil
}
