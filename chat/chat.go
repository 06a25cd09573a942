// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package chat

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/election-room/apperr"
	"github.com/danielhkuo/election-room/auth"
	"github.com/danielhkuo/election-room/metrics"
	"github.com/danielhkuo/election-room/models"
	"github.com/danielhkuo/election-room/participation"
)

// MaxMessageLength is the longest chat message accepted, in runes
const MaxMessageLength = 500

var (
	ErrEmptyMessage     = apperr.New(apperr.Invalid, "Message cannot be empty")
	ErrMessageTooLong   = apperr.New(apperr.Invalid, fmt.Sprintf("Message cannot exceed %d characters", MaxMessageLength))
	ErrUsernameRequired = apperr.New(apperr.Invalid, "Username is required")
	ErrReservedSender   = apperr.New(apperr.Invalid, "That username is reserved")
)

// Store persists per-election chat. Messages are append-only.
type Store struct {
	db      *sql.DB
	metrics *metrics.Metrics
}

func NewStore(conn *sql.DB, m *metrics.Metrics) *Store {
	return &Store{db: conn, metrics: m}
}

// Post stores a message from a user. The system sender name is reserved.
func (s *Store) Post(ctx context.Context, electionID, username, message string) (models.ChatMessage, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.ChatMessage{}, ErrUsernameRequired
	}
	if strings.EqualFold(username, models.SystemSender) {
		return models.ChatMessage{}, ErrReservedSender
	}
	return s.post(ctx, electionID, username, message)
}

// Announce stores a message from the system sender.
func (s *Store) Announce(ctx context.Context, electionID, message string) (models.ChatMessage, error) {
	return s.post(ctx, electionID, models.SystemSender, message)
}

func (s *Store) post(ctx context.Context, electionID, username, message string) (models.ChatMessage, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return models.ChatMessage{}, ErrEmptyMessage
	}
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return models.ChatMessage{}, ErrMessageTooLong
	}

	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM election WHERE id = $1)
	`, electionID).Scan(&exists)
	if err != nil {
		return models.ChatMessage{}, fmt.Errorf("check election: %w", err)
	}
	if !exists {
		return models.ChatMessage{}, participation.ErrElectionNotFound
	}

	msg := models.ChatMessage{
		ID:         auth.NewID(),
		ElectionID: electionID,
		Username:   username,
		Message:    message,
		Time:       time.Now().UTC(),
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO message (id, election_id, username, body, sent_at)
		VALUES ($1, $2, $3, $4, $5)
	`, msg.ID, msg.ElectionID, msg.Username, msg.Message, msg.Time)
	if err != nil {
		return models.ChatMessage{}, fmt.Errorf("insert message: %w", err)
	}

	s.metrics.ChatMessage()
	slog.Debug("chat message stored", "election_id", electionID, "username", username)
	return msg, nil
}

// History returns an election's messages, oldest first.
func (s *Store) History(ctx context.Context, electionID string) ([]models.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, election_id, username, body, sent_at
		FROM message
		WHERE election_id = $1
		ORDER BY sent_at, id
	`, electionID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	messages := []models.ChatMessage{}
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.ElectionID, &m.Username, &m.Message, &m.Time); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// BonusAnnouncement welcomes the nth participant of an election.
func BonusAnnouncement(username string, bonus int64, nth int) string {
	return fmt.Sprintf("Welcome %s, the %s player to join! You received a %s coin entry bonus.",
		username, humanize.Ordinal(nth), humanize.Comma(bonus))
}

// WinAnnouncement announces a resolution.
func WinAnnouncement(winner string, results []models.PayoutResult) string {
	var total int64
	for _, r := range results {
		total += r.Amount
	}
	if len(results) == 0 {
		return fmt.Sprintf("%s wins the election! No votes were cast, so no payouts were made.", winner)
	}
	return fmt.Sprintf("%s wins the election! %s coins paid out across %s voters.",
		winner, humanize.Comma(total), humanize.Comma(int64(len(results))))
}
