// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/election-room/auth"
	"github.com/danielhkuo/election-room/cliparse"
	"github.com/danielhkuo/election-room/db"
	"github.com/danielhkuo/election-room/models"
)

// StartingBalance is the balance new test accounts receive
const StartingBalance = 1000

// SetupTestDB creates a fresh in-memory sqlite database with the full
// schema. Each call gets its own database; it is closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	cfg := GetTestConfig()
	conn, err := db.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(context.Background(), conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration pointing at a unique
// in-memory database
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:            3001,
		DatabaseType:    "sqlite",
		DatabaseURL:     "file:test-" + auth.NewID() + "?mode=memory&cache=shared",
		StartingBalance: StartingBalance,
		AllowedOrigin:   "*",
	}
}

// ElectionOptions tunes CreateTestElection. Zero values pick the
// scenario defaults: threshold 2, bonus 200, cost 50, visible.
type ElectionOptions struct {
	Slug       string
	Candidates []string
	Threshold  int64
	EntryBonus int64
	VoteCost   int64
	Hidden     bool
	Closed     bool
	Winner     string
}

// CreateTestElection inserts an election with its candidates and returns
// its id
func CreateTestElection(t *testing.T, conn *sql.DB, opts ElectionOptions) string {
	t.Helper()

	if len(opts.Candidates) == 0 {
		opts.Candidates = []string{"A", "B"}
	}
	if opts.Threshold == 0 {
		opts.Threshold = 2
	}
	if opts.EntryBonus == 0 {
		opts.EntryBonus = 200
	}
	if opts.VoteCost == 0 {
		opts.VoteCost = 50
	}

	status := models.StatusOpen
	var winner *string
	var closedAt *time.Time
	if opts.Closed {
		status = models.StatusClosed
		w := opts.Winner
		if w == "" {
			w = opts.Candidates[0]
		}
		winner = &w
		now := time.Now().UTC()
		closedAt = &now
	}

	var slug *string
	if opts.Slug != "" {
		slug = &opts.Slug
	}

	id := auth.NewID()
	_, err := conn.Exec(`
		INSERT INTO election (id, slug, title, description, status, winner, vote_threshold,
		                      entry_bonus, vote_cost, is_visible, created_at, closed_at)
		VALUES ($1, $2, 'Test Election', 'A test election', $3, $4, $5, $6, $7, $8, $9, $10)
	`, id, slug, status, winner, opts.Threshold, opts.EntryBonus, opts.VoteCost, !opts.Hidden, time.Now().UTC(), closedAt)
	if err != nil {
		t.Fatalf("Failed to create test election: %v", err)
	}

	for pos, name := range opts.Candidates {
		_, err := conn.Exec(`
			INSERT INTO candidate (election_id, position, name, votes)
			VALUES ($1, $2, $3, 0)
		`, id, pos, name)
		if err != nil {
			t.Fatalf("Failed to create test candidate: %v", err)
		}
	}

	return id
}

// CreateTestAccount inserts an account with an explicit balance
func CreateTestAccount(t *testing.T, conn *sql.DB, username string, balance int64) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO account (username, balance, created_at)
		VALUES ($1, $2, $3)
	`, username, balance, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test account: %v", err)
	}
}

// GetBalance reads an account balance directly
func GetBalance(t *testing.T, conn *sql.DB, username string) int64 {
	t.Helper()

	var balance int64
	if err := conn.QueryRow("SELECT balance FROM account WHERE username = $1", username).Scan(&balance); err != nil {
		t.Fatalf("Failed to read balance for %s: %v", username, err)
	}
	return balance
}

// GetVotes reads an election's tally directly
func GetVotes(t *testing.T, conn *sql.DB, electionID string) map[string]int64 {
	t.Helper()

	rows, err := conn.Query("SELECT name, votes FROM candidate WHERE election_id = $1", electionID)
	if err != nil {
		t.Fatalf("Failed to query votes: %v", err)
	}
	defer rows.Close()

	votes := make(map[string]int64)
	for rows.Next() {
		var name string
		var n int64
		if err := rows.Scan(&name, &n); err != nil {
			t.Fatalf("Failed to scan votes: %v", err)
		}
		votes[name] = n
	}
	return votes
}

// GetStatus reads an election's status and winner directly
func GetStatus(t *testing.T, conn *sql.DB, electionID string) (string, *string) {
	t.Helper()

	var status string
	var winner *string
	err := conn.QueryRow("SELECT status, winner FROM election WHERE id = $1", electionID).Scan(&status, &winner)
	if err != nil {
		t.Fatalf("Failed to read election status: %v", err)
	}
	return status, winner
}

// CountRows counts rows matching a simple query
func CountRows(t *testing.T, conn *sql.DB, query string, args ...any) int {
	t.Helper()

	var n int
	if err := conn.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	return n
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
