// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/goleak"

	"github.com/danielhkuo/election-room/chat"
	"github.com/danielhkuo/election-room/election"
	"github.com/danielhkuo/election-room/keylock"
	"github.com/danielhkuo/election-room/ledger"
	"github.com/danielhkuo/election-room/models"
	"github.com/danielhkuo/election-room/participation"
	"github.com/danielhkuo/election-room/testutil"
)

type harness struct {
	conn      *sql.DB
	hub       *Hub
	gateway   *Gateway
	elections *election.Service
	url       string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Cleanup(func() {
		goleak.VerifyNone(t, goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"))
	})

	conn := testutil.SetupTestDB(t)
	l := ledger.New(conn, keylock.New(), testutil.StartingBalance)
	reg := participation.New(conn, l, keylock.New(), false)
	svc := election.New(conn, l, reg, nil)
	hub := NewHub("*", nil, nil)
	gw := NewGateway(hub, svc, l, reg, chat.NewStore(conn, nil))

	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})

	return &harness{
		conn:      conn,
		hub:       hub,
		gateway:   gw,
		elections: svc,
		url:       "ws" + strings.TrimPrefix(srv.URL, "http"),
	}
}

func (h *harness) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, _, err := websocket.Dial(ctx, h.url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { c.Close(websocket.StatusNormalClosure, "") })
	return c
}

func write(t *testing.T, c *websocket.Conn, eventType string, payload any) {
	t.Helper()
	env, err := NewEnvelope(eventType, payload)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := wsjson.Write(ctx, c, env); err != nil {
		t.Fatalf("write %s: %v", eventType, err)
	}
}

// expect reads the next envelope and checks its type, decoding the
// payload into out when out is non-nil.
func expect(t *testing.T, c *websocket.Conn, eventType string, out any) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var env models.Envelope
	if err := wsjson.Read(ctx, c, &env); err != nil {
		t.Fatalf("waiting for %s: %v", eventType, err)
	}
	if env.Type != eventType {
		t.Fatalf("got event %s (%s), want %s", env.Type, env.Payload, eventType)
	}
	if out != nil {
		if err := json.Unmarshal(env.Payload, out); err != nil {
			t.Fatalf("decode %s: %v", eventType, err)
		}
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestJoinSendsStateAndBonus(t *testing.T) {
	h := newHarness(t)
	id := testutil.CreateTestElection(t, h.conn, testutil.ElectionOptions{Slug: "1"})
	c := h.dial(t)

	write(t, c, models.EventJoin, models.JoinEvent{Username: "Alice", ElectionID: "1"})

	var history []models.ChatMessage
	expect(t, c, models.EventChatHistory, &history)
	if len(history) != 0 {
		t.Errorf("expected empty history, got %d messages", len(history))
	}

	var joined models.JoinedPayload
	expect(t, c, models.EventJoined, &joined)
	if joined.Username != "Alice" || joined.Balance != 1200 || joined.HasVoted {
		t.Errorf("joined payload = %+v", joined)
	}
	if joined.Election.ID != id || len(joined.Payouts) != 2 {
		t.Errorf("joined election %s payouts %v", joined.Election.ID, joined.Payouts)
	}

	var announcement models.ChatMessage
	expect(t, c, models.EventChatMessage, &announcement)
	if announcement.Username != models.SystemSender || !strings.Contains(announcement.Message, "Alice") {
		t.Errorf("announcement = %+v", announcement)
	}

	var balances []models.Account
	expect(t, c, models.EventBalancesUpdate, &balances)
	if len(balances) != 1 || balances[0].Balance != 1200 {
		t.Errorf("balances = %+v", balances)
	}

	// A second join replays history and pays nothing.
	write(t, c, models.EventJoin, models.JoinEvent{Username: "Alice", ElectionID: id})
	expect(t, c, models.EventChatHistory, &history)
	if len(history) != 1 {
		t.Errorf("expected 1 message in history, got %d", len(history))
	}
	expect(t, c, models.EventJoined, &joined)
	if joined.Balance != 1200 {
		t.Errorf("rejoin balance = %d", joined.Balance)
	}
	expect(t, c, models.EventBalancesUpdate, nil)
}

func TestChatIsScopedToRoom(t *testing.T) {
	h := newHarness(t)
	room := testutil.CreateTestElection(t, h.conn, testutil.ElectionOptions{})
	other := testutil.CreateTestElection(t, h.conn, testutil.ElectionOptions{})
	a, b := h.dial(t), h.dial(t)

	write(t, a, models.EventJoin, models.JoinEvent{Username: "Alice", ElectionID: room})
	expect(t, a, models.EventChatHistory, nil)
	expect(t, a, models.EventJoined, nil)
	expect(t, a, models.EventChatMessage, nil)
	expect(t, a, models.EventBalancesUpdate, nil)
	// Balance updates reach every session, joined or not.
	expect(t, b, models.EventBalancesUpdate, nil)

	write(t, b, models.EventJoin, models.JoinEvent{Username: "Bob", ElectionID: other})
	expect(t, b, models.EventChatHistory, nil)
	expect(t, b, models.EventJoined, nil)
	expect(t, b, models.EventChatMessage, nil)
	expect(t, b, models.EventBalancesUpdate, nil)
	expect(t, a, models.EventBalancesUpdate, nil)

	write(t, a, models.EventChatMessage, models.ChatSendEvent{ElectionID: room, Username: "Alice", Message: "hi room"})
	var msg models.ChatMessage
	expect(t, a, models.EventChatMessage, &msg)
	if msg.Message != "hi room" || msg.Username != "Alice" {
		t.Errorf("chat = %+v", msg)
	}

	write(t, a, models.EventChatMessage, models.ChatSendEvent{Message: "defaults"})
	expect(t, a, models.EventChatMessage, &msg)
	if msg.ElectionID != room || msg.Username != "Alice" {
		t.Errorf("chat without room fields = %+v", msg)
	}

	// b is in another room: the next thing it sees is the global update.
	h.gateway.BalancesChanged(context.Background())
	expect(t, b, models.EventBalancesUpdate, nil)
}

func TestVoteAndResolutionBroadcast(t *testing.T) {
	h := newHarness(t)
	id := testutil.CreateTestElection(t, h.conn, testutil.ElectionOptions{Threshold: 1})
	c := h.dial(t)
	ctx := context.Background()

	write(t, c, models.EventJoin, models.JoinEvent{Username: "Alice", ElectionID: id})
	expect(t, c, models.EventChatHistory, nil)
	expect(t, c, models.EventJoined, nil)
	expect(t, c, models.EventChatMessage, nil)
	expect(t, c, models.EventBalancesUpdate, nil)

	res, err := h.elections.CastVote(ctx, id, "Alice", "B")
	if err != nil {
		t.Fatal(err)
	}
	h.gateway.VoteCast(ctx, res)

	var votes map[string]int64
	expect(t, c, models.EventVotesUpdate, &votes)
	if votes["B"] != 1 {
		t.Errorf("votes = %v", votes)
	}
	expect(t, c, models.EventBalancesUpdate, nil)

	var resolved models.ResolvedPayload
	expect(t, c, models.EventElectionResolved, &resolved)
	if resolved.Winner != "B" || len(resolved.Results) != 1 || resolved.Results[0].Username != "Alice" {
		t.Errorf("resolved = %+v", resolved)
	}

	var announcement models.ChatMessage
	expect(t, c, models.EventChatMessage, &announcement)
	if !strings.Contains(announcement.Message, "B wins") {
		t.Errorf("announcement = %q", announcement.Message)
	}
	expect(t, c, models.EventBalancesUpdate, nil)
}

func TestErrorsAndLeave(t *testing.T) {
	h := newHarness(t)
	id := testutil.CreateTestElection(t, h.conn, testutil.ElectionOptions{})
	c := h.dial(t)

	var e models.ErrorPayload
	write(t, c, models.EventJoin, models.JoinEvent{Username: "Alice", ElectionID: "missing"})
	expect(t, c, models.EventError, &e)
	if e.Message != "Election not found" {
		t.Errorf("error = %q", e.Message)
	}

	write(t, c, "vote", map[string]string{})
	expect(t, c, models.EventError, &e)
	if !strings.Contains(e.Message, "Unknown event type") {
		t.Errorf("error = %q", e.Message)
	}

	write(t, c, models.EventChatMessage, models.ChatSendEvent{Username: "Alice", Message: "hello"})
	expect(t, c, models.EventError, &e)
	if e.Message != "Join an election before chatting" {
		t.Errorf("error = %q", e.Message)
	}

	write(t, c, models.EventChatMessage, models.ChatSendEvent{ElectionID: id, Username: "Alice", Message: " "})
	expect(t, c, models.EventError, &e)
	if e.Message != chat.ErrEmptyMessage.Message {
		t.Errorf("error = %q", e.Message)
	}

	write(t, c, models.EventJoin, models.JoinEvent{Username: "Alice", ElectionID: id})
	expect(t, c, models.EventChatHistory, nil)
	expect(t, c, models.EventJoined, nil)
	expect(t, c, models.EventChatMessage, nil)
	expect(t, c, models.EventBalancesUpdate, nil)
	if n := h.hub.RoomSize(id); n != 1 {
		t.Errorf("room size = %d, want 1", n)
	}

	write(t, c, models.EventLeave, struct{}{})
	waitFor(t, "leave", func() bool { return h.hub.RoomSize(id) == 0 })

	c.Close(websocket.StatusNormalClosure, "")
	waitFor(t, "disconnect", func() bool { return h.hub.SessionCount() == 0 })
}

func TestAcceptOptions(t *testing.T) {
	tests := []struct {
		origin   string
		skip     bool
		patterns []string
	}{
		{"", true, nil},
		{"*", true, nil},
		{"http://localhost:5173", false, []string{"localhost:5173"}},
		{"example.com", false, []string{"example.com"}},
	}
	for _, tt := range tests {
		opts := acceptOptions(tt.origin)
		if opts.InsecureSkipVerify != tt.skip {
			t.Errorf("acceptOptions(%q).InsecureSkipVerify = %v", tt.origin, opts.InsecureSkipVerify)
		}
		if strings.Join(opts.OriginPatterns, ",") != strings.Join(tt.patterns, ",") {
			t.Errorf("acceptOptions(%q).OriginPatterns = %v", tt.origin, opts.OriginPatterns)
		}
	}
}
