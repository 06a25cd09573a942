// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/danielhkuo/election-room/chat"
	"github.com/danielhkuo/election-room/election"
	"github.com/danielhkuo/election-room/keylock"
	"github.com/danielhkuo/election-room/ledger"
	"github.com/danielhkuo/election-room/models"
	"github.com/danielhkuo/election-room/participation"
	"github.com/danielhkuo/election-room/testutil"
)

// recordingNotifier counts notifications so tests can assert fan-out
type recordingNotifier struct {
	mu       sync.Mutex
	votes    int
	resolved []string
	balances int
}

func (n *recordingNotifier) VoteCast(_ context.Context, res election.VoteResult) {
	n.mu.Lock()
	n.votes++
	n.mu.Unlock()
	if res.Winner != nil {
		n.Resolved(context.Background(), res.Election, *res.Winner, res.Results)
	}
}

func (n *recordingNotifier) Resolved(_ context.Context, _ *models.Election, winner string, _ []models.PayoutResult) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resolved = append(n.resolved, winner)
}

func (n *recordingNotifier) BalancesChanged(context.Context) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.balances++
}

type testEnv struct {
	db        *sql.DB
	ledger    *ledger.Ledger
	elections *election.Service
	notifier  *recordingNotifier

	users    *UserHandler
	election *ElectionHandler
	voting   *VotingHandler
	messages *MessageHandler
	chat     *chat.Store
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	conn := testutil.SetupTestDB(t)
	l := ledger.New(conn, keylock.New(), testutil.StartingBalance)
	reg := participation.New(conn, l, keylock.New(), false)
	svc := election.New(conn, l, reg, nil)
	store := chat.NewStore(conn, nil)
	n := &recordingNotifier{}

	return &testEnv{
		db:        conn,
		ledger:    l,
		elections: svc,
		notifier:  n,
		users:     NewUserHandler(l, n, nil),
		election:  NewElectionHandler(svc),
		voting:    NewVotingHandler(svc, n),
		messages:  NewMessageHandler(svc, store),
		chat:      store,
	}
}
