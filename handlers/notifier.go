// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"

	"github.com/danielhkuo/election-room/election"
	"github.com/danielhkuo/election-room/models"
)

// Notifier fans state changes out to realtime sessions.
// *realtime.Gateway implements it.
type Notifier interface {
	VoteCast(ctx context.Context, res election.VoteResult)
	Resolved(ctx context.Context, e *models.Election, winner string, results []models.PayoutResult)
	BalancesChanged(ctx context.Context)
}

type nopNotifier struct{}

func (nopNotifier) VoteCast(context.Context, election.VoteResult) {}

func (nopNotifier) Resolved(context.Context, *models.Election, string, []models.PayoutResult) {}

func (nopNotifier) BalancesChanged(context.Context) {}

func orNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
