// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/danielhkuo/election-room/apperr"
	"github.com/danielhkuo/election-room/chat"
	"github.com/danielhkuo/election-room/election"
	"github.com/danielhkuo/election-room/ledger"
	"github.com/danielhkuo/election-room/models"
	"github.com/danielhkuo/election-room/participation"
)

// Gateway dispatches inbound realtime events to the game and pushes state
// changes out through the hub. HTTP handlers use it to announce votes,
// resolutions and transfers.
type Gateway struct {
	hub       *Hub
	elections *election.Service
	ledger    *ledger.Ledger
	registry  *participation.Registry
	chat      *chat.Store
	logger    *slog.Logger
}

// NewGateway creates a gateway and installs it as the hub's handler.
func NewGateway(hub *Hub, elections *election.Service, l *ledger.Ledger, reg *participation.Registry, store *chat.Store) *Gateway {
	g := &Gateway{
		hub:       hub,
		elections: elections,
		ledger:    l,
		registry:  reg,
		chat:      store,
		logger:    hub.logger,
	}
	hub.SetHandler(g)
	return g
}

func (g *Gateway) HandleMessage(ctx context.Context, s *Session, msg models.Envelope) {
	switch msg.Type {
	case models.EventJoin:
		var ev models.JoinEvent
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			g.sendError(s, "Invalid join payload")
			return
		}
		g.handleJoin(ctx, s, ev)

	case models.EventLeave:
		g.hub.LeaveRoom(s.ID)

	case models.EventChatMessage:
		var ev models.ChatSendEvent
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			g.sendError(s, "Invalid chat payload")
			return
		}
		g.handleChat(ctx, s, ev)

	default:
		g.sendError(s, "Unknown event type: "+msg.Type)
	}
}

func (g *Gateway) handleJoin(ctx context.Context, s *Session, ev models.JoinEvent) {
	res, err := g.elections.Join(ctx, ev.ElectionID, ev.Username)
	if err != nil {
		g.fail(s, "join", err)
		return
	}
	e := res.Election
	g.hub.JoinRoom(s.ID, e.ID, res.Participation.Username)

	history, err := g.chat.History(ctx, e.ID)
	if err != nil {
		g.fail(s, "load chat history", err)
		return
	}
	g.send(s.ID, models.EventChatHistory, history)

	g.send(s.ID, models.EventJoined, models.JoinedPayload{
		Username: res.Participation.Username,
		Balance:  res.Balance,
		Election: *e,
		Payouts:  participation.PayoutsFor(res.Participation),
		HasVoted: res.Participation.HasVoted,
	})

	if res.BonusGranted && e.EntryBonus > 0 {
		nth, err := g.registry.Count(ctx, e.ID)
		if err != nil {
			g.logger.Error("count participants", "error", err, "election_id", e.ID)
		}
		g.announce(ctx, e.ID, chat.BonusAnnouncement(res.Participation.Username, e.EntryBonus, nth))
	}

	g.logger.Info("session joined election", "session_id", s.ID, "election_id", e.ID,
		"username", res.Participation.Username, "bonus_granted", res.BonusGranted)

	g.BalancesChanged(ctx)
}

func (g *Gateway) handleChat(ctx context.Context, s *Session, ev models.ChatSendEvent) {
	// Fields left out default to the session's room and name
	if room, username, ok := g.hub.Room(s.ID); ok {
		if ev.ElectionID == "" {
			ev.ElectionID = room
		}
		if ev.Username == "" {
			ev.Username = username
		}
	}
	if ev.ElectionID == "" {
		g.sendError(s, "Join an election before chatting")
		return
	}

	e, err := g.elections.Get(ctx, ev.ElectionID)
	if err != nil {
		g.fail(s, "chat", err)
		return
	}
	msg, err := g.chat.Post(ctx, e.ID, ev.Username, ev.Message)
	if err != nil {
		g.fail(s, "chat", err)
		return
	}
	g.broadcastRoom(e.ID, models.EventChatMessage, msg)
}

// VoteCast pushes the new tally and balances to the election's room, and
// the resolution if the vote closed it.
func (g *Gateway) VoteCast(ctx context.Context, res election.VoteResult) {
	e := res.Election
	g.broadcastRoom(e.ID, models.EventVotesUpdate, e.Votes)
	g.roomBalances(ctx, e.ID)
	if res.Winner != nil {
		g.Resolved(ctx, e, *res.Winner, res.Results)
	}
}

// Resolved announces a resolution to the election's room.
func (g *Gateway) Resolved(ctx context.Context, e *models.Election, winner string, results []models.PayoutResult) {
	if results == nil {
		results = []models.PayoutResult{}
	}
	g.broadcastRoom(e.ID, models.EventElectionResolved, models.ResolvedPayload{
		ElectionID: e.ID,
		Winner:     winner,
		Results:    results,
	})
	g.announce(ctx, e.ID, chat.WinAnnouncement(winner, results))
	g.roomBalances(ctx, e.ID)
}

// BalancesChanged pushes the full balance snapshot to every session.
func (g *Gateway) BalancesChanged(ctx context.Context) {
	accounts, err := g.ledger.Snapshot(ctx)
	if err != nil {
		g.logger.Error("balance snapshot", "error", err)
		return
	}
	env, err := NewEnvelope(models.EventBalancesUpdate, accounts)
	if err != nil {
		g.logger.Error("encode event", "error", err)
		return
	}
	g.hub.BroadcastAll(env)
}

func (g *Gateway) roomBalances(ctx context.Context, room string) {
	accounts, err := g.ledger.Snapshot(ctx)
	if err != nil {
		g.logger.Error("balance snapshot", "error", err)
		return
	}
	g.broadcastRoom(room, models.EventBalancesUpdate, accounts)
}

func (g *Gateway) announce(ctx context.Context, electionID, text string) {
	msg, err := g.chat.Announce(ctx, electionID, text)
	if err != nil {
		g.logger.Error("store announcement", "error", err, "election_id", electionID)
		return
	}
	g.broadcastRoom(electionID, models.EventChatMessage, msg)
}

func (g *Gateway) send(sessionID, eventType string, payload any) {
	env, err := NewEnvelope(eventType, payload)
	if err != nil {
		g.logger.Error("encode event", "error", err)
		return
	}
	g.hub.SendTo(sessionID, env)
}

func (g *Gateway) broadcastRoom(room, eventType string, payload any) {
	env, err := NewEnvelope(eventType, payload)
	if err != nil {
		g.logger.Error("encode event", "error", err)
		return
	}
	g.hub.BroadcastRoom(room, env)
}

// fail reports err to the session. Internal errors are logged and hidden.
func (g *Gateway) fail(s *Session, op string, err error) {
	if apperr.KindOf(err) == apperr.Internal {
		g.logger.Error("realtime "+op+" failed", "error", err, "session_id", s.ID)
	}
	g.sendError(s, apperr.Message(err))
}

func (g *Gateway) sendError(s *Session, message string) {
	g.send(s.ID, models.EventError, models.ErrorPayload{Message: message})
}
