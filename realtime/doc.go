// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package realtime is the websocket side of the game.
//
// # Transport
//
// Hub upgrades GET /ws requests with github.com/coder/websocket and runs
// a read pump and a write pump per session. Every frame is a JSON
// envelope:
//
//	{"type": "join", "payload": {"username": "Alice", "electionId": "1"}}
//
// A session is bound to at most one room, keyed by election id. Outbound
// events are queued on a bounded per-session buffer; when it is full the
// event is dropped for that session. Clients recover by re-reading state
// over HTTP.
//
// # Events
//
// Inbound: join, leave, chat:message.
//
// Outbound: joined, chat:history, chat:message, votes:update,
// balances:update, election:resolved, error.
//
// On join the session receives the election's chat history and its
// personalized joined payload, then every session receives a fresh
// balance snapshot. A first join to an open election pays the entry bonus
// and posts a system chat message to the room.
//
// Gateway also exposes VoteCast, Resolved and BalancesChanged so the HTTP
// handlers can fan out the effects of /stake, /resolve and /transfer.
package realtime
