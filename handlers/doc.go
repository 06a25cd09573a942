// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Election Room API.

# Handler Types

Each handler is a struct over the domain services it needs:

  - UserHandler: Balances, ledger history and transfers
  - ElectionHandler: Election listing, creation and visibility
  - VotingHandler: Tallies, payout tables, stakes and resolution
  - MessageHandler: Chat history for an election's room

Handlers are created via constructor functions:

	votingHandler := handlers.NewVotingHandler(electionService, notifier)

# Notifications

Handlers that change balances or tallies report it through a Notifier
after the HTTP response is written. The realtime gateway implements it
and fans the change out to connected sessions. A nil Notifier is allowed.

# Operator Routes

Creating elections, changing visibility, listing hidden elections and
forcing a resolution are operator actions. The router guards them with
the X-Operator-Key header; the handlers themselves do not check it.

# Errors

Domain errors are mapped to status codes by middleware.WriteError:
not-found errors become 404 and validation or state errors become 400,
each with the error's message in the body.
*/
package handlers
