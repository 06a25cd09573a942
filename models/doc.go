// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, domain and realtime event types.

# Request Types

  - CreateElectionRequest: title, description, candidates, tuning
  - VisibilityRequest: isVisible
  - StakeRequest: username, electionId, candidate, amount (ignored)
  - ResolveRequest: electionId, winner
  - TransferRequest: from, to, amount

# Response Types

  - VotesResponse: votes, threshold, winner, status, voteCost
  - PayoutsResponse: payouts, hasVoted
  - StakeResponse: success, balance, votes, winner
  - ResolveResponse: success, winner, alreadyResolved, results
  - TransferResponse: success, fromBalance, toBalance
  - ErrorResponse: error, message

# Domain Types

  - Account: username and balance
  - Election: ballot, lifecycle, tally and economics
  - Participation: per user per election flags and payout table
  - Stake: vote audit record
  - ChatMessage: room chat line (SystemSender for announcements)
  - LedgerEntry: audit of a single balance mutation

# Realtime Events

Every websocket frame is an Envelope {type, payload}. Event names:

	join, leave, chat:message                       (inbound)
	joined, chat:history, chat:message,
	votes:update, balances:update,
	election:resolved, error                        (outbound)

# Constants

	StatusOpen   = "open"
	StatusClosed = "closed"
*/
package models
