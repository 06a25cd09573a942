// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package election owns elections: the catalog (create, list, visibility)
// and the lifecycle state machine.
//
// # Lifecycle
//
// An election starts open and moves to closed exactly once. It closes when
// a vote brings some candidate's tally to the threshold, or when an
// operator resolves it by hand. Closing records the winner and credits
// every voter with their personalized payout for that winner. Voters
// whose payout is negative lose currency, and their balance may drop
// below zero.
//
// # Votes
//
// CastVote checks, in order: the election is open, visible, the candidate
// is on the ballot, the user has not voted, and the user can afford the
// vote cost with a positive balance. The debit, the voted flag, the stake
// record, the tally increment and any resulting resolution commit in one
// transaction.
//
// # Locking
//
// Every mutation takes the election's lock first and then the locks of
// the users whose balances it touches. A vote that will close the election
// takes the locks of all existing voters before it starts its
// transaction, so payouts never race the payees' own activity.
//
// Elections are addressed by id or by the short slug used by seed data.
package election
