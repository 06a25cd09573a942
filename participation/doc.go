// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package participation records each user's relationship with an
// election: whether they joined, whether the one-time entry bonus was
// paid, whether they voted, and the payout table they were dealt.
//
// A payout table is generated once, on the first join, and never changes
// afterwards. Later joins return the stored record. The bonus and vote
// flags are flipped with conditional UPDATEs so a second attempt is
// observable as "no rows affected" even if two callers race past the
// in-process lock (for example across server instances on Postgres).
//
// Methods with a Tx suffix run on the caller's transaction and expect the
// caller to hold the user's lock from the ledger's keylock.Set. The other
// methods take the lock and open their own transaction.
package participation
