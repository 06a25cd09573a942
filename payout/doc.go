// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package payout generates personalized payout tables.

Each participant sees a different payoff for every possible winner:

	idx := payout.DeriveUserIndex("Alice")
	table := payout.Generate([]string{"Sarah", "John", "Mary"}, idx, rng)

# Bands

  - favorite (idx mod n): 120 ± 40
  - equilibrium (n / 2): 40 ± 15, positive for everyone
  - others: one of -60 ± 20, -20 ± 10, 10 ± 5, 50 ± 15,
    picked by (idx*11 + position*17) mod 4

The equilibrium candidate gives every player an attractive option besides
their favorite. Jitter comes from the caller's *rand.Rand and is cosmetic;
pass nil for a fully deterministic table. Tables are generated once per
participation and never recomputed.
*/
package payout
