// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package payout

import (
	"math/rand/v2"
	"unicode/utf16"
)

// Payout bands. Jitter never moves a value across zero.
const (
	FavoriteBase      = 120
	FavoriteJitter    = 40
	EquilibriumBase   = 40
	EquilibriumJitter = 15

	// Added to |favorite| when every entry came out non-positive
	FavoriteBoost = 30
)

type band struct {
	base   int64
	jitter int64
}

// Remaining candidates pick one of these by (userIndex*11 + position*17) mod 4
var otherBands = [4]band{
	{base: -60, jitter: 20}, // big loss
	{base: -20, jitter: 10}, // small loss
	{base: 10, jitter: 5},   // tiny gain
	{base: 50, jitter: 15},  // medium gain
}

// DeriveUserIndex maps a username to a stable non-negative index.
// It is the classic 31-multiplier string hash over UTF-16 code units,
// truncated to 32 bits, so the same name gives the same index everywhere.
func DeriveUserIndex(username string) int64 {
	var h int32
	for _, c := range utf16.Encode([]rune(username)) {
		h = h*31 + int32(c)
	}
	idx := int64(h)
	if idx < 0 {
		idx = -idx
	}
	return idx
}

// FavoriteIndex is the position of the candidate paying userIndex the most.
func FavoriteIndex(candidateCount int, userIndex int64) int {
	if candidateCount <= 0 {
		return -1
	}
	return int(userIndex % int64(candidateCount))
}

// EquilibriumIndex is the position of the candidate paying everyone a
// moderate positive amount.
func EquilibriumIndex(candidateCount int) int {
	return candidateCount / 2
}

// Generate builds the payout table for one user.
//
// The favorite (userIndex mod n) gets the top band, the middle candidate
// floor(n/2) gets a moderate gain for everyone, and the rest fall into one
// of four fixed bands chosen from userIndex and position. rng only adds
// cosmetic jitter inside a band; nil means no jitter, which makes the
// table a pure function of its inputs. Every candidate gets an entry and
// at least one entry is positive for any non-empty list.
func Generate(candidates []string, userIndex int64, rng *rand.Rand) map[string]int64 {
	payouts := make(map[string]int64, len(candidates))
	n := len(candidates)
	if n == 0 {
		return payouts
	}

	favorite := FavoriteIndex(n, userIndex)
	equilibrium := EquilibriumIndex(n)

	for pos, name := range candidates {
		var b band
		switch {
		case pos == favorite:
			b = band{base: FavoriteBase, jitter: FavoriteJitter}
		case pos == equilibrium:
			b = band{base: EquilibriumBase, jitter: EquilibriumJitter}
		default:
			b = otherBands[(userIndex*11+int64(pos)*17)%int64(len(otherBands))]
		}
		payouts[name] = b.base + variance(rng, b.jitter)
	}

	positive := false
	for _, v := range payouts {
		if v > 0 {
			positive = true
			break
		}
	}
	if !positive {
		fav := candidates[favorite]
		v := payouts[fav]
		if v < 0 {
			v = -v
		}
		payouts[fav] = v + FavoriteBoost
	}

	return payouts
}

// variance returns a value in [-max, max).
func variance(rng *rand.Rand, max int64) int64 {
	if rng == nil || max <= 0 {
		return 0
	}
	return rng.Int64N(2*max) - max
}
