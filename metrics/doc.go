// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package metrics exposes Prometheus collectors for the game: votes by
// outcome, resolutions by trigger, the payout distribution, entry bonuses,
// transfers, chat volume, connected realtime sessions, and HTTP requests.
//
// Collectors are registered through promauto on a private registry which
// is served at GET /metrics.
package metrics
