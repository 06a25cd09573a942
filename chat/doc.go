// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package chat stores per-election chat and formats system announcements.
//
// Messages are append-only and read back oldest first. The "System"
// sender is reserved for announcements such as entry bonus grants and
// election results; users cannot post under it.
package chat
