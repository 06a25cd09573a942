// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides record identifiers and the operator key check.

# Identifiers

Every persisted record (election, participation, stake, message, ledger
entry) and every realtime session gets an opaque UUID:

	id := auth.NewID()

IsID distinguishes these from legacy short identities used by seed data,
so election lookups can accept either form.

# Operator Key

Operator routes (create election, list all, visibility, resolve) check the
X-Operator-Key header when an operator key is configured:

	err := auth.ValidateOperatorKey(r.Header.Get("X-Operator-Key"), cfg.OperatorKey)

With no key configured the routes are open. Usernames are self-asserted;
there is no player authentication.
*/
package auth
