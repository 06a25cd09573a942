// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ledger owns account balances.

Accounts are created lazily with the configured starting balance the first
time a username is referenced. All balance changes go through Debit, Credit
or Transfer (or their Tx variants inside a larger transaction) and each
change writes a ledger_entry audit row.

# Spend Rules

Debits are all-or-nothing. A debit fails with ErrInsufficientFunds when the
amount exceeds the balance, or when the balance is zero or negative and the
amount is positive. Credits always succeed and may be negative: a losing
payout can push a balance below zero.

# Locking

Every public mutation holds the per-user lock for the duration of its
transaction, so concurrent debits for one user never lose updates. Callers
composing a larger critical section (casting a vote, resolving an election)
take the same locks via Locks() and call the Tx variants.
*/
package ledger
