// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/danielhkuo/election-room/apperr"
	"github.com/danielhkuo/election-room/auth"
	"github.com/danielhkuo/election-room/db"
	"github.com/danielhkuo/election-room/keylock"
	"github.com/danielhkuo/election-room/models"
)

var (
	ErrInsufficientFunds = apperr.New(apperr.InsufficientFunds, "Not enough balance")
	ErrInvalidAmount     = apperr.New(apperr.Invalid, "amount must be positive")
	ErrUsernameRequired  = apperr.New(apperr.Invalid, "username is required")
	ErrSelfTransfer      = apperr.New(apperr.Invalid, "cannot transfer to yourself")
	ErrAccountNotFound   = apperr.New(apperr.NotFound, "User not found")
)

// Ledger owns every balance mutation. Account rows are only written here.
//
// Methods ending in Tx run on the caller's transaction and assume the
// caller already holds the user lock; the others lock and open their own
// transaction.
type Ledger struct {
	db              *sql.DB
	users           *keylock.Set
	startingBalance int64
}

func New(conn *sql.DB, users *keylock.Set, startingBalance int64) *Ledger {
	return &Ledger{db: conn, users: users, startingBalance: startingBalance}
}

// Locks exposes the per-user lock set so callers composing larger critical
// sections use the same keys.
func (l *Ledger) Locks() *keylock.Set {
	return l.users
}

// CheckDebit applies the spend rules: no partial debits, and an empty or
// negative balance cannot spend anything.
func CheckDebit(balance, amount int64) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	if amount > balance {
		return ErrInsufficientFunds
	}
	if balance <= 0 && amount > 0 {
		return ErrInsufficientFunds
	}
	return nil
}

func normalize(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", ErrUsernameRequired
	}
	return username, nil
}

// EnsureTx returns the account, creating it with the starting balance if
// absent.
func (l *Ledger) EnsureTx(ctx context.Context, q db.Querier, username string) (models.Account, error) {
	_, err := q.ExecContext(ctx, `
		INSERT INTO account (username, balance, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (username) DO NOTHING
	`, username, l.startingBalance, time.Now().UTC())
	if err != nil {
		return models.Account{}, fmt.Errorf("create account: %w", err)
	}

	acct := models.Account{Username: username}
	err = q.QueryRowContext(ctx, `
		SELECT balance FROM account WHERE username = $1
	`, username).Scan(&acct.Balance)
	if err != nil {
		return models.Account{}, fmt.Errorf("read account: %w", err)
	}
	return acct, nil
}

// DebitTx removes amount from the account, failing without any change when
// the spend rules reject it. Returns the new balance.
func (l *Ledger) DebitTx(ctx context.Context, q db.Querier, username string, amount int64, kind, electionID string) (int64, error) {
	acct, err := l.EnsureTx(ctx, q, username)
	if err != nil {
		return 0, err
	}
	if err := CheckDebit(acct.Balance, amount); err != nil {
		return acct.Balance, err
	}
	return l.apply(ctx, q, username, -amount, kind, electionID)
}

// CreditTx adds amount to the account. amount may be negative (a losing
// payout) and the balance may end up below zero.
func (l *Ledger) CreditTx(ctx context.Context, q db.Querier, username string, amount int64, kind, electionID string) (int64, error) {
	if _, err := l.EnsureTx(ctx, q, username); err != nil {
		return 0, err
	}
	return l.apply(ctx, q, username, amount, kind, electionID)
}

func (l *Ledger) apply(ctx context.Context, q db.Querier, username string, delta int64, kind, electionID string) (int64, error) {
	var balance int64
	err := q.QueryRowContext(ctx, `
		UPDATE account SET balance = balance + $1
		WHERE username = $2
		RETURNING balance
	`, delta, username).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("update balance: %w", err)
	}

	var election *string
	if electionID != "" {
		election = &electionID
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO ledger_entry (id, username, kind, amount, balance_after, election_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, auth.NewID(), username, kind, delta, balance, election, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("record ledger entry: %w", err)
	}

	return balance, nil
}

// GetOrCreate returns the account for username, creating it if needed.
// GetOrCreate, Debit and Credit each run their own transaction under the
// user lock. Inside an election transaction use the Tx variants instead.
func (l *Ledger) GetOrCreate(ctx context.Context, username string) (models.Account, error) {
	username, err := normalize(username)
	if err != nil {
		return models.Account{}, err
	}

	unlock := l.users.Lock(username)
	defer unlock()

	return l.EnsureTx(ctx, l.db, username)
}

// Debit spends amount from username's balance.
func (l *Ledger) Debit(ctx context.Context, username string, amount int64, kind string) (int64, error) {
	username, err := normalize(username)
	if err != nil {
		return 0, err
	}

	unlock := l.users.Lock(username)
	defer unlock()

	var balance int64
	err = db.WithTx(ctx, l.db, func(tx *sql.Tx) error {
		var err error
		balance, err = l.DebitTx(ctx, tx, username, amount, kind, "")
		return err
	})
	return balance, err
}

// Credit adds amount (possibly negative) to username's balance.
func (l *Ledger) Credit(ctx context.Context, username string, amount int64, kind string) (int64, error) {
	username, err := normalize(username)
	if err != nil {
		return 0, err
	}

	unlock := l.users.Lock(username)
	defer unlock()

	var balance int64
	err = db.WithTx(ctx, l.db, func(tx *sql.Tx) error {
		var err error
		balance, err = l.CreditTx(ctx, tx, username, amount, kind, "")
		return err
	})
	return balance, err
}

// Transfer moves amount between two accounts atomically. Both user locks
// are held for the whole transaction.
func (l *Ledger) Transfer(ctx context.Context, from, to string, amount int64) (fromBalance, toBalance int64, err error) {
	if from, err = normalize(from); err != nil {
		return 0, 0, err
	}
	if to, err = normalize(to); err != nil {
		return 0, 0, err
	}
	if from == to {
		return 0, 0, ErrSelfTransfer
	}
	if amount <= 0 {
		return 0, 0, ErrInvalidAmount
	}

	unlock := l.users.Lock(from, to)
	defer unlock()

	err = db.WithTx(ctx, l.db, func(tx *sql.Tx) error {
		var err error
		if fromBalance, err = l.DebitTx(ctx, tx, from, amount, models.EntryTransferOut, ""); err != nil {
			return err
		}
		toBalance, err = l.CreditTx(ctx, tx, to, amount, models.EntryTransferIn, "")
		return err
	})
	if err != nil {
		return 0, 0, err
	}

	slog.Info("transfer completed", "from", from, "to", to, "amount", amount)
	return fromBalance, toBalance, nil
}

// Balance reads a balance without creating the account.
func (l *Ledger) Balance(ctx context.Context, username string) (int64, error) {
	var balance int64
	err := l.db.QueryRowContext(ctx, `
		SELECT balance FROM account WHERE username = $1
	`, username).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, ErrAccountNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return balance, nil
}

// Snapshot lists every account, ordered by username.
func (l *Ledger) Snapshot(ctx context.Context) ([]models.Account, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT username, balance FROM account ORDER BY username
	`)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.Username, &a.Balance); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// History returns the newest ledger entries for username.
func (l *Ledger) History(ctx context.Context, username string, limit int) ([]models.LedgerEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, username, kind, amount, balance_after, election_id, created_at
		FROM ledger_entry
		WHERE username = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, username, limit)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	entries := []models.LedgerEntry{}
	for rows.Next() {
		var e models.LedgerEntry
		if err := rows.Scan(&e.ID, &e.Username, &e.Kind, &e.Amount, &e.BalanceAfter, &e.ElectionID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
