// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/election-room/models"
	"github.com/danielhkuo/election-room/testutil"
)

func TestListUsers(t *testing.T) {
	env := setupEnv(t)
	testutil.CreateTestAccount(t, env.db, "Bob", 500)
	testutil.CreateTestAccount(t, env.db, "Alice", 700)

	w := httptest.NewRecorder()
	env.users.ListUsers(w, testutil.MakeRequest("GET", "/users", nil, nil))

	testutil.AssertStatus(t, w, http.StatusOK)
	var accounts []models.Account
	testutil.AssertJSON(t, w, &accounts)

	if len(accounts) != 2 || accounts[0].Username != "Alice" || accounts[1].Balance != 500 {
		t.Errorf("Unexpected accounts: %+v", accounts)
	}
}

func TestListUsersEmpty(t *testing.T) {
	env := setupEnv(t)

	w := httptest.NewRecorder()
	env.users.ListUsers(w, testutil.MakeRequest("GET", "/users", nil, nil))

	testutil.AssertStatus(t, w, http.StatusOK)
	if body := strings.TrimSpace(w.Body.String()); body != "[]" {
		t.Errorf("Expected empty array, got %s", body)
	}
}

func TestTransfer(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		expectedStatus int
		expectedMsg    string
	}{
		{"success", models.TransferRequest{From: "Alice", To: "Bob", Amount: 100}, http.StatusOK, ""},
		{"to new user", models.TransferRequest{From: "Alice", To: "Newcomer", Amount: 1}, http.StatusOK, ""},
		{"insufficient", models.TransferRequest{From: "Alice", To: "Bob", Amount: 5000}, http.StatusBadRequest, "Not enough balance"},
		{"self", models.TransferRequest{From: "Alice", To: "Alice", Amount: 1}, http.StatusBadRequest, "cannot transfer to yourself"},
		{"zero amount", models.TransferRequest{From: "Alice", To: "Bob", Amount: 0}, http.StatusBadRequest, "amount must be positive"},
		{"missing from", models.TransferRequest{To: "Bob", Amount: 1}, http.StatusBadRequest, "username is required"},
		{"invalid json", "not an object", http.StatusBadRequest, "Invalid JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupEnv(t)
			testutil.CreateTestAccount(t, env.db, "Alice", 1000)
			testutil.CreateTestAccount(t, env.db, "Bob", 1000)

			w := httptest.NewRecorder()
			env.users.Transfer(w, testutil.MakeRequest("POST", "/transfer", tt.body, nil))

			testutil.AssertStatus(t, w, tt.expectedStatus)
			if tt.expectedStatus != http.StatusOK {
				var resp models.ErrorResponse
				testutil.AssertJSON(t, w, &resp)
				if resp.Message != tt.expectedMsg {
					t.Errorf("Expected message %q, got %q", tt.expectedMsg, resp.Message)
				}
				if got := testutil.GetBalance(t, env.db, "Alice"); got != 1000 {
					t.Errorf("Failed transfer moved Alice's balance to %d", got)
				}
				if env.notifier.balances != 0 {
					t.Error("Failed transfer notified")
				}
				return
			}

			var resp models.TransferResponse
			testutil.AssertJSON(t, w, &resp)
			req := tt.body.(models.TransferRequest)
			if resp.FromBalance != 1000-req.Amount {
				t.Errorf("FromBalance = %d", resp.FromBalance)
			}
			if env.notifier.balances != 1 {
				t.Errorf("Expected 1 balance notification, got %d", env.notifier.balances)
			}
		})
	}
}

func TestGetLedger(t *testing.T) {
	env := setupEnv(t)
	testutil.CreateTestAccount(t, env.db, "Alice", 1000)

	w := httptest.NewRecorder()
	env.users.Transfer(w, testutil.MakeRequest("POST", "/transfer",
		models.TransferRequest{From: "Alice", To: "Bob", Amount: 25}, nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	t.Run("entries", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/users/Alice/ledger", nil, nil)
		req.SetPathValue("username", "Alice")
		w := httptest.NewRecorder()
		env.users.GetLedger(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)
		var entries []models.LedgerEntry
		testutil.AssertJSON(t, w, &entries)
		if len(entries) != 1 || entries[0].Kind != models.EntryTransferOut || entries[0].Amount != -25 {
			t.Errorf("Unexpected entries: %+v", entries)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/users/Nobody/ledger", nil, nil)
		req.SetPathValue("username", "Nobody")
		w := httptest.NewRecorder()
		env.users.GetLedger(w, req)

		testutil.AssertStatus(t, w, http.StatusNotFound)
	})

	t.Run("bad limit", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/users/Alice/ledger?limit=abc", nil, nil)
		req.SetPathValue("username", "Alice")
		w := httptest.NewRecorder()
		env.users.GetLedger(w, req)

		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})
}
