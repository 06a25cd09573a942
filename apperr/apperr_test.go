// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"not found", New(NotFound, "Election not found"), http.StatusNotFound, "Election not found"},
		{"invalid state", New(InvalidState, "Election is closed"), http.StatusBadRequest, "Election is closed"},
		{"insufficient funds", New(InsufficientFunds, "Not enough balance"), http.StatusBadRequest, "Not enough balance"},
		{"invalid input", New(Invalid, "title is required"), http.StatusBadRequest, "title is required"},
		{"wrapped", fmt.Errorf("cast vote: %w", New(InvalidState, "Already voted")), http.StatusBadRequest, "Already voted"},
		{"plain error", errors.New("connection refused"), http.StatusInternalServerError, "Internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Status(tt.err); got != tt.status {
				t.Errorf("Status() = %d, want %d", got, tt.status)
			}
			if got := Message(tt.err); got != tt.msg {
				t.Errorf("Message() = %q, want %q", got, tt.msg)
			}
		})
	}
}

func TestKindOfSentinelIdentity(t *testing.T) {
	sentinel := New(InvalidState, "Election is closed")
	wrapped := fmt.Errorf("vote: %w", sentinel)

	if !errors.Is(wrapped, sentinel) {
		t.Error("expected errors.Is to match the sentinel")
	}
	if KindOf(wrapped) != InvalidState {
		t.Errorf("expected invalid_state, got %s", KindOf(wrapped))
	}
}
