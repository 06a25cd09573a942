// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"strconv"

	"github.com/danielhkuo/election-room/ledger"
	"github.com/danielhkuo/election-room/metrics"
	"github.com/danielhkuo/election-room/middleware"
	"github.com/danielhkuo/election-room/models"
)

type UserHandler struct {
	ledger   *ledger.Ledger
	notifier Notifier
	metrics  *metrics.Metrics
}

func NewUserHandler(l *ledger.Ledger, n Notifier, m *metrics.Metrics) *UserHandler {
	return &UserHandler{ledger: l, notifier: orNop(n), metrics: m}
}

// ListUsers handles GET /users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.ledger.Snapshot(r.Context())
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, accounts)
}

// GetLedger handles GET /users/{username}/ledger
func (h *UserHandler) GetLedger(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	if _, err := h.ledger.Balance(r.Context(), username); err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	entries, err := h.ledger.History(r.Context(), username, limit)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, entries)
}

// Transfer handles POST /transfer
func (h *UserHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req models.TransferRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	fromBalance, toBalance, err := h.ledger.Transfer(r.Context(), req.From, req.To, req.Amount)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	h.metrics.Transfer()

	middleware.JSONResponse(w, http.StatusOK, models.TransferResponse{
		Success:     true,
		FromBalance: fromBalance,
		ToBalance:   toBalance,
	})
	h.notifier.BalancesChanged(r.Context())
}
