// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/election-room/election"
	"github.com/danielhkuo/election-room/middleware"
	"github.com/danielhkuo/election-room/models"
)

type ElectionHandler struct {
	elections *election.Service
}

func NewElectionHandler(elections *election.Service) *ElectionHandler {
	return &ElectionHandler{elections: elections}
}

// ListVisible handles GET /elections
func (h *ElectionHandler) ListVisible(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

// ListAll handles GET /elections/all
func (h *ElectionHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

func (h *ElectionHandler) list(w http.ResponseWriter, r *http.Request, visibleOnly bool) {
	elections, err := h.elections.List(r.Context(), visibleOnly)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, elections)
}

// GetElection handles GET /elections/{id}
func (h *ElectionHandler) GetElection(w http.ResponseWriter, r *http.Request) {
	e, err := h.elections.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, e)
}

// CreateElection handles POST /elections
func (h *ElectionHandler) CreateElection(w http.ResponseWriter, r *http.Request) {
	var req models.CreateElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	e, err := h.elections.Create(r.Context(), req)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, e)
}

// SetVisibility handles PATCH /elections/{id}/visibility
func (h *ElectionHandler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	var req models.VisibilityRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.IsVisible == nil {
		middleware.WriteError(w, r, election.ErrVisibilityMissing)
		return
	}

	e, err := h.elections.SetVisibility(r.Context(), r.PathValue("id"), *req.IsVisible)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, e)
}
