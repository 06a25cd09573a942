// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/election-room/election"
	"github.com/danielhkuo/election-room/middleware"
	"github.com/danielhkuo/election-room/models"
	"github.com/danielhkuo/election-room/participation"
)

type VotingHandler struct {
	elections *election.Service
	notifier  Notifier
}

func NewVotingHandler(elections *election.Service, n Notifier) *VotingHandler {
	return &VotingHandler{elections: elections, notifier: orNop(n)}
}

// GetVotes handles GET /votes/{electionId}
func (h *VotingHandler) GetVotes(w http.ResponseWriter, r *http.Request) {
	votes, err := h.elections.Votes(r.Context(), r.PathValue("electionId"))
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, votes)
}

// GetPayouts handles GET /payouts/{electionId}/{username}. The first call
// for a user deals their payout table.
func (h *VotingHandler) GetPayouts(w http.ResponseWriter, r *http.Request) {
	res, err := h.elections.Enroll(r.Context(), r.PathValue("electionId"), r.PathValue("username"))
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.PayoutsResponse{
		Payouts:  participation.PayoutsFor(res.Participation),
		HasVoted: res.Participation.HasVoted,
	})
}

// Stake handles POST /stake. The election's vote cost is charged whatever
// amount the client sends.
func (h *VotingHandler) Stake(w http.ResponseWriter, r *http.Request) {
	var req models.StakeRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	res, err := h.elections.CastVote(r.Context(), req.ElectionID, req.Username, req.Candidate)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.StakeResponse{
		Success: true,
		Balance: res.Balance,
		Votes:   res.Election.Votes,
		Winner:  res.Winner,
	})
	h.notifier.VoteCast(r.Context(), res)
}

// Resolve handles POST /resolve
func (h *VotingHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req models.ResolveRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	res, err := h.elections.Resolve(r.Context(), req.ElectionID, req.Winner)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ResolveResponse{
		Success:         true,
		Winner:          res.Winner,
		AlreadyResolved: res.AlreadyResolved,
		Results:         res.Results,
	})
	if !res.AlreadyResolved {
		h.notifier.Resolved(r.Context(), res.Election, res.Winner, res.Results)
	}
}
