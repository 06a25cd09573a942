// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/election-room/chat"
	"github.com/danielhkuo/election-room/election"
	"github.com/danielhkuo/election-room/middleware"
)

type MessageHandler struct {
	elections *election.Service
	chat      *chat.Store
}

func NewMessageHandler(elections *election.Service, store *chat.Store) *MessageHandler {
	return &MessageHandler{elections: elections, chat: store}
}

// GetMessages handles GET /messages/{electionId}
func (h *MessageHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	e, err := h.elections.Get(r.Context(), r.PathValue("electionId"))
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	messages, err := h.chat.History(r.Context(), e.ID)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, messages)
}
