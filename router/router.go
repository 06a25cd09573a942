// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/election-room/chat"
	"github.com/danielhkuo/election-room/cliparse"
	"github.com/danielhkuo/election-room/election"
	"github.com/danielhkuo/election-room/handlers"
	"github.com/danielhkuo/election-room/ledger"
	"github.com/danielhkuo/election-room/metrics"
	"github.com/danielhkuo/election-room/middleware"
)

// Deps are the services the routes are wired to. Notifier and WS may be
// nil, in which case changes are not pushed and /ws is not served.
type Deps struct {
	Ledger    *ledger.Ledger
	Elections *election.Service
	Chat      *chat.Store
	Metrics   *metrics.Metrics
	Notifier  handlers.Notifier
	WS        http.Handler
}

func NewRouter(deps Deps, cfg cliparse.Config) http.Handler {
	mux := http.NewServeMux()

	// Initialize handlers
	userHandler := handlers.NewUserHandler(deps.Ledger, deps.Notifier, deps.Metrics)
	electionHandler := handlers.NewElectionHandler(deps.Elections)
	votingHandler := handlers.NewVotingHandler(deps.Elections, deps.Notifier)
	messageHandler := handlers.NewMessageHandler(deps.Elections, deps.Chat)

	operator := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireOperator(cfg.OperatorKey, h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", deps.Metrics.Handler())

	// Realtime
	if deps.WS != nil {
		mux.Handle("GET /ws", deps.WS)
	}

	// Accounts
	mux.HandleFunc("GET /users", middleware.WithLogging(userHandler.ListUsers))
	mux.HandleFunc("GET /users/{username}/ledger", middleware.WithLogging(userHandler.GetLedger))
	mux.HandleFunc("POST /transfer", middleware.WithLogging(userHandler.Transfer))

	// Elections
	mux.HandleFunc("GET /elections", middleware.WithLogging(electionHandler.ListVisible))
	mux.HandleFunc("GET /elections/all", operator(electionHandler.ListAll))
	mux.HandleFunc("GET /elections/{id}", middleware.WithLogging(electionHandler.GetElection))
	mux.HandleFunc("POST /elections", operator(electionHandler.CreateElection))
	mux.HandleFunc("PATCH /elections/{id}/visibility", operator(electionHandler.SetVisibility))

	// Voting
	mux.HandleFunc("GET /votes/{electionId}", middleware.WithLogging(votingHandler.GetVotes))
	mux.HandleFunc("GET /payouts/{electionId}/{username}", middleware.WithLogging(votingHandler.GetPayouts))
	mux.HandleFunc("POST /stake", middleware.WithLogging(votingHandler.Stake))
	mux.HandleFunc("POST /resolve", operator(votingHandler.Resolve))

	// Chat
	mux.HandleFunc("GET /messages/{electionId}", middleware.WithLogging(messageHandler.GetMessages))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("election-room API v1"))
	})

	var h http.Handler = mux
	h = deps.Metrics.InstrumentHandler(h)
	h = middleware.CORS(cfg.AllowedOrigin)(h)
	return middleware.Recovery(h)
}
