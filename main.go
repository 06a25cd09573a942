// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/danielhkuo/election-room/chat"
	"github.com/danielhkuo/election-room/cliparse"
	"github.com/danielhkuo/election-room/db"
	"github.com/danielhkuo/election-room/election"
	"github.com/danielhkuo/election-room/keylock"
	"github.com/danielhkuo/election-room/ledger"
	"github.com/danielhkuo/election-room/metrics"
	"github.com/danielhkuo/election-room/participation"
	"github.com/danielhkuo/election-room/realtime"
	"github.com/danielhkuo/election-room/router"
)

func main() {
	var err error

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(ctx, dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	if cfg.Seed {
		if err := db.Seed(ctx, dbConn, cfg.StartingBalance); err != nil {
			slog.Error("seeding failed", "error", err)
			os.Exit(1)
		}
		slog.Info("Demo data seeded")
	}

	// Services. Election locks are always taken before user locks.
	m := metrics.New(nil)
	l := ledger.New(dbConn, keylock.New(), cfg.StartingBalance)
	registry := participation.New(dbConn, l, keylock.New(), true)
	elections := election.New(dbConn, l, registry, m)
	store := chat.NewStore(dbConn, m)

	hub := realtime.NewHub(cfg.AllowedOrigin, slog.Default(), m)
	gateway := realtime.NewGateway(hub, elections, l, registry, store)

	handler := router.NewRouter(router.Deps{
		Ledger:    l,
		Elections: elections,
		Chat:      store,
		Metrics:   m,
		Notifier:  gateway,
		WS:        hub,
	}, cfg)

	// Create server
	server := http.Server{
		Handler:           handler,
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		slog.Info("Shutting down")
		// Websocket connections are hijacked, so Shutdown won't wait on them
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown failed", "error", err)
			server.Close()
		}
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}
