// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /users", middleware.WithLogging(handler))

Logs request start (method, path, remote) and completion (status,
duration_ms).

# Recovery and CORS

Both wrap the whole mux:

	handler := middleware.Recovery(middleware.CORS(cfg.AllowedOrigin)(mux))

CORS allows GET, POST, PATCH and OPTIONS with the Content-Type and
X-Operator-Key headers. A "*" origin reflects the caller's Origin.

# Operator Routes

	mux.HandleFunc("POST /resolve", middleware.RequireOperator(cfg.OperatorKey, h.Resolve))

When no operator key is configured every caller is an operator.

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")
	middleware.WriteError(w, r, err)

WriteError picks the status from the error's apperr kind, so a closed
election, an unknown election, a repeat vote and a short balance each
reach the client with their own message.
*/
package middleware
