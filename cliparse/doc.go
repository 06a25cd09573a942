// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3001)
  - DatabaseType: "sqlite" (default) or "postgres"
  - DatabaseURL: connection string (default: file:election-room.db for sqlite)
  - StartingBalance: balance given to lazily created accounts (default: 1000)
  - OperatorKey: optional secret guarding operator routes
  - AllowedOrigin: CORS and websocket origin (default: *)
  - Seed: insert demo users and elections on startup

# CLI Flags

	-p                 Server port
	-d                 Database URL
	-t                 Database type
	--starting-balance Starting account balance
	--operator-key     Operator key
	--origin           Allowed origin
	--seed             Seed demo data

# Environment Variables

A .env file is loaded first (existing variables win). Flags fall back to:

	PORT             → -p
	DATABASE_URL     → -d
	DATABASE_TYPE    → -t
	STARTING_BALANCE → --starting-balance
	OPERATOR_KEY     → --operator-key
	ALLOWED_ORIGIN   → --origin
	SEED             → --seed

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if:

  - PORT, STARTING_BALANCE or SEED cannot be parsed
  - DatabaseType is not sqlite or postgres
  - postgres is selected without a DATABASE_URL
  - StartingBalance is negative
*/
package cliparse
