// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	DefaultPort            = 3001
	DefaultDatabaseType    = "sqlite"
	DefaultDatabaseURL     = "file:election-room.db"
	DefaultStartingBalance = 1000
)

type Config struct {
	Port            int
	DatabaseURL     string
	DatabaseType    string
	StartingBalance int64
	OperatorKey     string
	AllowedOrigin   string
	Seed            bool
}

// ParseFlags validates flags and fills the rest from the environment.
// A .env file in the working directory is loaded first; it never overrides
// variables that are already set.
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	// Missing .env is fine
	_ = godotenv.Load()

	fs := flag.NewFlagSet("election-room", flag.ContinueOnError)

	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.Int64Var(&cfg.StartingBalance, "starting-balance", 0, "Balance for newly created accounts")
	fs.StringVar(&cfg.OperatorKey, "operator-key", "", "Operator key for admin routes (prefer env)")
	fs.StringVar(&cfg.AllowedOrigin, "origin", "", "Allowed CORS / websocket origin")
	fs.BoolVar(&cfg.Seed, "seed", false, "Insert demo users and elections if absent")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = DefaultPort
		}
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = DefaultDatabaseType
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, errors.New("database type must be sqlite or postgres")
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		if cfg.DatabaseType == "postgres" {
			return Config{}, errors.New("database URL required for postgres (use -d or DATABASE_URL env)")
		}
		cfg.DatabaseURL = DefaultDatabaseURL
	}

	if cfg.StartingBalance == 0 {
		if balStr := os.Getenv("STARTING_BALANCE"); balStr != "" {
			bal, err := strconv.ParseInt(balStr, 10, 64)
			if err != nil {
				return Config{}, errors.New("invalid STARTING_BALANCE env variable")
			}
			cfg.StartingBalance = bal
		} else {
			cfg.StartingBalance = DefaultStartingBalance
		}
	}
	if cfg.StartingBalance < 0 {
		return Config{}, errors.New("starting balance cannot be negative")
	}

	// Optional: operator routes are open when no key is configured
	if cfg.OperatorKey == "" {
		cfg.OperatorKey = os.Getenv("OPERATOR_KEY")
	}

	if cfg.AllowedOrigin == "" {
		cfg.AllowedOrigin = os.Getenv("ALLOWED_ORIGIN")
		if cfg.AllowedOrigin == "" {
			cfg.AllowedOrigin = "*"
		}
	}

	if !cfg.Seed {
		if seedStr := os.Getenv("SEED"); seedStr != "" {
			seed, err := strconv.ParseBool(seedStr)
			if err != nil {
				return Config{}, errors.New("invalid SEED env variable")
			}
			cfg.Seed = seed
		}
	}

	return cfg, nil
}
