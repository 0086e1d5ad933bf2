// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

Values are layered: a .env file (optional) feeds the environment, the
environment is decoded into Config with caarlos0/env, and CLI flags override
whatever the environment provided.

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: Postgres URL or SQLite path (required)
  - DatabaseType: "sqlite" (default) or "postgres"
  - SlugSalt: Secret for public flow slugs (required)
  - IPHashSalt: Secret for hashing participant IPs (required)
  - LogLevel: debug, info (default), warn or error
  - SeedFile: optional YAML file of flows loaded at start-up
  - PublicBaseURL: base for share links (default: http://localhost:3318)

# CLI Flags and Environment Variables

	-p          PORT
	-d          DATABASE_URL
	-t          DATABASE_TYPE
	-slug-salt  SLUG_SALT
	-ip-salt    IP_HASH_SALT
	-log-level  LOG_LEVEL
	-seed       SEED_FILE
	-base-url   PUBLIC_BASE_URL

CLI flags take precedence over environment variables.
*/
package cliparse
