// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Swipeflow API server.

Swipeflow runs card-swipe flows: an author builds a sequence of two-option
cards, each answer can jump ahead to a later card, and a finished run is
scored and matched to a result template.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=swipeflow.db SLUG_SALT=... IP_HASH_SALT=... go run .

Or with flags against Postgres:

	go run . -t postgres -d "postgres://..." -slug-salt ... -ip-salt ...

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite file path or PostgreSQL connection string
  - SLUG_SALT (-slug-salt): Secret for public slug HMAC
  - IP_HASH_SALT (-ip-salt): Secret for hashing participant IPs

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - LOG_LEVEL (-log-level): debug, info, warn or error (default: info)
  - SEED_FILE (-seed): YAML fixtures applied at start-up
  - PUBLIC_BASE_URL (-base-url): Prefix for public flow links

A .env file in the working directory is loaded first if present.

# Architecture

  - engine: Flow saving, run state machine, scoring and template matching
  - flowgraph: Validation, cycle detection, branch resolution, score sums
  - handlers: HTTP request handlers over the engine
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, metrics, JSON helpers, caller identity
  - metrics: Prometheus collectors
  - models: Domain, request and response types
  - auth: ID, token and slug generation
  - db: Connection, dialect rebinding and schema
  - seed: YAML fixtures
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
