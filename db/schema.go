// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"fmt"
	"strings"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(ctx context.Context, db *DB) error {
	// Run statement by statement: the SQLite driver executes only the first
	// statement of a multi-statement string.
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

// DropSchema removes every table in dependency order
func DropSchema(ctx context.Context, db *DB) error {
	for _, table := range Tables {
		if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("failed to drop %s: %w", table, err)
		}
	}
	return nil
}

// Tables lists the schema's tables, dependents first
var Tables = []string{
	"flow_run_form_response",
	"flow_run_result",
	"flow_run",
	"result_template",
	"card_connection",
	"card",
	"flow",
}

const schema = `
-- Flows
CREATE TABLE IF NOT EXISTS flow (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    end_cards TEXT NOT NULL DEFAULT '[]',
    is_public BOOLEAN NOT NULL DEFAULT FALSE,
    allow_anonymous BOOLEAN NOT NULL DEFAULT TRUE,
    public_slug TEXT UNIQUE,
    version INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_flow_owner_id ON flow(owner_id);

-- Cards (position defines the sequential order)
CREATE TABLE IF NOT EXISTS card (
    id TEXT PRIMARY KEY,
    flow_id TEXT NOT NULL REFERENCES flow(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    question TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    option0 TEXT NOT NULL,
    option1 TEXT NOT NULL,
    score0 INTEGER NOT NULL DEFAULT 0,
    score1 INTEGER NOT NULL DEFAULT 0,
    skippable BOOLEAN NOT NULL DEFAULT FALSE,
    UNIQUE (flow_id, position)
);

CREATE INDEX IF NOT EXISTS idx_card_flow_id ON card(flow_id);

-- Branch edges, one per (source card, option)
CREATE TABLE IF NOT EXISTS card_connection (
    source_card_id TEXT NOT NULL REFERENCES card(id) ON DELETE CASCADE,
    source_option INTEGER NOT NULL CHECK (source_option IN (0, 1)),
    target_card_id TEXT NOT NULL REFERENCES card(id) ON DELETE CASCADE,
    PRIMARY KEY (source_card_id, source_option)
);

CREATE INDEX IF NOT EXISTS idx_card_connection_target ON card_connection(target_card_id);

-- Result templates
CREATE TABLE IF NOT EXISTS result_template (
    id TEXT PRIMARY KEY,
    flow_id TEXT NOT NULL REFERENCES flow(id) ON DELETE CASCADE,
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    image_url TEXT,
    min_score INTEGER NOT NULL DEFAULT 0,
    max_score INTEGER,
    cta_text TEXT,
    cta_url TEXT,
    sort_order INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_result_template_flow_id ON result_template(flow_id);

-- Runs
CREATE TABLE IF NOT EXISTS flow_run (
    id TEXT PRIMARY KEY,
    flow_id TEXT NOT NULL REFERENCES flow(id) ON DELETE CASCADE,
    flow_version INTEGER NOT NULL,
    user_id TEXT,
    session_token TEXT,
    status TEXT NOT NULL DEFAULT 'created' CHECK (status IN ('created', 'started', 'in_progress', 'completed')),
    current_card_id TEXT,
    started_at TIMESTAMP,
    completed_at TIMESTAMP,
    total_score INTEGER NOT NULL DEFAULT 0,
    score_calculated BOOLEAN NOT NULL DEFAULT FALSE,
    result_template_id TEXT REFERENCES result_template(id) ON DELETE SET NULL,
    template_assigned BOOLEAN NOT NULL DEFAULT FALSE,
    share_token TEXT NOT NULL UNIQUE,
    ip_hash TEXT,
    user_agent TEXT,
    created_at TIMESTAMP NOT NULL,
    CHECK (user_id IS NOT NULL OR session_token IS NOT NULL)
);

CREATE INDEX IF NOT EXISTS idx_flow_run_flow_id ON flow_run(flow_id);
CREATE INDEX IF NOT EXISTS idx_flow_run_completed_at ON flow_run(completed_at);

-- One result row per (run, card), created with the run
CREATE TABLE IF NOT EXISTS flow_run_result (
    run_id TEXT NOT NULL REFERENCES flow_run(id) ON DELETE CASCADE,
    card_id TEXT NOT NULL REFERENCES card(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    answer INTEGER CHECK (answer IN (0, 1)),
    answered_at TIMESTAMP,
    PRIMARY KEY (run_id, card_id)
);

CREATE INDEX IF NOT EXISTS idx_flow_run_result_card_id ON flow_run_result(card_id);

-- Free-form captures from the end card
CREATE TABLE IF NOT EXISTS flow_run_form_response (
    run_id TEXT NOT NULL REFERENCES flow_run(id) ON DELETE CASCADE,
    field_name TEXT NOT NULL,
    field_value TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    PRIMARY KEY (run_id, field_name)
)
`
