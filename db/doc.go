// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the relational store and creates its schema.

# Dialects

Two backends are supported behind one set of queries:

	conn, err := db.Open(ctx, db.Postgres, "postgres://...")
	conn, err := db.Open(ctx, db.SQLite, "/var/lib/swipeflow.db")

Queries are written with Postgres $n placeholders. DB and Tx rebind them to
?n on SQLite. Row locks use Dialect.ForUpdate: "FOR UPDATE" on Postgres and
nothing on SQLite, where transactions begin IMMEDIATE and so already hold the
write lock.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(ctx, conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - flow: Flow metadata, end cards, visibility, structural version
  - card: Binary-choice cards, ordered by position within a flow
  - card_connection: Branch edges, unique per (source card, option)
  - result_template: Score-range outcomes per flow
  - flow_run: One execution of a flow by one participant
  - flow_run_result: One row per (run, card)
  - flow_run_form_response: End-card captures

# Relationships

	flow 1──* card
	card 1──* card_connection (source) / (target)
	flow 1──* result_template
	flow 1──* flow_run
	flow_run 1──* flow_run_result *──1 card
	flow_run 1──* flow_run_form_response

Foreign keys cascade on delete, except flow_run.result_template_id which is
set to NULL.
*/
package db
