// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielhkuo/swipeflow/auth"
	"github.com/danielhkuo/swipeflow/cliparse"
	"github.com/danielhkuo/swipeflow/db"
	"github.com/danielhkuo/swipeflow/flowgraph"
	"github.com/danielhkuo/swipeflow/models"
)

// TestDBEnv names a Postgres URL to run the suite against instead of SQLite
const TestDBEnv = "TEST_DATABASE_URL"

// SetupTestDB creates a fresh test database with the full schema.
// Each test gets its own SQLite file unless TEST_DATABASE_URL is set, in
// which case the Postgres tables are dropped and recreated.
func SetupTestDB(t *testing.T) *db.DB {
	t.Helper()
	ctx := context.Background()

	dialect, dsn := db.SQLite, filepath.Join(t.TempDir(), "swipeflow.db")
	if url := os.Getenv(TestDBEnv); url != "" {
		dialect, dsn = db.Postgres, url
	}

	database, err := db.Open(ctx, dialect, dsn)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if dialect == db.Postgres {
		if err := db.DropSchema(ctx, database); err != nil {
			t.Fatalf("Failed to clean database: %v", err)
		}
	}
	if err := db.CreateSchema(ctx, database); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return database
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:          3318,
		DatabaseType:  string(db.SQLite),
		SlugSalt:      "test-slug-salt",
		IPHashSalt:    "test-ip-salt",
		LogLevel:      "info",
		PublicBaseURL: "http://swipe.test",
	}
}

// Card builds a card draft; branches are indices into the same flow or nil
func Card(question string, scores [2]int, branches ...*int) models.CardDraft {
	return models.CardDraft{
		Question: question,
		Options:  []string{"No", "Yes"},
		Scores:   scores[:],
		Branches: branches,
	}
}

// Index returns a pointer for use as a branch target
func Index(i int) *int { return &i }

// FlowOptions controls the visibility of a fixture flow
type FlowOptions struct {
	Public         bool
	AllowAnonymous bool
}

// CreateTestFlow inserts a flow with the given cards directly, bypassing
// ownership checks, and returns its ID and cards in order
func CreateTestFlow(t *testing.T, database *db.DB, cfg cliparse.Config, ownerID string, opts FlowOptions, drafts ...models.CardDraft) (string, []models.Card) {
	t.Helper()
	ctx := context.Background()

	flowID, _ := auth.GenerateID(16)
	var slug *string
	if opts.Public {
		s := auth.GenerateShareSlug(flowID, cfg.SlugSalt)
		slug = &s
	}

	now := time.Now().UTC()
	_, err := database.ExecContext(ctx, `
		INSERT INTO flow (id, owner_id, name, description, end_cards, is_public,
		                  allow_anonymous, public_slug, version, created_at, updated_at)
		VALUES ($1, $2, 'Test Flow', 'A test flow', '[]', $3, $4, $5, 1, $6, $6)
	`, flowID, ownerID, opts.Public, opts.AllowAnonymous, slug, now)
	if err != nil {
		t.Fatalf("Failed to create test flow: %v", err)
	}

	cards, conns := flowgraph.BuildCards(flowID, drafts, func() string {
		id, _ := auth.GenerateID(12)
		return id
	})
	for _, c := range cards {
		_, err := database.ExecContext(ctx, `
			INSERT INTO card (id, flow_id, position, question, description, option0, option1,
			                  score0, score1, skippable)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, c.ID, c.FlowID, c.Position, c.Question, c.Description, c.Options[0], c.Options[1],
			c.Scores[0], c.Scores[1], c.Skippable)
		if err != nil {
			t.Fatalf("Failed to create test card: %v", err)
		}
	}
	for _, conn := range conns {
		SetConnection(t, database, conn.SourceCardID, conn.SourceOption, conn.TargetCardID)
	}

	return flowID, cards
}

// SetConnection writes a branch edge as-is, replacing any edge for the same
// (source, option). Used to simulate tampered rows.
func SetConnection(t *testing.T, database *db.DB, sourceCardID string, option models.Answer, targetCardID string) {
	t.Helper()
	_, err := database.ExecContext(context.Background(), `
		INSERT INTO card_connection (source_card_id, source_option, target_card_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (source_card_id, source_option)
		DO UPDATE SET target_card_id = excluded.target_card_id
	`, sourceCardID, int(option), targetCardID)
	if err != nil {
		t.Fatalf("Failed to set card connection: %v", err)
	}
}

// CreateTestTemplate adds a result template and returns its ID.
// A negative maxScore means unbounded.
func CreateTestTemplate(t *testing.T, database *db.DB, flowID, title string, minScore, maxScore, order int) string {
	t.Helper()

	templateID, _ := auth.GenerateID(12)
	var upper *int
	if maxScore >= 0 {
		upper = &maxScore
	}
	_, err := database.ExecContext(context.Background(), `
		INSERT INTO result_template (id, flow_id, title, content, min_score, max_score, sort_order, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, templateID, flowID, title, title+" content", minScore, upper, order, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test template: %v", err)
	}
	return templateID
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body any, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
