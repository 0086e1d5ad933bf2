// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/swipeflow/cliparse"
	"github.com/danielhkuo/swipeflow/db"
	"github.com/danielhkuo/swipeflow/models"
	"github.com/danielhkuo/swipeflow/testutil"
)

var (
	owner       = models.Caller{UserID: "owner-1", IP: "198.51.100.7", UserAgent: "engine-test"}
	participant = models.Caller{UserID: "user-2", IP: "198.51.100.8", UserAgent: "engine-test"}
	anonymous   = models.Caller{IP: "203.0.113.9", UserAgent: "engine-test"}
)

type recordingReporter struct {
	mu     sync.Mutex
	events []models.SecurityEvent
}

func (r *recordingReporter) ReportInvalidBranch(_ context.Context, ev models.SecurityEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingReporter) Events() []models.SecurityEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.SecurityEvent(nil), r.events...)
}

type fixture struct {
	engine   *Engine
	db       *db.DB
	cfg      cliparse.Config
	reporter *recordingReporter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	reporter := &recordingReporter{}
	return &fixture{
		engine:   New(database, cfg, WithSecurityReporter(reporter)),
		db:       database,
		cfg:      cfg,
		reporter: reporter,
	}
}

// flow creates an owner-1 flow, public and open to anonymous participants
func (f *fixture) flow(t *testing.T, drafts ...models.CardDraft) (string, []models.Card) {
	t.Helper()
	return testutil.CreateTestFlow(t, f.db, f.cfg, owner.UserID,
		testutil.FlowOptions{Public: true, AllowAnonymous: true}, drafts...)
}

// run creates a run for caller and returns it with caller's session token filled in
func (f *fixture) run(t *testing.T, caller models.Caller, flowID string) (*models.CreateRunResponse, models.Caller) {
	t.Helper()
	resp, err := f.engine.CreateRun(context.Background(), caller, flowID)
	require.NoError(t, err)
	caller.SessionToken = resp.SessionToken
	return resp, caller
}

func (f *fixture) count(t *testing.T, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.QueryRowContext(context.Background(), query, args...).Scan(&n))
	return n
}
