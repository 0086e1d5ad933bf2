// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/swipeflow/db"
	"github.com/danielhkuo/swipeflow/engine"
	"github.com/danielhkuo/swipeflow/middleware"
	"github.com/danielhkuo/swipeflow/models"
	"github.com/danielhkuo/swipeflow/testutil"
)

const (
	ownerID = "owner-1"
	otherID = "user-2"
)

type testEnv struct {
	db        *db.DB
	engine    *engine.Engine
	flows     *FlowHandler
	templates *TemplateHandler
	runs      *RunHandler
	public    *PublicHandler
}

func setupHandlers(t *testing.T) *testEnv {
	t.Helper()
	database := testutil.SetupTestDB(t)
	e := engine.New(database, testutil.GetTestConfig())
	return &testEnv{
		db:        database,
		engine:    e,
		flows:     NewFlowHandler(e),
		templates: NewTemplateHandler(e),
		runs:      NewRunHandler(e),
		public:    NewPublicHandler(e),
	}
}

// newRequest builds a request with JSON body, path values and caller headers.
// A string body is sent verbatim.
func newRequest(t *testing.T, method, target string, body any, userID, sessionToken string, pathValues ...string) *http.Request {
	t.Helper()

	var buf []byte
	switch b := body.(type) {
	case nil:
	case string:
		buf = []byte(b)
	default:
		var err error
		if buf, err = json.Marshal(b); err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, target, bytes.NewReader(buf))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set(middleware.UserIDHeader, userID)
	}
	if sessionToken != "" {
		req.Header.Set("Authorization", "Bearer "+sessionToken)
	}
	for i := 0; i+1 < len(pathValues); i += 2 {
		req.SetPathValue(pathValues[i], pathValues[i+1])
	}
	return req
}

func sampleFlow() models.SaveFlowRequest {
	return models.SaveFlowRequest{
		Name:        "Weekend plans",
		Description: "Find your ideal weekend",
		Cards: []models.CardDraft{
			testutil.Card("Outdoors?", [2]int{0, 10}, nil, testutil.Index(2)),
			testutil.Card("Museums?", [2]int{0, 5}),
			testutil.Card("Late nights?", [2]int{0, 10}),
		},
		IsPublic: true,
	}
}

// createFlow saves sampleFlow as ownerID and returns the response
func createFlow(t *testing.T, env *testEnv) models.SaveFlowResponse {
	t.Helper()
	w := httptest.NewRecorder()
	env.flows.CreateFlow(w, newRequest(t, "POST", "/flows", sampleFlow(), ownerID, ""))
	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.SaveFlowResponse
	testutil.AssertJSON(t, w, &resp)
	return resp
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	testutil.AssertJSON(t, w, &resp)
	return resp
}
