// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/swipeflow/models"
	"github.com/danielhkuo/swipeflow/testutil"
)

func TestTemplateRoutes(t *testing.T) {
	env := setupHandlers(t)
	flowID := createFlow(t, env).FlowID
	path := "/flows/" + flowID + "/templates"

	// Empty list encodes as [] rather than null
	w := httptest.NewRecorder()
	env.templates.ListTemplates(w, newRequest(t, "GET", path, nil, ownerID, "", "id", flowID))
	testutil.AssertStatus(t, w, http.StatusOK)
	if body := w.Body.String(); body != "[]\n" {
		t.Errorf("Expected empty JSON array, got %q", body)
	}

	w = httptest.NewRecorder()
	env.templates.CreateTemplate(w, newRequest(t, "POST", path, models.TemplateRequest{
		Title:   "Homebody",
		Content: "A quiet weekend suits you",
	}, ownerID, "", "id", flowID))
	testutil.AssertStatus(t, w, http.StatusCreated)

	var created models.ResultTemplate
	testutil.AssertJSON(t, w, &created)
	if created.ID == "" || created.FlowID != flowID {
		t.Fatalf("Unexpected template: %+v", created)
	}

	maxScore := 4
	w = httptest.NewRecorder()
	env.templates.UpdateTemplate(w, newRequest(t, "PUT", path+"/"+created.ID, models.TemplateRequest{
		Title:    "Homebody",
		Content:  "Stay in",
		MaxScore: &maxScore,
	}, ownerID, "", "id", flowID, "templateId", created.ID))
	testutil.AssertStatus(t, w, http.StatusOK)

	w = httptest.NewRecorder()
	env.templates.ListTemplates(w, newRequest(t, "GET", path, nil, ownerID, "", "id", flowID))
	var list []models.ResultTemplate
	testutil.AssertJSON(t, w, &list)
	if len(list) != 1 || list[0].Content != "Stay in" || list[0].MaxScore == nil || *list[0].MaxScore != 4 {
		t.Errorf("Unexpected templates after update: %+v", list)
	}

	w = httptest.NewRecorder()
	env.templates.DeleteTemplate(w, newRequest(t, "DELETE", path+"/"+created.ID, nil, ownerID, "",
		"id", flowID, "templateId", created.ID))
	testutil.AssertStatus(t, w, http.StatusNoContent)

	w = httptest.NewRecorder()
	env.templates.DeleteTemplate(w, newRequest(t, "DELETE", path+"/"+created.ID, nil, ownerID, "",
		"id", flowID, "templateId", created.ID))
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestCreateTemplateValidation(t *testing.T) {
	env := setupHandlers(t)
	flowID := createFlow(t, env).FlowID
	path := "/flows/" + flowID + "/templates"

	low := 5
	badURL := "not a url"

	tests := []struct {
		name           string
		body           any
		userID         string
		expectedStatus int
	}{
		{"missing title", models.TemplateRequest{Content: "x"}, ownerID, http.StatusUnprocessableEntity},
		{"max below min", models.TemplateRequest{Title: "t", Content: "x", MinScore: 10, MaxScore: &low}, ownerID, http.StatusUnprocessableEntity},
		{"negative min", models.TemplateRequest{Title: "t", Content: "x", MinScore: -1}, ownerID, http.StatusUnprocessableEntity},
		{"bad cta url", models.TemplateRequest{Title: "t", Content: "x", CTAURL: &badURL}, ownerID, http.StatusUnprocessableEntity},
		{"invalid JSON", "[", ownerID, http.StatusBadRequest},
		{"not the owner", models.TemplateRequest{Title: "t", Content: "x"}, otherID, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			env.templates.CreateTemplate(w, newRequest(t, "POST", path, tt.body, tt.userID, "", "id", flowID))
			testutil.AssertStatus(t, w, tt.expectedStatus)
		})
	}
}
