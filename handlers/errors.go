// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/swipeflow/engine"
	"github.com/danielhkuo/swipeflow/flowgraph"
	"github.com/danielhkuo/swipeflow/middleware"
)

// Error codes returned alongside the message so clients need not parse text
const (
	CodeInvalidJSON     = "invalid_json"
	CodeInvalidRequest  = "invalid_request"
	CodeNotFound        = "not_found"
	CodeForbidden       = "forbidden"
	CodeSignInRequired  = "sign_in_required"
	CodeActiveRuns      = "active_runs"
	CodeRunCompleted    = "run_completed"
	CodeRunNotCompleted = "run_not_completed"
	CodeNotSkippable    = "not_skippable"
	CodeInvalidAnswer   = "invalid_answer"
)

var errorTable = []struct {
	err     error
	status  int
	code    string
	message string
}{
	{engine.ErrFlowNotFound, http.StatusNotFound, CodeNotFound, "Flow not found"},
	{engine.ErrRunNotFound, http.StatusNotFound, CodeNotFound, "Run not found"},
	{engine.ErrCardNotFound, http.StatusNotFound, CodeNotFound, "Card not found in this flow"},
	{engine.ErrTemplateNotFound, http.StatusNotFound, CodeNotFound, "Result template not found"},
	{engine.ErrForbidden, http.StatusForbidden, CodeForbidden, "Not allowed"},
	{engine.ErrAnonymousNotAllowed, http.StatusUnauthorized, CodeSignInRequired, "This flow requires sign-in"},
	{engine.ErrActiveRuns, http.StatusConflict, CodeActiveRuns, "Flow has runs in progress"},
	{engine.ErrRunCompleted, http.StatusConflict, CodeRunCompleted, "Run already completed"},
	{engine.ErrRunNotCompleted, http.StatusConflict, CodeRunNotCompleted, "Run not completed"},
	{engine.ErrNotSkippable, http.StatusUnprocessableEntity, CodeNotSkippable, "Card cannot be skipped"},
	{engine.ErrInvalidAnswer, http.StatusBadRequest, CodeInvalidAnswer, "answer must be 0 or 1"},
}

// writeError answers with the status matching err. Anything unrecognised is
// logged and reported as a 500 without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *flowgraph.ValidationError
	if errors.As(err, &ve) {
		middleware.DetailedErrorResponse(w, http.StatusUnprocessableEntity, ve.Error(), string(ve.Kind), ve)
		return
	}

	for _, e := range errorTable {
		if errors.Is(err, e.err) {
			middleware.DetailedErrorResponse(w, e.status, e.message, e.code, nil)
			return
		}
	}

	slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	middleware.ErrorResponse(w, http.StatusInternalServerError, "Internal server error")
}

func badRequest(w http.ResponseWriter, message string) {
	middleware.DetailedErrorResponse(w, http.StatusBadRequest, message, CodeInvalidRequest, nil)
}

func invalidJSON(w http.ResponseWriter) {
	middleware.DetailedErrorResponse(w, http.StatusBadRequest, "Invalid JSON", CodeInvalidJSON, nil)
}
