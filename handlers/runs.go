// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/danielhkuo/swipeflow/engine"
	"github.com/danielhkuo/swipeflow/middleware"
	"github.com/danielhkuo/swipeflow/models"
)

// RunHandler drives a participant through a flow.
// Anonymous participants authenticate with the session token returned at
// creation, sent as "Authorization: Bearer <token>".
type RunHandler struct {
	engine *engine.Engine
}

func NewRunHandler(e *engine.Engine) *RunHandler {
	return &RunHandler{engine: e}
}

// CreateRun handles POST /flows/{id}/runs
func (h *RunHandler) CreateRun(w http.ResponseWriter, r *http.Request) {
	resp, err := h.engine.CreateRun(r.Context(), middleware.CallerFromRequest(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, resp)
}

// GetRun handles GET /runs/{id}
func (h *RunHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	view, err := h.engine.GetRun(r.Context(), middleware.CallerFromRequest(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, view)
}

// StartRun handles POST /runs/{id}/start
func (h *RunHandler) StartRun(w http.ResponseWriter, r *http.Request) {
	resp, err := h.engine.StartRun(r.Context(), middleware.CallerFromRequest(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// SubmitAnswer handles POST /runs/{id}/answers
func (h *RunHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitAnswerRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		invalidJSON(w)
		return
	}
	if req.CardID == "" {
		badRequest(w, "card_id is required")
		return
	}
	if req.Answer == nil {
		badRequest(w, "answer is required")
		return
	}

	resp, err := h.engine.SubmitAnswer(r.Context(), middleware.CallerFromRequest(r),
		r.PathValue("id"), req.CardID, models.Answer(*req.Answer))
	if err != nil {
		writeError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// SkipCard handles POST /runs/{id}/skip
func (h *RunHandler) SkipCard(w http.ResponseWriter, r *http.Request) {
	var req models.SkipCardRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		invalidJSON(w)
		return
	}
	if req.CardID == "" {
		badRequest(w, "card_id is required")
		return
	}

	resp, err := h.engine.SkipCard(r.Context(), middleware.CallerFromRequest(r), r.PathValue("id"), req.CardID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// StopRun handles POST /runs/{id}/stop. The body is optional.
func (h *RunHandler) StopRun(w http.ResponseWriter, r *http.Request) {
	var req models.StopRunRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		invalidJSON(w)
		return
	}

	resp, err := h.engine.StopRun(r.Context(), middleware.CallerFromRequest(r), r.PathValue("id"), req.FormFields)
	if err != nil {
		writeError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}
