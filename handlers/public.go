// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/swipeflow/engine"
	"github.com/danielhkuo/swipeflow/middleware"
	"github.com/danielhkuo/swipeflow/models"
)

// PublicHandler serves the routes reachable by slug or share token
type PublicHandler struct {
	engine *engine.Engine
}

func NewPublicHandler(e *engine.Engine) *PublicHandler {
	return &PublicHandler{engine: e}
}

// GetFlow handles GET /p/{slug}. Scores and branches are never exposed.
func (h *PublicHandler) GetFlow(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	flow, err := h.engine.GetPublicFlow(r.Context(), slug)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := models.PublicFlowResponse{
		Slug:           slug,
		Name:           flow.Name,
		Description:    flow.Description,
		CardCount:      len(flow.Cards),
		AllowAnonymous: flow.AllowAnonymous,
		Cards:          make([]models.CardView, len(flow.Cards)),
	}
	for i, c := range flow.Cards {
		resp.Cards[i] = c.View()
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// CreateRun handles POST /p/{slug}/runs
func (h *PublicHandler) CreateRun(w http.ResponseWriter, r *http.Request) {
	resp, err := h.engine.CreatePublicRun(r.Context(), middleware.CallerFromRequest(r), r.PathValue("slug"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, resp)
}

// GetSharedResult handles GET /shared/{token}
func (h *PublicHandler) GetSharedResult(w http.ResponseWriter, r *http.Request) {
	resp, err := h.engine.GetSharedResult(r.Context(), r.PathValue("token"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}
