// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/swipeflow/engine"
	"github.com/danielhkuo/swipeflow/middleware"
	"github.com/danielhkuo/swipeflow/models"
)

type FlowHandler struct {
	engine *engine.Engine
}

func NewFlowHandler(e *engine.Engine) *FlowHandler {
	return &FlowHandler{engine: e}
}

// CreateFlow handles POST /flows
func (h *FlowHandler) CreateFlow(w http.ResponseWriter, r *http.Request) {
	var req models.SaveFlowRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		invalidJSON(w)
		return
	}

	resp, err := h.engine.CreateFlow(r.Context(), middleware.CallerFromRequest(r), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, resp)
}

// UpdateFlow handles PUT /flows/{id}
func (h *FlowHandler) UpdateFlow(w http.ResponseWriter, r *http.Request) {
	var req models.SaveFlowRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		invalidJSON(w)
		return
	}

	resp, err := h.engine.UpdateFlow(r.Context(), middleware.CallerFromRequest(r), r.PathValue("id"), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// GetFlow handles GET /flows/{id}
func (h *FlowHandler) GetFlow(w http.ResponseWriter, r *http.Request) {
	flow, err := h.engine.GetFlow(r.Context(), middleware.CallerFromRequest(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, flow)
}

// DeleteFlow handles DELETE /flows/{id}
func (h *FlowHandler) DeleteFlow(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.DeleteFlow(r.Context(), middleware.CallerFromRequest(r), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
