// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/swipeflow/engine"
	"github.com/danielhkuo/swipeflow/middleware"
	"github.com/danielhkuo/swipeflow/models"
)

// TemplateHandler manages a flow's result templates. Every route is owner-only.
type TemplateHandler struct {
	engine *engine.Engine
}

func NewTemplateHandler(e *engine.Engine) *TemplateHandler {
	return &TemplateHandler{engine: e}
}

// ListTemplates handles GET /flows/{id}/templates
func (h *TemplateHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.engine.ListTemplates(r.Context(), middleware.CallerFromRequest(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if templates == nil {
		templates = []models.ResultTemplate{}
	}
	middleware.JSONResponse(w, http.StatusOK, templates)
}

// CreateTemplate handles POST /flows/{id}/templates
func (h *TemplateHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req models.TemplateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		invalidJSON(w)
		return
	}

	tmpl, err := h.engine.CreateTemplate(r.Context(), middleware.CallerFromRequest(r), r.PathValue("id"), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, tmpl)
}

// UpdateTemplate handles PUT /flows/{id}/templates/{templateId}
func (h *TemplateHandler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var req models.TemplateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		invalidJSON(w)
		return
	}

	tmpl, err := h.engine.UpdateTemplate(r.Context(), middleware.CallerFromRequest(r),
		r.PathValue("id"), r.PathValue("templateId"), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, tmpl)
}

// DeleteTemplate handles DELETE /flows/{id}/templates/{templateId}
func (h *TemplateHandler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	err := h.engine.DeleteTemplate(r.Context(), middleware.CallerFromRequest(r),
		r.PathValue("id"), r.PathValue("templateId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
