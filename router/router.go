// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/swipeflow/db"
	"github.com/danielhkuo/swipeflow/engine"
	"github.com/danielhkuo/swipeflow/handlers"
	"github.com/danielhkuo/swipeflow/middleware"
)

func NewRouter(database *db.DB, eng *engine.Engine) http.Handler {
	mux := http.NewServeMux()

	// Initialize handlers
	flowHandler := handlers.NewFlowHandler(eng)
	templateHandler := handlers.NewTemplateHandler(eng)
	runHandler := handlers.NewRunHandler(eng)
	publicHandler := handlers.NewPublicHandler(eng)

	// handle registers an instrumented route; the pattern doubles as the metric label
	handle := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, middleware.Instrument(pattern, h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := database.PingContext(r.Context()); err != nil {
			slog.Error("health check failed", "error", err)
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.Handle("GET /metrics", promhttp.Handler())

	// Flow authoring (owner)
	handle("POST /flows", flowHandler.CreateFlow)
	handle("GET /flows/{id}", flowHandler.GetFlow)
	handle("PUT /flows/{id}", flowHandler.UpdateFlow)
	handle("DELETE /flows/{id}", flowHandler.DeleteFlow)

	// Result templates (owner)
	handle("GET /flows/{id}/templates", templateHandler.ListTemplates)
	handle("POST /flows/{id}/templates", templateHandler.CreateTemplate)
	handle("PUT /flows/{id}/templates/{templateId}", templateHandler.UpdateTemplate)
	handle("DELETE /flows/{id}/templates/{templateId}", templateHandler.DeleteTemplate)

	// Runs
	handle("POST /flows/{id}/runs", runHandler.CreateRun)
	handle("GET /runs/{id}", runHandler.GetRun)
	handle("POST /runs/{id}/start", runHandler.StartRun)
	handle("POST /runs/{id}/answers", runHandler.SubmitAnswer)
	handle("POST /runs/{id}/skip", runHandler.SkipCard)
	handle("POST /runs/{id}/stop", runHandler.StopRun)

	// Public access by slug or share token
	handle("GET /p/{slug}", publicHandler.GetFlow)
	handle("POST /p/{slug}/runs", publicHandler.CreateRun)
	handle("GET /shared/{token}", publicHandler.GetSharedResult)

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("swipeflow API v1"))
	})

	return middleware.CORS(mux)
}
