// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging and Metrics

Wrap route handlers with Instrument, which records latency under the route
pattern and logs completion (method, path, status, duration_ms):

	mux.HandleFunc("GET /runs/{id}", middleware.Instrument("GET /runs/{id}", h.GetRun))

WithLogging and WithMetrics are available separately.

# CORS Middleware

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows methods GET, POST, PUT, DELETE, OPTIONS with headers
Content-Type, Authorization, X-User-ID.

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusNotFound, "run not found")
	middleware.DetailedErrorResponse(w, http.StatusUnprocessableEntity, msg, "cycle", details)

Parse JSON request bodies (limited to 1 MiB):

	var req models.SubmitAnswerRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Caller Identity

CallerFromRequest reads X-User-ID (set by the upstream auth layer), the
bearer session token of anonymous runs, the client IP and the user agent.

GetClientIP checks X-Forwarded-For, then X-Real-IP, then RemoteAddr.
*/
package middleware
