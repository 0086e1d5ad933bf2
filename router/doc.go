// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Swipeflow API.

# Route Registration

NewRouter builds a ServeMux with all endpoints and wraps it in CORS:

	handler := router.NewRouter(database, eng)

Every API route goes through middleware.Instrument, which logs the request
and records its latency under the route pattern.

# Endpoints

Operational:

	GET /health  - Database ping
	GET /metrics - Prometheus metrics

Flow authoring (owner, X-User-ID):

	POST   /flows                               - Create flow
	GET    /flows/{id}                          - Owner view with scores and branches
	PUT    /flows/{id}                          - Replace cards (no runs in progress)
	DELETE /flows/{id}                          - Delete flow
	GET    /flows/{id}/templates                - List result templates
	POST   /flows/{id}/templates                - Add template
	PUT    /flows/{id}/templates/{templateId}   - Update template
	DELETE /flows/{id}/templates/{templateId}   - Delete template

Runs (signed-in participants or anonymous with Bearer session token):

	POST /flows/{id}/runs     - Create run
	GET  /runs/{id}           - Run state and progress
	POST /runs/{id}/start     - Start
	POST /runs/{id}/answers   - Answer the current card
	POST /runs/{id}/skip      - Skip a skippable card
	POST /runs/{id}/stop      - Finish and score

Public:

	GET  /p/{slug}        - Public flow page
	POST /p/{slug}/runs   - Create run by slug
	GET  /shared/{token}  - Completed result by share token
*/
package router
