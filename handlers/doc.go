// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains the HTTP request handlers for the Swipeflow API.

# Handler Types

Each handler is a thin struct over the engine:

  - FlowHandler: save, read and delete flows (owner only)
  - TemplateHandler: result template management (owner only)
  - RunHandler: run lifecycle for participants
  - PublicHandler: public flow pages, slug runs and shared results

Handlers are created via constructor functions that accept the engine:

	flowHandler := handlers.NewFlowHandler(eng)

# Identity

The caller is built by middleware.CallerFromRequest. Authors and signed-in
participants are identified by the X-User-ID header set by the upstream auth
layer. Anonymous participants send the session token they received when the
run was created:

	Authorization: Bearer <session_token>

# Run Lifecycle

	POST /flows/{id}/runs     → CreateRun (returns session_token for anonymous callers)
	POST /runs/{id}/start     → StartRun (idempotent)
	POST /runs/{id}/answers   → SubmitAnswer (branch or next card, completes at the end)
	POST /runs/{id}/skip      → SkipCard (skippable cards only)
	POST /runs/{id}/stop      → StopRun (idempotent, accepts form_fields)
	GET  /runs/{id}           → GetRun

# Errors

Engine errors are mapped in one place (writeError). Every error body carries
a machine-readable code; validation failures answer 422 with the
flowgraph.ValidationError as details. A wrong session token answers exactly
like a missing run.
*/
package handlers
