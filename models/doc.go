// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON (and seed YAML):

  - SaveFlowRequest: name, description, cards, end_cards, is_public, allow_anonymous
  - CardDraft: question, options, branches (indices or null), scores, skippable
  - TemplateRequest: title, content, min_score, max_score, cta, order
  - SubmitAnswerRequest: card_id, answer
  - SkipCardRequest: card_id
  - StopRunRequest: form_fields

# Response Types

  - SaveFlowResponse: flow_id, version, public_slug
  - CreateRunResponse: run_id, session_token, share_token, cards
  - SubmitAnswerResponse: next_card, completed, total_score, result_template
  - StopRunResponse: total_score, result_template, completed_at
  - RunView: run, current_card, progress
  - SharedResultResponse: flow_name, total_score, result_template
  - ErrorResponse: error, message, code, details

# Domain Types

  - Flow: owner, ordered cards, end cards, visibility
  - Card: question, two options, a Branch and a score per option
  - Branch: Sequential (zero value) or GoTo(cardID)
  - ResultTemplate: inclusive score range mapped to an outcome
  - FlowRun: one traversal of a flow
  - Result: per-card answer slot of a run
  - Caller: identity of the requester
  - SecurityEvent: a rejected branch target

# Constants

Run status values:

	RunCreated    = "created"
	RunStarted    = "started"
	RunInProgress = "in_progress"
	RunCompleted  = "completed"

Answers:

	AnswerNo  = 0 // left swipe
	AnswerYes = 1 // right swipe
*/
package models
