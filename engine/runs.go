// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/swipeflow/auth"
	"github.com/danielhkuo/swipeflow/db"
	"github.com/danielhkuo/swipeflow/flowgraph"
	"github.com/danielhkuo/swipeflow/metrics"
	"github.com/danielhkuo/swipeflow/models"
)

// Limits on terminal form captures
const (
	MaxFormFields      = 50
	MaxFormFieldName   = 100
	MaxFormFieldLength = 2000
)

// CreateRun starts a run of flowID for caller. The run and one empty result
// per card are written in one transaction while the flow row is locked, so
// a concurrent edit cannot change the card set underneath it.
func (e *Engine) CreateRun(ctx context.Context, caller models.Caller, flowID string) (*models.CreateRunResponse, error) {
	runID, err := auth.GenerateRunID()
	if err != nil {
		return nil, err
	}
	shareToken, err := auth.GenerateShareToken()
	if err != nil {
		return nil, err
	}

	var userID, sessionToken, ipHash, userAgent *string
	if caller.Authenticated() {
		userID = &caller.UserID
	} else {
		token, err := auth.GenerateSessionToken()
		if err != nil {
			return nil, err
		}
		sessionToken = &token
	}
	if caller.IP != "" {
		h := auth.HashIP(caller.IP, e.cfg.IPHashSalt)
		ipHash = &h
	}
	if caller.UserAgent != "" {
		userAgent = &caller.UserAgent
	}

	now := e.timestamp()
	var cards []models.Card

	err = e.db.WithTx(ctx, func(tx *db.Tx) error {
		flow, err := loadFlow(ctx, tx, flowID, true)
		if err != nil {
			return err
		}
		if err := authorizeRunCreation(flow, caller); err != nil {
			return err
		}
		if len(flow.Cards) == 0 {
			return ErrFlowNotFound
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO flow_run (id, flow_id, flow_version, user_id, session_token, status,
			                      share_token, ip_hash, user_agent, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, runID, flow.ID, flow.Version, userID, sessionToken, models.RunCreated,
			shareToken, ipHash, userAgent, now)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		for _, c := range flow.Cards {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO flow_run_result (run_id, card_id, position)
				VALUES ($1, $2, $3)
			`, runID, c.ID, c.Position)
			if err != nil {
				return fmt.Errorf("insert result: %w", err)
			}
		}

		cards = flow.Cards
		return nil
	})
	if err != nil {
		return nil, err
	}

	kind := metrics.KindUser
	if !caller.Authenticated() {
		kind = metrics.KindAnonymous
	}
	metrics.RunsCreated.WithLabelValues(kind).Inc()
	slog.Info("run created", "run_id", runID, "flow_id", flowID, "kind", kind, "cards", len(cards))

	resp := &models.CreateRunResponse{
		RunID:      runID,
		ShareToken: shareToken,
		Cards:      make([]models.CardView, len(cards)),
	}
	if sessionToken != nil {
		resp.SessionToken = *sessionToken
	}
	for i, c := range cards {
		resp.Cards[i] = c.View()
	}
	return resp, nil
}

// CreatePublicRun starts a run on the public flow behind slug
func (e *Engine) CreatePublicRun(ctx context.Context, caller models.Caller, slug string) (*models.CreateRunResponse, error) {
	var flowID string
	err := e.db.QueryRowContext(ctx,
		"SELECT id FROM flow WHERE public_slug = $1 AND is_public = $2", slug, true,
	).Scan(&flowID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFlowNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query flow by slug: %w", err)
	}
	return e.CreateRun(ctx, caller, flowID)
}

// StartRun stamps started_at and points the run at its first card.
// Calling it again returns the current state unchanged.
func (e *Engine) StartRun(ctx context.Context, caller models.Caller, runID string) (*models.StartRunResponse, error) {
	var resp *models.StartRunResponse

	err := e.db.WithTx(ctx, func(tx *db.Tx) error {
		run, err := loadRun(ctx, tx, runID, true)
		if err != nil {
			return err
		}
		if err := authorizeRun(run, caller); err != nil {
			return err
		}

		cards, err := loadCards(ctx, tx, run.FlowID)
		if err != nil {
			return err
		}

		if run.StartedAt == nil && !run.IsCompleted() {
			now := e.timestamp()
			first, ok := flowgraph.NewMembership(cardIDs(cards)).First()
			if !ok {
				return ErrCardNotFound
			}
			_, err := tx.ExecContext(ctx,
				"UPDATE flow_run SET status = $1, started_at = $2, current_card_id = $3 WHERE id = $4",
				models.RunStarted, now, first, run.ID,
			)
			if err != nil {
				return fmt.Errorf("start run: %w", err)
			}
			run.Status = models.RunStarted
			run.StartedAt = &now
			run.CurrentCardID = &first
			slog.Info("run started", "run_id", run.ID, "flow_id", run.FlowID)
		}

		resp = &models.StartRunResponse{
			RunID:       run.ID,
			Status:      run.Status,
			StartedAt:   run.StartedAt,
			CurrentCard: currentCard(run, cards),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// SubmitAnswer records answer for cardID and moves the run to the next card.
// When the flow ends the run is completed, scored and matched before this
// returns.
func (e *Engine) SubmitAnswer(ctx context.Context, caller models.Caller, runID, cardID string, answer models.Answer) (*models.SubmitAnswerResponse, error) {
	if !answer.Valid() {
		return nil, ErrInvalidAnswer
	}

	var resp *models.SubmitAnswerResponse
	var rejected *models.SecurityEvent

	err := e.db.WithTx(ctx, func(tx *db.Tx) error {
		run, err := loadRun(ctx, tx, runID, true)
		if err != nil {
			return err
		}
		if err := authorizeRun(run, caller); err != nil {
			return err
		}
		if run.IsCompleted() {
			return ErrRunCompleted
		}

		cards, err := loadCards(ctx, tx, run.FlowID)
		if err != nil {
			return err
		}
		card, ok := cardByID(cards, cardID)
		if !ok {
			return ErrCardNotFound
		}

		now := e.timestamp()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO flow_run_result (run_id, card_id, position, answer, answered_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (run_id, card_id)
			DO UPDATE SET answer = excluded.answer, answered_at = excluded.answered_at
		`, run.ID, card.ID, card.Position, int(answer), now)
		if err != nil {
			return fmt.Errorf("store answer: %w", err)
		}

		res := flowgraph.Resolve(card, answer, flowgraph.NewMembership(cardIDs(cards)))
		if res.Rejected != "" {
			rejected = &models.SecurityEvent{
				FlowID:        run.FlowID,
				RunID:         run.ID,
				SourceCardID:  card.ID,
				InvalidTarget: res.Rejected,
				Answer:        answer,
				RequesterIP:   caller.IP,
				UserAgent:     caller.UserAgent,
			}
		}

		resp, err = e.advance(ctx, tx, run, cards, res, now)
		return err
	})

	// Reported even if the transaction failed: the stored data is bad either way
	if rejected != nil {
		metrics.InvalidBranches.Inc()
		e.security.ReportInvalidBranch(ctx, *rejected)
	}
	if err != nil {
		return nil, err
	}

	metrics.AnswersSubmitted.Inc()
	slog.Info("answer recorded",
		"run_id", runID,
		"card_id", cardID,
		"answer", int(answer),
		"completed", resp.Completed,
	)
	return resp, nil
}

// SkipCard moves past a skippable card without recording an answer.
// Skips always continue in sequential order.
func (e *Engine) SkipCard(ctx context.Context, caller models.Caller, runID, cardID string) (*models.SubmitAnswerResponse, error) {
	var resp *models.SubmitAnswerResponse

	err := e.db.WithTx(ctx, func(tx *db.Tx) error {
		run, err := loadRun(ctx, tx, runID, true)
		if err != nil {
			return err
		}
		if err := authorizeRun(run, caller); err != nil {
			return err
		}
		if run.IsCompleted() {
			return ErrRunCompleted
		}

		cards, err := loadCards(ctx, tx, run.FlowID)
		if err != nil {
			return err
		}
		card, ok := cardByID(cards, cardID)
		if !ok {
			return ErrCardNotFound
		}
		if !card.Skippable {
			return ErrNotSkippable
		}

		res := flowgraph.ResolveSkip(card, flowgraph.NewMembership(cardIDs(cards)))
		resp, err = e.advance(ctx, tx, run, cards, res, e.timestamp())
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("card skipped", "run_id", runID, "card_id", cardID, "completed", resp.Completed)
	return resp, nil
}

// advance applies a resolution to a locked, open run
func (e *Engine) advance(ctx context.Context, tx *db.Tx, run *models.FlowRun, cards []models.Card, res flowgraph.Resolution, now time.Time) (*models.SubmitAnswerResponse, error) {
	if res.End {
		total, tmpl, err := e.completeLocked(ctx, tx, run, now)
		if err != nil {
			return nil, err
		}
		return &models.SubmitAnswerResponse{
			Completed:      true,
			TotalScore:     &total,
			ResultTemplate: tmpl,
		}, nil
	}

	next, ok := cardByID(cards, res.Next)
	if !ok {
		return nil, ErrCardNotFound
	}

	startedAt := now
	if run.StartedAt != nil {
		startedAt = *run.StartedAt
	}
	_, err := tx.ExecContext(ctx,
		"UPDATE flow_run SET status = $1, started_at = $2, current_card_id = $3 WHERE id = $4",
		models.RunInProgress, startedAt, next.ID, run.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("advance run: %w", err)
	}

	view := next.View()
	return &models.SubmitAnswerResponse{NextCard: &view}, nil
}

// completeLocked moves a locked run to Completed if it is not already, then
// scores it and assigns its template. Both steps are no-ops on repeat.
func (e *Engine) completeLocked(ctx context.Context, tx *db.Tx, run *models.FlowRun, now time.Time) (int, *models.ResultTemplate, error) {
	completing := !run.IsCompleted()
	if completing {
		_, err := tx.ExecContext(ctx, `
			UPDATE flow_run
			SET status = $1, completed_at = $2, started_at = COALESCE(started_at, $2),
			    current_card_id = NULL
			WHERE id = $3
		`, models.RunCompleted, now, run.ID)
		if err != nil {
			return 0, nil, fmt.Errorf("complete run: %w", err)
		}
		if run.StartedAt == nil {
			run.StartedAt = &now
		}
		run.Status = models.RunCompleted
		run.CompletedAt = &now
		run.CurrentCardID = nil
		metrics.RunsCompleted.Inc()
	}

	total, err := scoreLocked(ctx, tx, run)
	if err != nil {
		return 0, nil, err
	}
	tmpl, err := assignTemplateLocked(ctx, tx, run)
	if err != nil {
		return 0, nil, err
	}

	if completing {
		slog.Info("run completed",
			"run_id", run.ID,
			"flow_id", run.FlowID,
			"total_score", total,
			"took", e.elapsed(run),
		)
	}
	return total, tmpl, nil
}

// StopRun completes a run, storing any end-card form captures. It is safe to
// call repeatedly: later calls return the stored score and template.
func (e *Engine) StopRun(ctx context.Context, caller models.Caller, runID string, formFields map[string]string) (*models.StopRunResponse, error) {
	fields := sanitizeFormFields(runID, formFields)
	var resp *models.StopRunResponse

	err := e.db.WithTx(ctx, func(tx *db.Tx) error {
		run, err := loadRun(ctx, tx, runID, true)
		if err != nil {
			return err
		}
		if err := authorizeRun(run, caller); err != nil {
			return err
		}

		now := e.timestamp()
		if run.IsCompleted() {
			// Finished runs only return their stored outcome
			if len(fields) > 0 {
				slog.Debug("form fields ignored on completed run", "run_id", run.ID, "fields", len(fields))
			}
			fields = nil
		}
		for _, name := range sortedKeys(fields) {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO flow_run_form_response (run_id, field_name, field_value, created_at)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (run_id, field_name) DO NOTHING
			`, run.ID, name, fields[name], now)
			if err != nil {
				return fmt.Errorf("store form field: %w", err)
			}
		}

		total, tmpl, err := e.completeLocked(ctx, tx, run, now)
		if err != nil {
			return err
		}
		resp = &models.StopRunResponse{
			TotalScore:     total,
			ResultTemplate: tmpl,
			CompletedAt:    *run.CompletedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// GetRun returns a run's state for resuming or showing its result
func (e *Engine) GetRun(ctx context.Context, caller models.Caller, runID string) (*models.RunView, error) {
	run, err := loadRun(ctx, e.db, runID, false)
	if err != nil {
		return nil, err
	}
	if err := authorizeRun(run, caller); err != nil {
		return nil, err
	}

	cards, err := loadCards(ctx, e.db, run.FlowID)
	if err != nil {
		return nil, err
	}
	results, err := loadResults(ctx, e.db, run.ID)
	if err != nil {
		return nil, err
	}

	view := &models.RunView{
		Run:         *run,
		CurrentCard: currentCard(run, cards),
		TotalCards:  len(results),
		Duration:    e.elapsed(run),
	}
	for _, r := range results {
		if r.Answer != nil {
			view.Answered++
		}
	}
	if run.IsCompleted() {
		view.ResultTemplate, err = assignedTemplate(ctx, e.db, run)
		if err != nil {
			return nil, err
		}
	}
	return view, nil
}

// GetSharedResult returns a completed run's outcome by its share token.
// Runs that are still open are reported as not found.
func (e *Engine) GetSharedResult(ctx context.Context, shareToken string) (*models.SharedResultResponse, error) {
	if shareToken == "" {
		return nil, ErrRunNotFound
	}
	run, err := scanRun(e.db.QueryRowContext(ctx,
		"SELECT "+runColumns+" FROM flow_run WHERE share_token = $1", shareToken))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query run by share token: %w", err)
	}
	if !run.IsCompleted() {
		return nil, ErrRunNotFound
	}

	var flowName string
	if err := e.db.QueryRowContext(ctx,
		"SELECT name FROM flow WHERE id = $1", run.FlowID).Scan(&flowName); err != nil {
		return nil, fmt.Errorf("query flow name: %w", err)
	}

	tmpl, err := assignedTemplate(ctx, e.db, run)
	if err != nil {
		return nil, err
	}

	return &models.SharedResultResponse{
		FlowName:       flowName,
		TotalScore:     run.TotalScore,
		ResultTemplate: tmpl,
		CompletedAt:    *run.CompletedAt,
	}, nil
}

func cardIDs(cards []models.Card) []string {
	ids := make([]string, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	return ids
}

func cardByID(cards []models.Card, id string) (models.Card, bool) {
	for _, c := range cards {
		if c.ID == id {
			return c, true
		}
	}
	return models.Card{}, false
}

// currentCard is the card a participant resumes on. Runs that were never
// started resume on the first card; completed runs have none.
func currentCard(run *models.FlowRun, cards []models.Card) *models.CardView {
	if run.IsCompleted() || len(cards) == 0 {
		return nil
	}
	id := cards[0].ID
	if run.CurrentCardID != nil {
		id = *run.CurrentCardID
	}
	c, ok := cardByID(cards, id)
	if !ok {
		return nil
	}
	view := c.View()
	return &view
}

// elapsed renders how long a run has taken, e.g. "3 minutes"
func (e *Engine) elapsed(run *models.FlowRun) string {
	if run.StartedAt == nil {
		return ""
	}
	end := e.now()
	if run.CompletedAt != nil {
		end = *run.CompletedAt
	}
	return strings.TrimSpace(humanize.RelTime(*run.StartedAt, end, "", ""))
}

// sanitizeFormFields drops captures over the size limits, counted in
// characters. Captures are best-effort, so problems are logged rather than
// returned.
func sanitizeFormFields(runID string, fields map[string]string) map[string]string {
	clean := make(map[string]string, len(fields))
	for _, name := range sortedKeys(fields) {
		value := fields[name]
		trimmed := strings.TrimSpace(name)
		switch {
		case trimmed == "":
			continue
		case utf8.RuneCountInString(trimmed) > MaxFormFieldName || utf8.RuneCountInString(value) > MaxFormFieldLength:
			slog.Warn("form field dropped", "run_id", runID, "field", truncate(trimmed, 32), "reason", "too long")
			continue
		case len(clean) >= MaxFormFields:
			slog.Warn("form field dropped", "run_id", runID, "field", truncate(trimmed, 32), "reason", "too many fields")
			continue
		}
		if _, dup := clean[trimmed]; dup {
			continue
		}
		clean[trimmed] = value
	}
	return clean
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// truncate cuts s to at most n runes
func truncate(s string, n int) string {
	for i := range s {
		if n == 0 {
			return s[:i]
		}
		n--
	}
	return s
}
