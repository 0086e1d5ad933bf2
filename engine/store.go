// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/danielhkuo/swipeflow/db"
	"github.com/danielhkuo/swipeflow/flowgraph"
	"github.com/danielhkuo/swipeflow/models"
)

type scanner interface {
	Scan(dest ...any) error
}

const flowColumns = `id, owner_id, name, description, end_cards, is_public, allow_anonymous,
	public_slug, version, created_at, updated_at`

const runColumns = `id, flow_id, flow_version, user_id, session_token, status, current_card_id,
	started_at, completed_at, total_score, score_calculated, result_template_id,
	template_assigned, share_token, created_at`

const templateColumns = `id, flow_id, title, content, image_url, min_score, max_score,
	cta_text, cta_url, sort_order, created_at`

func scanFlow(row scanner) (*models.Flow, error) {
	var f models.Flow
	var endCards string
	err := row.Scan(
		&f.ID, &f.OwnerID, &f.Name, &f.Description, &endCards, &f.IsPublic,
		&f.AllowAnonymous, &f.PublicSlug, &f.Version, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(endCards), &f.EndCards); err != nil {
		return nil, fmt.Errorf("decode end cards of flow %s: %w", f.ID, err)
	}
	if f.EndCards == nil {
		f.EndCards = []models.EndCard{}
	}
	return &f, nil
}

func scanRun(row scanner) (*models.FlowRun, error) {
	var r models.FlowRun
	err := row.Scan(
		&r.ID, &r.FlowID, &r.FlowVersion, &r.UserID, &r.SessionToken, &r.Status,
		&r.CurrentCardID, &r.StartedAt, &r.CompletedAt, &r.TotalScore,
		&r.ScoreCalculated, &r.ResultTemplateID, &r.TemplateAssigned,
		&r.ShareToken, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func scanTemplate(row scanner) (*models.ResultTemplate, error) {
	var t models.ResultTemplate
	var maxScore sql.NullInt64
	err := row.Scan(
		&t.ID, &t.FlowID, &t.Title, &t.Content, &t.ImageURL, &t.MinScore,
		&maxScore, &t.CTAText, &t.CTAURL, &t.Order, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if maxScore.Valid {
		v := int(maxScore.Int64)
		t.MaxScore = &v
	}
	return &t, nil
}

// loadFlow reads a flow and its cards. With lock set, the flow row is held
// until the surrounding transaction ends.
func loadFlow(ctx context.Context, q db.Queryer, flowID string, lock bool) (*models.Flow, error) {
	query := "SELECT " + flowColumns + " FROM flow WHERE id = $1"
	if lock {
		query += q.Dialect().ForUpdate()
	}

	flow, err := scanFlow(q.QueryRowContext(ctx, query, flowID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFlowNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query flow: %w", err)
	}

	flow.Cards, err = loadCards(ctx, q, flowID)
	if err != nil {
		return nil, err
	}
	return flow, nil
}

// loadCards returns a flow's cards in position order with stored branches applied
func loadCards(ctx context.Context, q db.Queryer, flowID string) ([]models.Card, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, flow_id, position, question, description, option0, option1,
		       score0, score1, skippable
		FROM card
		WHERE flow_id = $1
		ORDER BY position
	`, flowID)
	if err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}
	defer rows.Close()

	cards := []models.Card{}
	for rows.Next() {
		var c models.Card
		if err := rows.Scan(
			&c.ID, &c.FlowID, &c.Position, &c.Question, &c.Description,
			&c.Options[0], &c.Options[1], &c.Scores[0], &c.Scores[1], &c.Skippable,
		); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}
	rows.Close()

	conns, err := loadConnections(ctx, q, flowID)
	if err != nil {
		return nil, err
	}
	flowgraph.ApplyConnections(cards, conns)

	return cards, nil
}

// loadConnections returns the stored edges leaving a flow's cards. Targets
// are returned as stored, even when they name a card of another flow.
func loadConnections(ctx context.Context, q db.Queryer, flowID string) ([]models.CardConnection, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT cc.source_card_id, cc.source_option, cc.target_card_id
		FROM card_connection cc
		JOIN card c ON c.id = cc.source_card_id
		WHERE c.flow_id = $1
	`, flowID)
	if err != nil {
		return nil, fmt.Errorf("query card connections: %w", err)
	}
	defer rows.Close()

	var conns []models.CardConnection
	for rows.Next() {
		var conn models.CardConnection
		if err := rows.Scan(&conn.SourceCardID, &conn.SourceOption, &conn.TargetCardID); err != nil {
			return nil, fmt.Errorf("scan card connection: %w", err)
		}
		conns = append(conns, conn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate card connections: %w", err)
	}
	return conns, nil
}

func loadRun(ctx context.Context, q db.Queryer, runID string, lock bool) (*models.FlowRun, error) {
	query := "SELECT " + runColumns + " FROM flow_run WHERE id = $1"
	if lock {
		query += q.Dialect().ForUpdate()
	}

	run, err := scanRun(q.QueryRowContext(ctx, query, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	return run, nil
}

func loadResults(ctx context.Context, q db.Queryer, runID string) ([]models.Result, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT run_id, card_id, position, answer, answered_at
		FROM flow_run_result
		WHERE run_id = $1
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	results := []models.Result{}
	for rows.Next() {
		var res models.Result
		var answer sql.NullInt64
		if err := rows.Scan(&res.RunID, &res.CardID, &res.Position, &answer, &res.AnsweredAt); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		if answer.Valid {
			a := models.Answer(answer.Int64)
			res.Answer = &a
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return results, nil
}

// loadTemplates returns a flow's templates ordered by (order, id)
func loadTemplates(ctx context.Context, q db.Queryer, flowID string) ([]models.ResultTemplate, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+templateColumns+" FROM result_template WHERE flow_id = $1 ORDER BY sort_order, id",
		flowID,
	)
	if err != nil {
		return nil, fmt.Errorf("query templates: %w", err)
	}
	defer rows.Close()

	templates := []models.ResultTemplate{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate templates: %w", err)
	}
	return templates, nil
}

func loadTemplate(ctx context.Context, q db.Queryer, templateID string) (*models.ResultTemplate, error) {
	t, err := scanTemplate(q.QueryRowContext(ctx,
		"SELECT "+templateColumns+" FROM result_template WHERE id = $1", templateID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query template: %w", err)
	}
	return t, nil
}

func countActiveRuns(ctx context.Context, q db.Queryer, flowID string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM flow_run WHERE flow_id = $1 AND completed_at IS NULL", flowID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active runs: %w", err)
	}
	return n, nil
}
