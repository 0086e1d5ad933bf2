// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/danielhkuo/swipeflow/auth"
	"github.com/danielhkuo/swipeflow/db"
	"github.com/danielhkuo/swipeflow/flowgraph"
	"github.com/danielhkuo/swipeflow/models"
)

// requireFlowOwner fails with ErrFlowNotFound or ErrForbidden unless caller owns flowID
func requireFlowOwner(ctx context.Context, q db.Queryer, caller models.Caller, flowID string) error {
	var ownerID string
	err := q.QueryRowContext(ctx, "SELECT owner_id FROM flow WHERE id = $1", flowID).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrFlowNotFound
	}
	if err != nil {
		return fmt.Errorf("query flow owner: %w", err)
	}
	if !caller.Authenticated() || ownerID != caller.UserID {
		return ErrForbidden
	}
	return nil
}

// ListTemplates returns a flow's templates in matching order
func (e *Engine) ListTemplates(ctx context.Context, caller models.Caller, flowID string) ([]models.ResultTemplate, error) {
	if err := requireFlowOwner(ctx, e.db, caller, flowID); err != nil {
		return nil, err
	}
	return loadTemplates(ctx, e.db, flowID)
}

func (e *Engine) CreateTemplate(ctx context.Context, caller models.Caller, flowID string, req *models.TemplateRequest) (*models.ResultTemplate, error) {
	if err := flowgraph.ValidateTemplate(req); err != nil {
		return nil, err
	}
	if err := requireFlowOwner(ctx, e.db, caller, flowID); err != nil {
		return nil, err
	}

	templateID, err := auth.GenerateID(12)
	if err != nil {
		return nil, err
	}

	t := templateFromRequest(req)
	t.ID = templateID
	t.FlowID = flowID
	t.CreatedAt = e.timestamp()

	_, err = e.db.ExecContext(ctx, `
		INSERT INTO result_template (id, flow_id, title, content, image_url, min_score,
		                             max_score, cta_text, cta_url, sort_order, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, t.ID, t.FlowID, t.Title, t.Content, t.ImageURL, t.MinScore, t.MaxScore,
		t.CTAText, t.CTAURL, t.Order, t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert template: %w", err)
	}

	slog.Info("result template created", "flow_id", flowID, "template_id", t.ID)
	return t, nil
}

func (e *Engine) UpdateTemplate(ctx context.Context, caller models.Caller, flowID, templateID string, req *models.TemplateRequest) (*models.ResultTemplate, error) {
	if err := flowgraph.ValidateTemplate(req); err != nil {
		return nil, err
	}
	if err := requireFlowOwner(ctx, e.db, caller, flowID); err != nil {
		return nil, err
	}

	existing, err := loadTemplate(ctx, e.db, templateID)
	if err != nil {
		return nil, err
	}
	if existing.FlowID != flowID {
		return nil, ErrTemplateNotFound
	}

	t := templateFromRequest(req)
	t.ID = existing.ID
	t.FlowID = existing.FlowID
	t.CreatedAt = existing.CreatedAt

	_, err = e.db.ExecContext(ctx, `
		UPDATE result_template
		SET title = $1, content = $2, image_url = $3, min_score = $4, max_score = $5,
		    cta_text = $6, cta_url = $7, sort_order = $8
		WHERE id = $9
	`, t.Title, t.Content, t.ImageURL, t.MinScore, t.MaxScore, t.CTAText, t.CTAURL, t.Order, t.ID)
	if err != nil {
		return nil, fmt.Errorf("update template: %w", err)
	}

	slog.Info("result template updated", "flow_id", flowID, "template_id", t.ID)
	return t, nil
}

// DeleteTemplate removes a template. Runs that were assigned it keep their
// score and show no template.
func (e *Engine) DeleteTemplate(ctx context.Context, caller models.Caller, flowID, templateID string) error {
	if err := requireFlowOwner(ctx, e.db, caller, flowID); err != nil {
		return err
	}

	res, err := e.db.ExecContext(ctx,
		"DELETE FROM result_template WHERE id = $1 AND flow_id = $2", templateID, flowID)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrTemplateNotFound
	}

	slog.Info("result template deleted", "flow_id", flowID, "template_id", templateID)
	return nil
}

func templateFromRequest(req *models.TemplateRequest) *models.ResultTemplate {
	return &models.ResultTemplate{
		Title:    req.Title,
		Content:  req.Content,
		ImageURL: req.ImageURL,
		MinScore: req.MinScore,
		MaxScore: req.MaxScore,
		CTAText:  req.CTAText,
		CTAURL:   req.CTAURL,
		Order:    req.Order,
	}
}
