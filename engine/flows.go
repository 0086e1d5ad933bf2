// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/danielhkuo/swipeflow/auth"
	"github.com/danielhkuo/swipeflow/db"
	"github.com/danielhkuo/swipeflow/flowgraph"
	"github.com/danielhkuo/swipeflow/metrics"
	"github.com/danielhkuo/swipeflow/models"
)

// CreateFlow validates and stores a new flow owned by caller
func (e *Engine) CreateFlow(ctx context.Context, caller models.Caller, req *models.SaveFlowRequest) (*models.SaveFlowResponse, error) {
	return e.saveFlow(ctx, caller, "", req)
}

// UpdateFlow replaces a flow's cards and settings. The card set is deleted
// and recreated in one transaction; it is refused while any run on the flow
// is not completed.
func (e *Engine) UpdateFlow(ctx context.Context, caller models.Caller, flowID string, req *models.SaveFlowRequest) (*models.SaveFlowResponse, error) {
	if flowID == "" {
		return nil, ErrFlowNotFound
	}
	return e.saveFlow(ctx, caller, flowID, req)
}

func (e *Engine) saveFlow(ctx context.Context, caller models.Caller, flowID string, req *models.SaveFlowRequest) (*models.SaveFlowResponse, error) {
	if !caller.Authenticated() {
		return nil, ErrForbidden
	}

	if err := flowgraph.ValidateFlow(req); err != nil {
		metrics.FlowSaves.WithLabelValues(metrics.SaveRejected).Inc()
		return nil, err
	}

	endCards := req.EndCards
	if endCards == nil {
		endCards = []models.EndCard{}
	}
	endCardsJSON, err := json.Marshal(endCards)
	if err != nil {
		return nil, fmt.Errorf("encode end cards: %w", err)
	}

	allowAnonymous := true
	if req.AllowAnonymous != nil {
		allowAnonymous = *req.AllowAnonymous
	}

	creating := flowID == ""
	if creating {
		flowID, err = auth.GenerateID(16)
		if err != nil {
			return nil, err
		}
	}

	cardIDs := make([]string, len(req.Cards))
	for i := range cardIDs {
		if cardIDs[i], err = auth.GenerateID(12); err != nil {
			return nil, err
		}
	}
	next := 0
	cards, conns := flowgraph.BuildCards(flowID, req.Cards, func() string {
		id := cardIDs[next]
		next++
		return id
	})

	now := e.timestamp()
	resp := &models.SaveFlowResponse{FlowID: flowID}

	err = e.db.WithTx(ctx, func(tx *db.Tx) error {
		var slug *string
		version := 1

		if creating {
			if req.IsPublic {
				s := auth.GenerateShareSlug(flowID, e.cfg.SlugSalt)
				slug = &s
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO flow (id, owner_id, name, description, end_cards, is_public,
				                  allow_anonymous, public_slug, version, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			`, flowID, caller.UserID, req.Name, req.Description, string(endCardsJSON),
				req.IsPublic, allowAnonymous, slug, version, now, now)
			if err != nil {
				return fmt.Errorf("insert flow: %w", err)
			}
		} else {
			var ownerID string
			err := tx.QueryRowContext(ctx,
				"SELECT owner_id, public_slug, version FROM flow WHERE id = $1"+tx.Dialect().ForUpdate(),
				flowID,
			).Scan(&ownerID, &slug, &version)
			if errors.Is(err, sql.ErrNoRows) {
				return ErrFlowNotFound
			}
			if err != nil {
				return fmt.Errorf("query flow: %w", err)
			}
			if ownerID != caller.UserID {
				return ErrForbidden
			}

			active, err := countActiveRuns(ctx, tx, flowID)
			if err != nil {
				return err
			}
			if active > 0 {
				return ErrActiveRuns
			}

			// The slug is derived once and survives edits and visibility changes
			if slug == nil && req.IsPublic {
				s := auth.GenerateShareSlug(flowID, e.cfg.SlugSalt)
				slug = &s
			}
			version++

			_, err = tx.ExecContext(ctx, `
				UPDATE flow
				SET name = $1, description = $2, end_cards = $3, is_public = $4,
				    allow_anonymous = $5, public_slug = $6, version = $7, updated_at = $8
				WHERE id = $9
			`, req.Name, req.Description, string(endCardsJSON), req.IsPublic,
				allowAnonymous, slug, version, now, flowID)
			if err != nil {
				return fmt.Errorf("update flow: %w", err)
			}

			// Connections and result rows go with their cards
			if _, err := tx.ExecContext(ctx, "DELETE FROM card WHERE flow_id = $1", flowID); err != nil {
				return fmt.Errorf("delete cards: %w", err)
			}
		}

		if err := insertCards(ctx, tx, cards, conns); err != nil {
			return err
		}

		resp.Version = version
		if req.IsPublic {
			resp.PublicSlug = slug
			resp.PublicURL = e.cfg.PublicBaseURL + "/p/" + *slug
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrActiveRuns) {
			metrics.FlowSaves.WithLabelValues(metrics.SaveRejected).Inc()
		}
		return nil, err
	}

	result := metrics.SaveUpdated
	if creating {
		result = metrics.SaveCreated
	}
	metrics.FlowSaves.WithLabelValues(result).Inc()

	slog.Info("flow saved",
		"flow_id", flowID,
		"owner_id", caller.UserID,
		"version", resp.Version,
		"cards", len(cards),
		"branches", len(conns),
		"created", creating,
	)

	return resp, nil
}

func insertCards(ctx context.Context, tx *db.Tx, cards []models.Card, conns []models.CardConnection) error {
	for _, c := range cards {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO card (id, flow_id, position, question, description, option0, option1,
			                  score0, score1, skippable)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, c.ID, c.FlowID, c.Position, c.Question, c.Description, c.Options[0], c.Options[1],
			c.Scores[0], c.Scores[1], c.Skippable)
		if err != nil {
			return fmt.Errorf("insert card: %w", err)
		}
	}

	for _, conn := range conns {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO card_connection (source_card_id, source_option, target_card_id)
			VALUES ($1, $2, $3)
		`, conn.SourceCardID, int(conn.SourceOption), conn.TargetCardID)
		if err != nil {
			return fmt.Errorf("insert card connection: %w", err)
		}
	}
	return nil
}

// GetFlow returns the owner's full view of a flow, scores and branches included
func (e *Engine) GetFlow(ctx context.Context, caller models.Caller, flowID string) (*models.Flow, error) {
	flow, err := loadFlow(ctx, e.db, flowID, false)
	if err != nil {
		return nil, err
	}
	if err := authorizeFlowOwner(flow, caller); err != nil {
		return nil, err
	}
	return flow, nil
}

// GetPublicFlow looks a flow up by its public slug. Private flows are not found.
func (e *Engine) GetPublicFlow(ctx context.Context, slug string) (*models.Flow, error) {
	var flowID string
	var isPublic bool
	err := e.db.QueryRowContext(ctx,
		"SELECT id, is_public FROM flow WHERE public_slug = $1", slug,
	).Scan(&flowID, &isPublic)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !isPublic) {
		return nil, ErrFlowNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query flow by slug: %w", err)
	}
	return loadFlow(ctx, e.db, flowID, false)
}

// DeleteFlow removes a flow with everything hanging off it
func (e *Engine) DeleteFlow(ctx context.Context, caller models.Caller, flowID string) error {
	err := e.db.WithTx(ctx, func(tx *db.Tx) error {
		var ownerID string
		err := tx.QueryRowContext(ctx,
			"SELECT owner_id FROM flow WHERE id = $1"+tx.Dialect().ForUpdate(), flowID,
		).Scan(&ownerID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrFlowNotFound
		}
		if err != nil {
			return fmt.Errorf("query flow: %w", err)
		}
		if !caller.Authenticated() || ownerID != caller.UserID {
			return ErrForbidden
		}

		active, err := countActiveRuns(ctx, tx, flowID)
		if err != nil {
			return err
		}
		if active > 0 {
			return ErrActiveRuns
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM flow WHERE id = $1", flowID); err != nil {
			return fmt.Errorf("delete flow: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("flow deleted", "flow_id", flowID, "owner_id", caller.UserID)
	return nil
}

// OwnerHasFlow reports whether ownerID already has a flow called name
func (e *Engine) OwnerHasFlow(ctx context.Context, ownerID, name string) (bool, error) {
	var n int
	err := e.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM flow WHERE owner_id = $1 AND name = $2", ownerID, name,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query flows by name: %w", err)
	}
	return n > 0, nil
}
