// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielhkuo/swipeflow/db"
	"github.com/danielhkuo/swipeflow/flowgraph"
	"github.com/danielhkuo/swipeflow/metrics"
	"github.com/danielhkuo/swipeflow/models"
)

// CalculateScore returns a completed run's total, summing its answers at
// most once. A run whose score is already stored is answered from the row
// without locking; otherwise the run row is locked and the flag re-checked,
// so racing callers converge on one persisted value.
func (e *Engine) CalculateScore(ctx context.Context, runID string) (int, error) {
	run, err := loadRun(ctx, e.db, runID, false)
	if err != nil {
		return 0, err
	}
	if !run.IsCompleted() {
		return 0, ErrRunNotCompleted
	}
	if run.ScoreCalculated {
		metrics.ScoreCalculations.WithLabelValues(metrics.ScoreCached).Inc()
		return run.TotalScore, nil
	}

	var total int
	err = e.db.WithTx(ctx, func(tx *db.Tx) error {
		locked, err := loadRun(ctx, tx, runID, true)
		if err != nil {
			return err
		}
		total, err = scoreLocked(ctx, tx, locked)
		return err
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// AssignTemplate matches a completed run's score against its flow's templates
// and stores the outcome once. A run with no matching template keeps none,
// even if templates are added later.
func (e *Engine) AssignTemplate(ctx context.Context, runID string) (*models.ResultTemplate, error) {
	var tmpl *models.ResultTemplate
	err := e.db.WithTx(ctx, func(tx *db.Tx) error {
		run, err := loadRun(ctx, tx, runID, true)
		if err != nil {
			return err
		}
		if !run.IsCompleted() {
			return ErrRunNotCompleted
		}
		if _, err := scoreLocked(ctx, tx, run); err != nil {
			return err
		}
		tmpl, err = assignTemplateLocked(ctx, tx, run)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tmpl, nil
}

// scoreLocked computes and stores the total of a run whose row the caller
// holds locked. run is updated in place.
func scoreLocked(ctx context.Context, tx *db.Tx, run *models.FlowRun) (int, error) {
	if run.ScoreCalculated {
		metrics.ScoreCalculations.WithLabelValues(metrics.ScoreCached).Inc()
		return run.TotalScore, nil
	}

	results, err := loadResults(ctx, tx, run.ID)
	if err != nil {
		return 0, err
	}
	cards, err := loadCards(ctx, tx, run.FlowID)
	if err != nil {
		return 0, err
	}
	total := flowgraph.SumScore(cards, results)

	_, err = tx.ExecContext(ctx,
		"UPDATE flow_run SET total_score = $1, score_calculated = $2 WHERE id = $3",
		total, true, run.ID,
	)
	if err != nil {
		return 0, fmt.Errorf("store score: %w", err)
	}

	run.TotalScore = total
	run.ScoreCalculated = true
	metrics.ScoreCalculations.WithLabelValues(metrics.ScoreComputed).Inc()
	return total, nil
}

// assignTemplateLocked picks the run's template on first call and returns
// the stored choice afterwards. run must be locked and scored.
func assignTemplateLocked(ctx context.Context, tx *db.Tx, run *models.FlowRun) (*models.ResultTemplate, error) {
	if run.TemplateAssigned {
		return assignedTemplate(ctx, tx, run)
	}

	templates, err := loadTemplates(ctx, tx, run.FlowID)
	if err != nil {
		return nil, err
	}
	tmpl := flowgraph.MatchTemplate(run.TotalScore, templates)

	var templateID *string
	if tmpl != nil {
		templateID = &tmpl.ID
	}
	_, err = tx.ExecContext(ctx,
		"UPDATE flow_run SET result_template_id = $1, template_assigned = $2 WHERE id = $3",
		templateID, true, run.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("store result template: %w", err)
	}

	run.ResultTemplateID = templateID
	run.TemplateAssigned = true
	return tmpl, nil
}

// assignedTemplate loads the template a run was given, if any
func assignedTemplate(ctx context.Context, q db.Queryer, run *models.FlowRun) (*models.ResultTemplate, error) {
	if run.ResultTemplateID == nil {
		return nil, nil
	}
	tmpl, err := loadTemplate(ctx, q, *run.ResultTemplateID)
	if errors.Is(err, ErrTemplateNotFound) {
		return nil, nil
	}
	return tmpl, err
}
