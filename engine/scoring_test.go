// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/swipeflow/metrics"
	"github.com/danielhkuo/swipeflow/models"
	"github.com/danielhkuo/swipeflow/testutil"
)

func TestCalculateScore_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	flowID, cards := f.flow(t, testutil.Card("A", [2]int{2, 8}), testutil.Card("B", [2]int{4, 6}))
	run, caller := f.run(t, anonymous, flowID)

	_, err := f.engine.CalculateScore(ctx, run.RunID)
	assert.ErrorIs(t, err, ErrRunNotCompleted)

	_, err = f.engine.SubmitAnswer(ctx, caller, run.RunID, cards[0].ID, models.AnswerYes)
	require.NoError(t, err)
	_, err = f.engine.SubmitAnswer(ctx, caller, run.RunID, cards[1].ID, models.AnswerNo)
	require.NoError(t, err)

	computed := metrics.ScoreCalculations.WithLabelValues(metrics.ScoreComputed)
	cached := metrics.ScoreCalculations.WithLabelValues(metrics.ScoreCached)
	computedBefore := promtestutil.ToFloat64(computed)
	cachedBefore := promtestutil.ToFloat64(cached)

	for i := 0; i < 3; i++ {
		total, err := f.engine.CalculateScore(ctx, run.RunID)
		require.NoError(t, err)
		assert.Equal(t, 12, total)
	}

	assert.Equal(t, computedBefore, promtestutil.ToFloat64(computed), "completion already stored the score")
	assert.Equal(t, cachedBefore+3, promtestutil.ToFloat64(cached))

	_, err = f.engine.CalculateScore(ctx, "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestCalculateScore_StoredValueWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	flowID, cards := f.flow(t, testutil.Card("A", [2]int{0, 10}))
	run, caller := f.run(t, anonymous, flowID)

	_, err := f.engine.SubmitAnswer(ctx, caller, run.RunID, cards[0].ID, models.AnswerYes)
	require.NoError(t, err)

	// Later changes to the card's scores do not rewrite a finished run
	_, err = f.db.ExecContext(ctx, "UPDATE card SET score1 = $1 WHERE id = $2", 99, cards[0].ID)
	require.NoError(t, err)

	total, err := f.engine.CalculateScore(ctx, run.RunID)
	require.NoError(t, err)
	assert.Equal(t, 10, total)
}

func TestTemplateBands(t *testing.T) {
	drafts := []models.CardDraft{
		testutil.Card("A", [2]int{0, 10}),
		testutil.Card("B", [2]int{0, 10}),
		testutil.Card("C", [2]int{0, 10}),
	}

	tests := []struct {
		name    string
		answers []models.Answer
		want    string
	}{
		{"low", []models.Answer{models.AnswerNo, models.AnswerNo, models.AnswerNo}, "Low"},
		{"mid", []models.Answer{models.AnswerYes, models.AnswerNo, models.AnswerNo}, "Mid"},
		{"high", []models.Answer{models.AnswerYes, models.AnswerYes, models.AnswerNo}, "High"},
		{"unbounded top", []models.Answer{models.AnswerYes, models.AnswerYes, models.AnswerYes}, "High"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			flowID, cards := f.flow(t, drafts...)
			testutil.CreateTestTemplate(t, f.db, flowID, "High", 20, -1, 2)
			testutil.CreateTestTemplate(t, f.db, flowID, "Low", 0, 9, 0)
			testutil.CreateTestTemplate(t, f.db, flowID, "Mid", 10, 19, 1)

			run, caller := f.run(t, anonymous, flowID)
			var resp *models.SubmitAnswerResponse
			for i, a := range tt.answers {
				var err error
				resp, err = f.engine.SubmitAnswer(ctx, caller, run.RunID, cards[i].ID, a)
				require.NoError(t, err)
			}

			require.True(t, resp.Completed)
			require.NotNil(t, resp.ResultTemplate)
			assert.Equal(t, tt.want, resp.ResultTemplate.Title)

			tmpl, err := f.engine.AssignTemplate(ctx, run.RunID)
			require.NoError(t, err)
			require.NotNil(t, tmpl)
			assert.Equal(t, tt.want, tmpl.Title)
		})
	}
}

func TestAssignTemplate_NoMatchIsPermanent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	flowID, cards := f.flow(t, testutil.Card("A", [2]int{0, 10}))
	testutil.CreateTestTemplate(t, f.db, flowID, "Perfect", 100, -1, 0)
	run, caller := f.run(t, anonymous, flowID)

	resp, err := f.engine.SubmitAnswer(ctx, caller, run.RunID, cards[0].ID, models.AnswerYes)
	require.NoError(t, err)
	assert.Nil(t, resp.ResultTemplate)

	testutil.CreateTestTemplate(t, f.db, flowID, "Everyone", 0, -1, 0)

	tmpl, err := f.engine.AssignTemplate(ctx, run.RunID)
	require.NoError(t, err)
	assert.Nil(t, tmpl, "a run that matched nothing keeps no template")

	view, err := f.engine.GetRun(ctx, caller, run.RunID)
	require.NoError(t, err)
	assert.Nil(t, view.ResultTemplate)
}

func TestAssignTemplate_DeletedTemplate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	flowID, cards := f.flow(t, testutil.Card("A", [2]int{0, 10}))
	templateID := testutil.CreateTestTemplate(t, f.db, flowID, "Any", 0, -1, 0)
	run, caller := f.run(t, anonymous, flowID)

	resp, err := f.engine.SubmitAnswer(ctx, caller, run.RunID, cards[0].ID, models.AnswerYes)
	require.NoError(t, err)
	require.NotNil(t, resp.ResultTemplate)

	require.NoError(t, f.engine.DeleteTemplate(ctx, owner, flowID, templateID))

	view, err := f.engine.GetRun(ctx, caller, run.RunID)
	require.NoError(t, err)
	assert.Nil(t, view.ResultTemplate)
	assert.Equal(t, 10, view.Run.TotalScore)
}

func TestAssignTemplate_RequiresCompletion(t *testing.T) {
	f := newFixture(t)
	flowID, _ := f.flow(t, testutil.Card("A", [2]int{}))
	run, _ := f.run(t, anonymous, flowID)

	_, err := f.engine.AssignTemplate(context.Background(), run.RunID)
	assert.ErrorIs(t, err, ErrRunNotCompleted)
}

func TestLogReporter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	NewLogReporter(logger).ReportInvalidBranch(context.Background(), models.SecurityEvent{
		FlowID:        "flow",
		RunID:         "run",
		SourceCardID:  "card-a",
		InvalidTarget: "card-x",
		Answer:        models.AnswerYes,
	})

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "invalid_card_id=card-x")
	assert.Contains(t, out, "source_card_id=card-a")
}
