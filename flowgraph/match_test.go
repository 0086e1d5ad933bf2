// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package flowgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/swipeflow/models"
)

func answer(a models.Answer) *models.Answer { return &a }

func TestSumScore(t *testing.T) {
	cards := []models.Card{
		{ID: "A", Scores: [2]int{0, 10}},
		{ID: "B", Scores: [2]int{5, 15}},
	}

	tests := []struct {
		name    string
		results []models.Result
		want    int
	}{
		{"both yes", []models.Result{{CardID: "A", Answer: answer(1)}, {CardID: "B", Answer: answer(1)}}, 25},
		{"both no", []models.Result{{CardID: "A", Answer: answer(0)}, {CardID: "B", Answer: answer(0)}}, 5},
		{"unanswered counts zero", []models.Result{{CardID: "A", Answer: answer(1)}, {CardID: "B"}}, 10},
		{"unknown card counts zero", []models.Result{{CardID: "Z", Answer: answer(1)}}, 0},
		{"no results", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SumScore(cards, tt.results))
		})
	}
}

func intPtr(i int) *int { return &i }

func rangeTemplates() []models.ResultTemplate {
	return []models.ResultTemplate{
		{ID: "high", Title: "High", MinScore: 67, Order: 2},
		{ID: "low", Title: "Low", MinScore: 0, MaxScore: intPtr(33), Order: 0},
		{ID: "mid", Title: "Mid", MinScore: 34, MaxScore: intPtr(66), Order: 1},
	}
}

func TestMatchTemplate(t *testing.T) {
	templates := rangeTemplates()

	tests := []struct {
		score int
		want  string
	}{
		{0, "Low"},
		{33, "Low"},
		{34, "Mid"},
		{50, "Mid"},
		{66, "Mid"},
		{67, "High"},
		{100, "High"},
	}

	for _, tt := range tests {
		got := MatchTemplate(tt.score, templates)
		require.NotNil(t, got, "score %d", tt.score)
		assert.Equal(t, tt.want, got.Title, "score %d", tt.score)
	}

	assert.Equal(t, "high", templates[0].ID, "input order must be preserved")
}

func TestMatchTemplate_NoMatch(t *testing.T) {
	templates := []models.ResultTemplate{
		{ID: "t1", MinScore: 10, MaxScore: intPtr(20)},
		{ID: "t2", MinScore: 30},
	}
	assert.Nil(t, MatchTemplate(5, templates))
	assert.Nil(t, MatchTemplate(25, templates))
	assert.Nil(t, MatchTemplate(0, nil))
}

func TestMatchTemplate_TieBreak(t *testing.T) {
	templates := []models.ResultTemplate{
		{ID: "b", Title: "second", MinScore: 0, Order: 1},
		{ID: "z", Title: "first-by-order", MinScore: 0, Order: 0},
		{ID: "a", Title: "first-by-id", MinScore: 0, Order: 1},
	}
	assert.Equal(t, "first-by-order", MatchTemplate(10, templates).Title)

	templates[1].Order = 5
	assert.Equal(t, "first-by-id", MatchTemplate(10, templates).Title)
}
