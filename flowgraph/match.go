// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package flowgraph

import (
	"cmp"
	"slices"

	"github.com/danielhkuo/swipeflow/models"
)

// SumScore adds each answered card's score for its answer.
// Unanswered results and results for unknown cards count 0.
func SumScore(cards []models.Card, results []models.Result) int {
	byID := make(map[string]models.Card, len(cards))
	for _, c := range cards {
		byID[c.ID] = c
	}

	total := 0
	for _, r := range results {
		if r.Answer == nil {
			continue
		}
		if c, ok := byID[r.CardID]; ok {
			total += c.Score(*r.Answer)
		}
	}
	return total
}

// SortTemplates orders templates by (Order, ID) in place
func SortTemplates(templates []models.ResultTemplate) {
	slices.SortFunc(templates, func(a, b models.ResultTemplate) int {
		if c := cmp.Compare(a.Order, b.Order); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// MatchTemplate returns the first template, by (Order, ID), whose inclusive
// range contains score, or nil. The input slice is not modified.
func MatchTemplate(score int, templates []models.ResultTemplate) *models.ResultTemplate {
	sorted := slices.Clone(templates)
	SortTemplates(sorted)

	for i := range sorted {
		if sorted[i].Matches(score) {
			return &sorted[i]
		}
	}
	return nil
}
