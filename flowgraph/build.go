// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package flowgraph

import "github.com/danielhkuo/swipeflow/models"

// BuildCards turns validated drafts into cards and their materialized
// connections. newID is called once per card, in draft order.
func BuildCards(flowID string, drafts []models.CardDraft, newID func() string) ([]models.Card, []models.CardConnection) {
	cards := make([]models.Card, len(drafts))
	for i, d := range drafts {
		cards[i] = models.Card{
			ID:          newID(),
			FlowID:      flowID,
			Position:    i,
			Question:    d.Question,
			Description: d.Description,
			Options:     optionsOf(d),
			Scores:      [2]int{scoreAt(d, 0), scoreAt(d, 1)},
			Skippable:   d.Skippable,
		}
	}

	var conns []models.CardConnection
	for i, d := range drafts {
		for opt := range 2 {
			target := branchAt(d, opt)
			if target == nil {
				continue
			}
			cards[i].Branches[opt] = models.GoTo(cards[*target].ID)
			conns = append(conns, models.CardConnection{
				SourceCardID: cards[i].ID,
				SourceOption: models.Answer(opt),
				TargetCardID: cards[*target].ID,
			})
		}
	}

	return cards, conns
}

// ApplyConnections sets card branches from stored edges. Edges whose source
// is not in cards are ignored; targets are taken as stored.
func ApplyConnections(cards []models.Card, conns []models.CardConnection) {
	byID := make(map[string]int, len(cards))
	for i, c := range cards {
		byID[c.ID] = i
	}
	for _, conn := range conns {
		i, ok := byID[conn.SourceCardID]
		if !ok || !conn.SourceOption.Valid() {
			continue
		}
		cards[i].Branches[conn.SourceOption] = models.GoTo(conn.TargetCardID)
	}
}

func optionsOf(d models.CardDraft) [2]string {
	if len(d.Options) != 2 {
		return models.DefaultOptions
	}
	return [2]string{d.Options[0], d.Options[1]}
}

func branchAt(d models.CardDraft, opt int) *int {
	if opt < len(d.Branches) {
		return d.Branches[opt]
	}
	return nil
}

func scoreAt(d models.CardDraft, opt int) int {
	if opt < len(d.Scores) {
		return d.Scores[opt]
	}
	return 0
}
