// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package flowgraph

import "github.com/danielhkuo/swipeflow/models"

// Membership is a flow's live card set together with its sequential order
type Membership struct {
	order []string
	index map[string]int
}

func NewMembership(cardIDs []string) Membership {
	m := Membership{
		order: append([]string(nil), cardIDs...),
		index: make(map[string]int, len(cardIDs)),
	}
	for i, id := range cardIDs {
		m.index[id] = i
	}
	return m
}

func (m Membership) Len() int { return len(m.order) }

func (m Membership) Contains(cardID string) bool {
	_, ok := m.index[cardID]
	return ok
}

// First returns the card a run starts on
func (m Membership) First() (string, bool) {
	if len(m.order) == 0 {
		return "", false
	}
	return m.order[0], true
}

// After returns the card following cardID in sequential order.
// ok is false at the end of the flow or when cardID is not a member.
func (m Membership) After(cardID string) (string, bool) {
	i, found := m.index[cardID]
	if !found || i+1 >= len(m.order) {
		return "", false
	}
	return m.order[i+1], true
}

// Resolution is the outcome of one hop. Exactly one of Next or End is set.
// Rejected carries a stored branch target that was refused because it is
// not a member of the flow.
type Resolution struct {
	Next     string
	End      bool
	Rejected string
}

// Resolve picks the card after answering card with answer. An explicit
// branch is followed only when its target belongs to m; otherwise the
// stored target is reported in Rejected and sequential order is used.
func Resolve(card models.Card, answer models.Answer, m Membership) Resolution {
	var res Resolution
	if answer.Valid() {
		if target, ok := card.Branches[answer].Target(); ok {
			if m.Contains(target) {
				return Resolution{Next: target}
			}
			res.Rejected = target
		}
	}

	next, ok := m.After(card.ID)
	if !ok {
		res.End = true
		return res
	}
	res.Next = next
	return res
}

// ResolveSkip is the hop taken when a skippable card is skipped
func ResolveSkip(card models.Card, m Membership) Resolution {
	next, ok := m.After(card.ID)
	if !ok {
		return Resolution{End: true}
	}
	return Resolution{Next: next}
}
