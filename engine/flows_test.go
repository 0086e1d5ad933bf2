// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/swipeflow/flowgraph"
	"github.com/danielhkuo/swipeflow/models"
	"github.com/danielhkuo/swipeflow/testutil"
)

func threeCardRequest() *models.SaveFlowRequest {
	return &models.SaveFlowRequest{
		Name: "Coffee quiz",
		Cards: []models.CardDraft{
			testutil.Card("Espresso?", [2]int{0, 10}, nil, testutil.Index(2)),
			testutil.Card("Milk?", [2]int{5, 15}),
			testutil.Card("Sugar?", [2]int{1, 2}),
		},
		EndCards: []models.EndCard{{
			Message:    "Thanks!",
			FormFields: []models.FormField{{Label: "Email", Type: models.FieldEmail}},
		}},
		IsPublic: true,
	}
}

func TestCreateFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.engine.CreateFlow(ctx, owner, threeCardRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Version)
	require.NotNil(t, resp.PublicSlug)
	assert.Equal(t, "http://swipe.test/p/"+*resp.PublicSlug, resp.PublicURL)

	flow, err := f.engine.GetFlow(ctx, owner, resp.FlowID)
	require.NoError(t, err)
	require.Len(t, flow.Cards, 3)
	assert.Equal(t, "Coffee quiz", flow.Name)
	assert.True(t, flow.AllowAnonymous, "allow_anonymous defaults to true")
	assert.Equal(t, [2]int{0, 10}, flow.Cards[0].Scores)
	assert.Equal(t, "Email", flow.EndCards[0].FormFields[0].Label)

	target, ok := flow.Cards[0].Branches[1].Target()
	require.True(t, ok)
	assert.Equal(t, flow.Cards[2].ID, target)
	assert.True(t, flow.Cards[0].Branches[0].IsSequential())

	assert.Equal(t, 1, f.count(t, "SELECT COUNT(*) FROM card_connection"))
}

func TestCreateFlow_CycleRejected(t *testing.T) {
	f := newFixture(t)

	req := &models.SaveFlowRequest{
		Name: "Loop",
		Cards: []models.CardDraft{
			testutil.Card("A", [2]int{}, nil, testutil.Index(1)),
			testutil.Card("B", [2]int{}, testutil.Index(0)),
		},
	}
	_, err := f.engine.CreateFlow(context.Background(), owner, req)

	var ve *flowgraph.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, flowgraph.KindCycle, ve.Kind)
	assert.Equal(t, 0, f.count(t, "SELECT COUNT(*) FROM flow"), "nothing may be persisted")
	assert.Equal(t, 0, f.count(t, "SELECT COUNT(*) FROM card"))
}

func TestCreateFlow_RequiresIdentity(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.CreateFlow(context.Background(), anonymous, threeCardRequest())
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.engine.CreateFlow(ctx, owner, threeCardRequest())
	require.NoError(t, err)
	before, err := f.engine.GetFlow(ctx, owner, created.FlowID)
	require.NoError(t, err)

	req := threeCardRequest()
	req.Name = "Tea quiz"
	req.Cards = req.Cards[:2]
	req.Cards[0].Branches = nil
	updated, err := f.engine.UpdateFlow(ctx, owner, created.FlowID, req)
	require.NoError(t, err)

	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, *created.PublicSlug, *updated.PublicSlug, "slug survives edits")

	after, err := f.engine.GetFlow(ctx, owner, created.FlowID)
	require.NoError(t, err)
	assert.Equal(t, "Tea quiz", after.Name)
	require.Len(t, after.Cards, 2)
	assert.NotEqual(t, before.Cards[0].ID, after.Cards[0].ID, "cards are recreated")
	assert.Equal(t, 0, f.count(t, "SELECT COUNT(*) FROM card_connection"))
}

func TestUpdateFlow_RefusedWhileRunsActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.engine.CreateFlow(ctx, owner, threeCardRequest())
	require.NoError(t, err)

	run, caller := f.run(t, participant, created.FlowID)

	_, err = f.engine.UpdateFlow(ctx, owner, created.FlowID, threeCardRequest())
	assert.ErrorIs(t, err, ErrActiveRuns)
	assert.ErrorIs(t, f.engine.DeleteFlow(ctx, owner, created.FlowID), ErrActiveRuns)

	_, err = f.engine.StopRun(ctx, caller, run.RunID, nil)
	require.NoError(t, err)

	_, err = f.engine.UpdateFlow(ctx, owner, created.FlowID, threeCardRequest())
	assert.NoError(t, err)
}

func TestUpdateFlow_Ownership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.engine.CreateFlow(ctx, owner, threeCardRequest())
	require.NoError(t, err)

	_, err = f.engine.UpdateFlow(ctx, participant, created.FlowID, threeCardRequest())
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.engine.UpdateFlow(ctx, owner, "missing", threeCardRequest())
	assert.ErrorIs(t, err, ErrFlowNotFound)

	_, err = f.engine.GetFlow(ctx, participant, created.FlowID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestDeleteFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.engine.CreateFlow(ctx, owner, threeCardRequest())
	require.NoError(t, err)

	assert.ErrorIs(t, f.engine.DeleteFlow(ctx, participant, created.FlowID), ErrForbidden)
	require.NoError(t, f.engine.DeleteFlow(ctx, owner, created.FlowID))

	_, err = f.engine.GetFlow(ctx, owner, created.FlowID)
	assert.ErrorIs(t, err, ErrFlowNotFound)
	assert.Equal(t, 0, f.count(t, "SELECT COUNT(*) FROM card"))
}

func TestGetPublicFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.engine.CreateFlow(ctx, owner, threeCardRequest())
	require.NoError(t, err)

	flow, err := f.engine.GetPublicFlow(ctx, *created.PublicSlug)
	require.NoError(t, err)
	assert.Equal(t, created.FlowID, flow.ID)

	// Turning the flow private hides the slug without forgetting it
	req := threeCardRequest()
	req.IsPublic = false
	_, err = f.engine.UpdateFlow(ctx, owner, created.FlowID, req)
	require.NoError(t, err)

	_, err = f.engine.GetPublicFlow(ctx, *created.PublicSlug)
	assert.ErrorIs(t, err, ErrFlowNotFound)

	_, err = f.engine.GetPublicFlow(ctx, "nope")
	assert.ErrorIs(t, err, ErrFlowNotFound)
}
