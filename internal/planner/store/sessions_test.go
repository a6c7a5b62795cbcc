package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planforge/craftplan/pkg/plan"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenAndInit(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAndLoadSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	planks := plan.NewRecipe(plan.NewStack("Oak Wood Planks", 4), "Crafting Table",
		plan.NewStack("Oak Log", 1))
	shovel := plan.NewRecipe(plan.NewStack("Wooden Shovel", 1), "Crafting Table",
		plan.NewStack("Oak Wood Planks", 1), plan.NewStack("Stick", 2))

	id, err := s.SaveSession(ctx, "workshop",
		plan.NewStack("Wooden Shovel", 2),
		[]*plan.Recipe{&planks, &shovel},
		[]plan.Stack{plan.NewStack("Stick", 5)})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	sess, err := s.LoadSession(ctx, "workshop")
	require.NoError(t, err)
	require.NotNil(t, sess)

	assert.Equal(t, id, sess.ID)
	assert.Equal(t, "workshop", sess.Name)
	assert.Equal(t, plan.NewStack("Wooden Shovel", 2), sess.Target)
	assert.Equal(t, []plan.Stack{plan.NewStack("Stick", 5)}, sess.Resources)

	require.Len(t, sess.Recipes, 2)
	// Recipes come back sorted by result item, ingredients in saved order.
	assert.True(t, sess.Recipes[0].Equal(&planks), "got %+v", sess.Recipes[0])
	assert.True(t, sess.Recipes[1].Equal(&shovel), "got %+v", sess.Recipes[1])
}

func TestLoadMissingSession(t *testing.T) {
	s := newTestStore(t)

	sess, err := s.LoadSession(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestSaveSessionUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	planks := plan.NewRecipe(plan.NewStack("Oak Wood Planks", 4), "Crafting Table",
		plan.NewStack("Oak Log", 1))

	id1, err := s.SaveSession(ctx, "workshop",
		plan.NewStack("Oak Wood Planks", 8),
		[]*plan.Recipe{&planks},
		[]plan.Stack{plan.NewStack("Oak Log", 3)})
	require.NoError(t, err)

	// Saving under the same name replaces catalog, resources, and target.
	charcoal := plan.NewRecipe(plan.NewStack("Charcoal", 1), "Furnace",
		plan.NewStack("Oak Log", 1))
	id2, err := s.SaveSession(ctx, "workshop",
		plan.NewStack("Charcoal", 4),
		[]*plan.Recipe{&charcoal},
		nil)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	sess, err := s.LoadSession(ctx, "workshop")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, plan.NewStack("Charcoal", 4), sess.Target)
	assert.Empty(t, sess.Resources)
	require.Len(t, sess.Recipes, 1)
	assert.True(t, sess.Recipes[0].Equal(&charcoal))
}

func TestSessionRoundtripsLargeCounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Counts above 1<<63 pass through the int64 column bit-exact.
	huge := plan.Count(1)<<63 + 42
	_, err := s.SaveSession(ctx, "big",
		plan.NewStack("Cobblestone", huge), nil,
		[]plan.Stack{plan.NewStack("Dirt", huge)})
	require.NoError(t, err)

	sess, err := s.LoadSession(ctx, "big")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, huge, sess.Target.Count)
	require.Len(t, sess.Resources, 1)
	assert.Equal(t, huge, sess.Resources[0].Count)
}

func TestListSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	planks := plan.NewRecipe(plan.NewStack("Oak Wood Planks", 4), "Crafting Table",
		plan.NewStack("Oak Log", 1))

	_, err := s.SaveSession(ctx, "first", plan.NewStack("Oak Wood Planks", 1),
		[]*plan.Recipe{&planks}, nil)
	require.NoError(t, err)
	_, err = s.SaveSession(ctx, "second", plan.NewStack("Stick", 1), nil, nil)
	require.NoError(t, err)

	infos, err := s.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)

	byName := make(map[string]SessionInfo)
	for _, info := range infos {
		byName[info.Name] = info
	}
	assert.Equal(t, 1, byName["first"].RecipeCount)
	assert.Equal(t, 0, byName["second"].RecipeCount)
	assert.Equal(t, plan.NewStack("Stick", 1), byName["second"].Target)
}
