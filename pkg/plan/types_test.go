package plan

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddCounts(t *testing.T) {
	sum, err := AddCounts(2, 3)
	require.NoError(t, err)
	assert.Equal(t, Count(5), sum)

	_, err = AddCounts(math.MaxUint64, 1)
	assert.ErrorIs(t, err, ErrCountOverflow)

	sum, err = AddCounts(math.MaxUint64, 0)
	require.NoError(t, err)
	assert.Equal(t, Count(math.MaxUint64), sum)
}

func TestMulCounts(t *testing.T) {
	product, err := MulCounts(6, 7)
	require.NoError(t, err)
	assert.Equal(t, Count(42), product)

	_, err = MulCounts(math.MaxUint64, 2)
	assert.ErrorIs(t, err, ErrCountOverflow)

	product, err = MulCounts(math.MaxUint64, 1)
	require.NoError(t, err)
	assert.Equal(t, Count(math.MaxUint64), product)

	product, err = MulCounts(math.MaxUint64, 0)
	require.NoError(t, err)
	assert.Equal(t, Count(0), product)
}

func TestStackString(t *testing.T) {
	assert.Equal(t, "Oak Log (1)", NewStack("Oak Log", 1).String())
	assert.Equal(t, "Gold Nugget (1000)", NewStack("Gold Nugget", 1000).String())
}

func TestRecipeEqual(t *testing.T) {
	a := NewRecipe(NewStack("Stick", 4), "Crafting Table", NewStack("Oak Wood Planks", 2))
	b := NewRecipe(NewStack("Stick", 4), "Crafting Table", NewStack("Oak Wood Planks", 2))
	assert.True(t, a.Equal(&b))

	c := NewRecipe(NewStack("Stick", 4), "Stonecutter", NewStack("Oak Wood Planks", 2))
	assert.False(t, a.Equal(&c))

	d := NewRecipe(NewStack("Stick", 4), "Crafting Table", NewStack("Oak Wood Planks", 3))
	assert.False(t, a.Equal(&d))

	e := NewRecipe(NewStack("Stick", 4), "Crafting Table")
	assert.False(t, a.Equal(&e))
}

func TestSyntheticRecipes(t *testing.T) {
	raw := RawMaterial("Oak Log")
	assert.True(t, raw.Synthetic())
	assert.Equal(t, NewStack("Oak Log", 1), raw.Result)
	assert.Empty(t, raw.Ingredients)

	stored := InStorage("Stick")
	assert.True(t, stored.Synthetic())
	assert.Equal(t, Count(1), stored.Result.Count)

	crafted := NewRecipe(NewStack("Stick", 4), "Crafting Table", NewStack("Oak Wood Planks", 2))
	assert.False(t, crafted.Synthetic())
}
