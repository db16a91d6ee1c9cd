package items

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	goldType  = &ItemType{ID: 2148, Name: "gold coin", Flags: FlagStackable | FlagMovable}
	swordType = &ItemType{ID: 2376, Name: "sword", Flags: FlagMovable}
)

func TestItem_MergeCarriesRemainder(t *testing.T) {
	top, err := New(goldType, 80)
	require.NoError(t, err)
	incoming, err := New(goldType, 50)
	require.NoError(t, err)

	moved := top.Merge(incoming)
	assert.Equal(t, 20, moved)
	assert.Equal(t, MaxStackAmount, top.Amount)
	assert.Equal(t, 30, incoming.Amount, "Остаток остаётся в исходном предмете")
	assert.False(t, top.CanMergeWith(incoming), "Полная стопка больше не принимает")
}

func TestItem_NonStackable(t *testing.T) {
	a, err := New(swordType, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, a.Amount)

	b, _ := New(swordType, 1)
	assert.Equal(t, 0, a.Merge(b))
	assert.NotEqual(t, a.ID, b.ID)
}

func TestItem_Split(t *testing.T) {
	stack, _ := New(goldType, 10)
	part, err := stack.Split(4)
	require.NoError(t, err)
	assert.Equal(t, 6, stack.Amount)
	assert.Equal(t, 4, part.Amount)

	_, err = stack.Split(6)
	assert.Error(t, err)
}

func TestParseFlags(t *testing.T) {
	f, err := ParseFlags([]string{"ground", "Blocks_Sight"})
	require.NoError(t, err)
	assert.Equal(t, FlagGround|FlagBlocksSight, f)

	_, err = ParseFlags([]string{"flying"})
	assert.Error(t, err)
}
