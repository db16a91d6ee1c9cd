package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/worldsim/internal/creature"
	"github.com/annel0/worldsim/internal/items"
	"github.com/annel0/worldsim/internal/vec"
)

var (
	groundType = &items.ItemType{ID: 1, Name: "grass", Flags: items.FlagGround, Speed: 150}
	borderType = &items.ItemType{ID: 2, Name: "border", Flags: items.FlagGroundBorder}
	poolType   = &items.ItemType{ID: 3, Name: "blood", Flags: items.FlagLiquidPool}
	topType    = &items.ItemType{ID: 4, Name: "arch", Flags: items.FlagStayOnTop}
	bottomType = &items.ItemType{ID: 5, Name: "ladder", Flags: items.FlagStayOnBottom}
	coinType   = &items.ItemType{ID: 6, Name: "coin", Flags: items.FlagStackable}
	swordType  = &items.ItemType{ID: 7, Name: "sword"}
	wallType   = &items.ItemType{ID: 8, Name: "wall", Flags: items.FlagStayOnTop | items.FlagBlocksWalk | items.FlagBlocksSight}
)

func mustItem(t *testing.T, it *items.ItemType, amount int) *items.Item {
	t.Helper()
	item, err := items.New(it, amount)
	require.NoError(t, err)
	return item
}

func TestTile_LayerOrder(t *testing.T) {
	tile := NewTile(vec.Location{X: 10, Y: 10, Z: 7})

	sword := mustItem(t, swordType, 1)
	bottom := mustItem(t, bottomType, 1)
	top := mustItem(t, topType, 1)
	pool := mustItem(t, poolType, 1)
	border := mustItem(t, borderType, 1)
	ground := mustItem(t, groundType, 1)

	// добавляем в обратном порядке, перечисление всё равно фиксировано
	for _, it := range []*items.Item{sword, bottom, top, pool, border, ground} {
		require.True(t, tile.AddItem(it))
	}
	require.True(t, tile.AddCreature(42))

	assert.Equal(t, 0, tile.GetIndexOfItem(ground))
	assert.Equal(t, 1, tile.GetIndexOfItem(border))
	assert.Equal(t, 2, tile.GetIndexOfItem(pool))
	assert.Equal(t, 3, tile.GetIndexOfItem(top))
	assert.Equal(t, 4, tile.GetIndexOfItem(bottom))
	assert.Equal(t, 5, tile.GetIndexOfCreature(42))
	assert.Equal(t, 6, tile.GetIndexOfItem(sword))

	th, ok := tile.ThingAt(5)
	require.True(t, ok)
	assert.True(t, th.IsCreature())
	_, ok = tile.ThingAt(7)
	assert.False(t, ok)
}

func TestTile_LIFOAndMiddleRemoval(t *testing.T) {
	tile := NewTile(vec.Location{X: 1, Y: 1, Z: 7})
	a := mustItem(t, swordType, 1)
	b := mustItem(t, swordType, 1)
	c := mustItem(t, swordType, 1)
	for _, it := range []*items.Item{a, b, c} {
		tile.AddItem(it)
	}

	assert.Equal(t, []int{0, 1, 2}, []int{tile.GetIndexOfItem(c), tile.GetIndexOfItem(b), tile.GetIndexOfItem(a)})

	require.True(t, tile.RemoveItem(b))
	assert.Equal(t, 0, tile.GetIndexOfItem(c))
	assert.Equal(t, 1, tile.GetIndexOfItem(a), "Порядок оставшихся сохраняется")
	assert.Equal(t, -1, tile.GetIndexOfItem(b))
	assert.False(t, tile.RemoveItem(b))
}

func TestTile_SingletonsReplace(t *testing.T) {
	tile := NewTile(vec.Location{})
	g1 := mustItem(t, groundType, 1)
	g2 := mustItem(t, groundType, 1)
	tile.AddItem(g1)
	tile.AddItem(g2)

	assert.Same(t, g2, tile.Ground())
	assert.Equal(t, 1, tile.Count())
}

func TestTile_StackMergeWithRemainder(t *testing.T) {
	tile := NewTile(vec.Location{})
	first := mustItem(t, coinType, 70)
	second := mustItem(t, coinType, 50)

	tile.AddItem(first)
	tile.AddItem(second)

	assert.Equal(t, items.MaxStackAmount, first.Amount)
	assert.Equal(t, 20, second.Amount, "Остаток ложится отдельной стопкой")
	assert.Same(t, second, tile.TopItem())
	assert.Equal(t, 2, tile.Count())

	third := mustItem(t, coinType, 5)
	tile.AddItem(third)
	assert.Equal(t, 25, second.Amount)
	assert.Equal(t, 0, third.Amount)
	assert.Equal(t, 2, tile.Count(), "Полностью слитая стопка не добавляется")
}

func TestTile_BlockingPredicates(t *testing.T) {
	tile := NewTile(vec.Location{})
	tile.AddItem(mustItem(t, groundType, 1))
	assert.True(t, tile.IsWalkable())
	assert.False(t, tile.BlocksSight())

	wall := mustItem(t, wallType, 1)
	tile.AddItem(wall)
	assert.True(t, tile.BlocksWalk())
	assert.True(t, tile.BlocksSight())
	assert.True(t, tile.BlocksPathfinding(), "Непроходимый предмет блокирует и поиск пути")
	assert.False(t, tile.IsWalkable())

	tile.RemoveItem(wall)
	tile.AddCreature(creature.ID(9))
	assert.False(t, tile.IsWalkable(), "Занятый тайл непроходим")
	assert.False(t, tile.BlocksWalk())
}
