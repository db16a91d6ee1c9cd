package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/worldsim/internal/items"
	"github.com/annel0/worldsim/internal/vec"
)

type typeTable map[items.TypeID]*items.ItemType

func (tt typeTable) ItemType(id items.TypeID) (*items.ItemType, bool) {
	t, ok := tt[id]
	return t, ok
}

func paletteTypes() typeTable {
	p := DefaultPalette
	return typeTable{
		p.Grass:  {ID: p.Grass, Name: "grass", Flags: items.FlagGround, Speed: 150},
		p.Sand:   {ID: p.Sand, Name: "sand", Flags: items.FlagGround, Speed: 160},
		p.Water:  {ID: p.Water, Name: "water", Flags: items.FlagGround | items.FlagBlocksWalk},
		p.Border: {ID: p.Border, Name: "border", Flags: items.FlagGroundBorder},
		p.Tree:   {ID: p.Tree, Name: "tree", Flags: items.FlagBlocksWalk | items.FlagBlocksPath},
		p.Stone:  {ID: p.Stone, Name: "stone", Flags: items.FlagBlocksWalk | items.FlagBlocksPath},
	}
}

func TestProceduralLoader_Deterministic(t *testing.T) {
	window := vec.Bounds{FromX: 64, ToX: 95, FromY: 32, ToY: 63, FromZ: 7, ToZ: 7}

	a, err := NewProceduralLoader(7, paletteTypes(), DefaultPalette)
	require.NoError(t, err)
	b, err := NewProceduralLoader(7, paletteTypes(), DefaultPalette)
	require.NoError(t, err)

	ra, err := a.LoadWindow(window)
	require.NoError(t, err)
	rb, err := b.LoadWindow(window)
	require.NoError(t, err)

	require.Len(t, ra.Tiles, 32*32)
	assert.Equal(t, window, ra.Loaded)
	for i := range ra.Tiles {
		require.NotNil(t, ra.Tiles[i].Ground(), "На поверхности у каждого тайла есть земля")
		assert.Equal(t, ra.Tiles[i].Ground().Type.ID, rb.Tiles[i].Ground().Type.ID)
		assert.Equal(t, ra.Tiles[i].Count(), rb.Tiles[i].Count())
	}
}

func TestProceduralLoader_ClearingAndOtherFloors(t *testing.T) {
	g, err := NewProceduralLoader(3, paletteTypes(), DefaultPalette)
	require.NoError(t, err)
	g.ClearingCenter = vec.Location{X: 100, Y: 100, Z: 7}
	g.ClearingRadius = 3

	res, err := g.LoadWindow(vec.BoundsAround(g.ClearingCenter, 3, 3, 7, 7))
	require.NoError(t, err)
	for _, tile := range res.Tiles {
		assert.True(t, tile.IsWalkable(), "Поляна проходима: %v", tile.Location())
	}

	res, err = g.LoadWindow(vec.Bounds{FromX: 0, ToX: 7, FromY: 0, ToY: 7, FromZ: 8, ToZ: 8})
	require.NoError(t, err)
	assert.Empty(t, res.Tiles)
}

func TestProceduralLoader_MissingPaletteType(t *testing.T) {
	_, err := NewProceduralLoader(1, typeTable{}, DefaultPalette)
	assert.Error(t, err)
}
