package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/annel0/worldsim/internal/items"
	"github.com/annel0/worldsim/internal/logging"
	"github.com/annel0/worldsim/internal/vec"
	"github.com/annel0/worldsim/internal/world"
)

// singleTileLoader кладёт траву только на один тайл
type singleTileLoader struct {
	at vec.Location
}

func (l singleTileLoader) LoadWindow(requested vec.Bounds) (world.LoadResult, error) {
	res := world.LoadResult{Loaded: requested}
	if requested.Contains(l.at) {
		tile := world.NewTile(l.at)
		g, _ := items.New(&items.ItemType{ID: 102, Flags: items.FlagGround}, 1)
		tile.AddItem(g)
		res.Tiles = append(res.Tiles, tile)
	}
	return res, nil
}

func newSliceMap(grassAt vec.Location) *world.Map {
	return world.NewMap(singleTileLoader{at: grassAt}, world.WithWindowSize(32), world.WithMapLogger(logging.NewDiscardLogger()))
}

func TestMapSlice_EastColumn(t *testing.T) {
	center := vec.Location{X: 100, Y: 100, Z: 7}
	// первый тайл столбца на этаже наблюдателя
	m := newSliceMap(vec.Location{X: 109, Y: 94, Z: 7})

	frame := MapSlice(m, center, vec.East, nil, nil)
	// трава, затем 111 пустых тайлов из 14×8
	assert.Equal(t, []byte{byte(OpMapSliceEast), 102, 0, 112, 0xFF}, frame)
}

func TestMapSlice_NorthRowSkipsLeadingTiles(t *testing.T) {
	center := vec.Location{X: 100, Y: 100, Z: 7}
	// последний тайл ряда на этаже наблюдателя
	m := newSliceMap(vec.Location{X: 109, Y: 94, Z: 7})

	frame := MapSlice(m, center, vec.North, nil, nil)
	assert.Equal(t, []byte{byte(OpMapSliceNorth), 16, 0xFF, 102, 0, 127, 0xFF}, frame)

	decoded, err := DecodeTileRun(frame[1:], 18*8, 2)
	assert.NoError(t, err)
	if assert.Len(t, decoded, 1) {
		assert.Equal(t, 17, decoded[0].Index)
	}
}

func TestMapSlice_DiagonalHasNoFrame(t *testing.T) {
	m := newSliceMap(vec.Location{X: 1, Y: 1, Z: 7})
	assert.Nil(t, MapSlice(m, vec.Location{X: 100, Y: 100, Z: 7}, vec.NorthEast, nil, nil))
}

func TestStripTiles_Shapes(t *testing.T) {
	center := vec.Location{X: 100, Y: 100, Z: 7}

	south := StripTiles(center, vec.South)
	assert.Len(t, south, 18*8)
	assert.Equal(t, vec.Location{X: 92, Y: 107, Z: 7}, south[0])
	assert.Equal(t, vec.Location{X: 93, Y: 107, Z: 7}, south[1], "Ряд идёт по x")

	west := StripTiles(center, vec.West)
	assert.Len(t, west, 14*8)
	assert.Equal(t, vec.Location{X: 92, Y: 94, Z: 7}, west[0])
	assert.Equal(t, vec.Location{X: 92, Y: 95, Z: 7}, west[1])
	assert.Equal(t, vec.Location{X: 93, Y: 95, Z: 6}, west[14], "Верхний этаж сдвинут на единицу")
}

func TestSliceSteps(t *testing.T) {
	from := vec.Location{X: 100, Y: 100, Z: 7}

	dirs, centers, ok := SliceSteps(from, vec.Location{X: 101, Y: 101, Z: 7})
	assert.True(t, ok)
	assert.Equal(t, []vec.Direction{vec.South, vec.East}, dirs)
	assert.Equal(t, []vec.Location{{X: 100, Y: 101, Z: 7}, {X: 101, Y: 101, Z: 7}}, centers)

	dirs, _, ok = SliceSteps(from, vec.Location{X: 99, Y: 100, Z: 7})
	assert.True(t, ok)
	assert.Equal(t, []vec.Direction{vec.West}, dirs)

	_, _, ok = SliceSteps(from, vec.Location{X: 105, Y: 100, Z: 7})
	assert.False(t, ok, "Телепорт описывается полным окном")
	_, _, ok = SliceSteps(from, vec.Location{X: 100, Y: 100, Z: 6})
	assert.False(t, ok)
	_, _, ok = SliceSteps(from, from)
	assert.False(t, ok)
}
