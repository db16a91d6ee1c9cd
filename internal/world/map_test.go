package world

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/worldsim/internal/creature"
	"github.com/annel0/worldsim/internal/items"
	"github.com/annel0/worldsim/internal/logging"
	"github.com/annel0/worldsim/internal/vec"
)

// flatLoader кладёт траву на каждый тайл запрошенного окна и считает вызовы
type flatLoader struct {
	calls  int
	expand int
	fail   bool
}

func (l *flatLoader) LoadWindow(requested vec.Bounds) (LoadResult, error) {
	l.calls++
	if l.fail {
		return LoadResult{}, errors.New("диск недоступен")
	}
	loaded := requested
	loaded.ToX += l.expand
	res := LoadResult{Loaded: loaded}
	for y := loaded.FromY; y <= loaded.ToY; y++ {
		for x := loaded.FromX; x <= loaded.ToX; x++ {
			tile := NewTile(vec.Location{X: x, Y: y, Z: requested.FromZ})
			g, _ := items.New(groundType, 1)
			tile.AddItem(g)
			res.Tiles = append(res.Tiles, tile)
		}
	}
	return res, nil
}

func newTestMap(loader Loader) *Map {
	return NewMap(loader, WithWindowSize(8), WithMapLogger(logging.NewDiscardLogger()))
}

func TestMap_LazyWindowLoadOnce(t *testing.T) {
	loader := &flatLoader{expand: 4}
	m := newTestMap(loader)

	var events []WindowLoadedEvent
	m.OnWindowLoaded(func(ev WindowLoadedEvent) { events = append(events, ev) })

	tile, ok := m.GetTile(vec.Location{X: 3, Y: 3, Z: 7})
	require.True(t, ok)
	assert.NotNil(t, tile.Ground())

	m.GetTile(vec.Location{X: 5, Y: 6, Z: 7})
	m.GetTile(vec.Location{X: 0, Y: 0, Z: 7})

	assert.Equal(t, 1, loader.calls, "Одно окно грузится один раз")
	require.Len(t, events, 1)
	assert.Equal(t, vec.Bounds{FromX: 0, ToX: 7, FromY: 0, ToY: 7, FromZ: 7, ToZ: 7}, events[0].Requested)
	assert.Equal(t, 11, events[0].Loaded.ToX, "Событие сообщает фактически загруженную область")
	assert.Equal(t, WindowHash(events[0].Requested), events[0].Hash)

	// тайл из расширенной области уже в памяти
	_, ok = m.PeekTile(vec.Location{X: 10, Y: 0, Z: 7})
	assert.True(t, ok)
}

func TestMap_NegativeCoordinatesAndFailures(t *testing.T) {
	loader := &flatLoader{fail: true}
	m := newTestMap(loader)

	_, ok := m.GetTile(vec.Location{X: -1, Y: 0, Z: 7})
	assert.False(t, ok, "Координаты вне провода не загружаются")
	assert.Equal(t, 0, loader.calls)

	_, ok = m.GetTile(vec.Location{X: 1, Y: 1, Z: 7})
	assert.False(t, ok)
	_, ok = m.GetTile(vec.Location{X: 1, Y: 1, Z: 7})
	assert.False(t, ok)
	assert.Equal(t, 2, loader.calls, "Неудачная загрузка повторяется при следующем обращении")
	assert.Equal(t, 0, m.LoadedWindows())
}

func TestMap_CreatureIndex(t *testing.T) {
	m := newTestMap(&flatLoader{})
	a := vec.Location{X: 2, Y: 2, Z: 7}
	b := vec.Location{X: 3, Y: 2, Z: 7}

	require.NoError(t, m.AddCreature(5, a))
	assert.Error(t, m.AddCreature(5, b), "Существо нельзя поставить дважды")

	loc, ok := m.LocationOf(5)
	require.True(t, ok)
	assert.Equal(t, a, loc)

	from, err := m.MoveCreature(5, b)
	require.NoError(t, err)
	assert.Equal(t, a, from)

	tileA, _ := m.GetTile(a)
	tileB, _ := m.GetTile(b)
	assert.False(t, tileA.HasCreature(5))
	assert.True(t, tileB.HasCreature(5))

	assert.Equal(t, []creature.ID{5}, m.CreaturesWithin(vec.BoundsAround(b, 1, 1, 7, 7)))

	last, ok := m.RemoveCreature(5)
	require.True(t, ok)
	assert.Equal(t, b, last)
	_, ok = m.LocationOf(5)
	assert.False(t, ok)
	assert.False(t, tileB.HasCreature(5))

	_, ok = m.RemoveCreature(5)
	assert.False(t, ok)
}

func TestMap_AddCreatureWithoutTile(t *testing.T) {
	m := newTestMap(nil)
	err := m.AddCreature(1, vec.Location{X: 1, Y: 1, Z: 7})
	assert.ErrorIs(t, err, ErrTileNotLoaded)
}

func TestMap_CanSee(t *testing.T) {
	m := newTestMap(&flatLoader{})
	from := vec.Location{X: 1, Y: 4, Z: 7}
	to := vec.Location{X: 6, Y: 4, Z: 7}
	assert.True(t, m.CanSee(from, to))

	wallTile, _ := m.GetTile(vec.Location{X: 3, Y: 4, Z: 7})
	wallTile.AddItem(mustItem(t, wallType, 1))
	assert.False(t, m.CanSee(from, to))
	assert.False(t, m.CanSee(to, from))

	assert.True(t, m.CanSee(from, vec.Location{X: 1, Y: 6, Z: 7}), "Стена в стороне не мешает")
	assert.False(t, m.CanSee(from, vec.Location{X: 1, Y: 4, Z: 6}), "Разные этажи не видны напрямую")
}

func TestIsWithinView(t *testing.T) {
	obs := vec.Location{X: 100, Y: 100, Z: 7}

	assert.True(t, IsWithinView(obs, vec.Location{X: 92, Y: 94, Z: 7}))
	assert.True(t, IsWithinView(obs, vec.Location{X: 109, Y: 107, Z: 7}))
	assert.False(t, IsWithinView(obs, vec.Location{X: 110, Y: 100, Z: 7}))
	assert.False(t, IsWithinView(obs, vec.Location{X: 100, Y: 100, Z: 8}), "С поверхности подземелье не видно")

	under := vec.Location{X: 100, Y: 100, Z: 10}
	assert.True(t, IsWithinView(under, vec.Location{X: 100, Y: 100, Z: 12}))
	assert.False(t, IsWithinView(under, vec.Location{X: 100, Y: 100, Z: 13}))

	b := ViewBounds(obs)
	assert.Equal(t, 18, b.Width())
	assert.Equal(t, 14, b.Height())
	assert.Equal(t, 8, b.Floors())
}
