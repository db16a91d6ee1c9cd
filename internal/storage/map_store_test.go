package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/worldsim/internal/catalog"
	"github.com/annel0/worldsim/internal/items"
	"github.com/annel0/worldsim/internal/vec"
	"github.com/annel0/worldsim/internal/world"
)

// countingLoader строит один тайл с травой, деревом и монетами
type countingLoader struct {
	types items.TypeReader
	calls int
}

func (l *countingLoader) LoadWindow(requested vec.Bounds) (world.LoadResult, error) {
	l.calls++
	t := world.NewTile(vec.Location{X: requested.FromX, Y: requested.FromY, Z: requested.FromZ})
	for _, id := range []items.TypeID{102, 2700} {
		it, _ := l.types.ItemType(id)
		item, err := items.New(it, 1)
		if err != nil {
			return world.LoadResult{}, err
		}
		t.AddItem(item)
	}
	coins, _ := l.types.ItemType(2148)
	item, err := items.New(coins, 37)
	if err != nil {
		return world.LoadResult{}, err
	}
	t.AddItem(item)
	return world.LoadResult{Loaded: requested, Tiles: []*world.Tile{t}}, nil
}

func typeIDs(t *world.Tile) []items.TypeID {
	var ids []items.TypeID
	for _, th := range t.Things() {
		if th.Item != nil {
			ids = append(ids, th.Item.Type.ID)
		}
	}
	return ids
}

func TestMapStore_PersistsGeneratedWindow(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	fallback := &countingLoader{types: cat}

	store, err := NewMapStore("", cat, fallback)
	require.NoError(t, err)
	defer store.Close()

	window := vec.Bounds{FromX: 0, ToX: 31, FromY: 0, ToY: 31, FromZ: 7, ToZ: 7}

	first, err := store.LoadWindow(window)
	require.NoError(t, err)
	require.Len(t, first.Tiles, 1)

	second, err := store.LoadWindow(window)
	require.NoError(t, err)
	require.Len(t, second.Tiles, 1)

	assert.Equal(t, 1, fallback.calls, "Второй раз окно читается с диска")
	assert.Equal(t, window, second.Loaded)
	assert.Equal(t, first.Tiles[0].Location(), second.Tiles[0].Location())
	assert.Equal(t, typeIDs(first.Tiles[0]), typeIDs(second.Tiles[0]), "Порядок предметов сохраняется")

	top := second.Tiles[0].TopItem()
	require.NotNil(t, top)
	assert.Equal(t, 37, top.Amount)
}

func TestMapStore_ClosedStoreFails(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)

	store, err := NewMapStore("", cat, nil)
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close(), "Повторное закрытие безопасно")

	_, err = store.LoadWindow(vec.Bounds{FromZ: 7, ToZ: 7})
	assert.ErrorIs(t, err, ErrStoreClosed)
}

func TestMapStore_WithoutFallbackReturnsEmptyWindow(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)

	store, err := NewMapStore(t.TempDir(), cat, nil)
	require.NoError(t, err)
	defer store.Close()

	res, err := store.LoadWindow(vec.Bounds{FromX: 32, ToX: 63, FromY: 0, ToY: 31, FromZ: 7, ToZ: 7})
	require.NoError(t, err)
	assert.Empty(t, res.Tiles)
}
