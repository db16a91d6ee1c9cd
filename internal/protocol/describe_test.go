package protocol

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/worldsim/internal/creature"
	"github.com/annel0/worldsim/internal/items"
	"github.com/annel0/worldsim/internal/vec"
	"github.com/annel0/worldsim/internal/world"
)

func TestDescribeTile_KnownCreatureCache(t *testing.T) {
	grass := &items.ItemType{ID: 102, Name: "grass", Flags: items.FlagGround}
	coins := &items.ItemType{ID: 2148, Name: "coin", Flags: items.FlagStackable}

	rat, err := creature.NewFactory(nil, rand.New(rand.NewSource(1))).NewMonster(&creature.MonsterType{
		Race: 21, Name: "rat", MaxHealth: 20, BaseSpeed: 134, Outfit: creature.Outfit{LookType: 21},
	})
	require.NoError(t, err)

	tile := world.NewTile(vec.Location{X: 5, Y: 5, Z: 7})
	g, _ := items.New(grass, 1)
	c, _ := items.New(coins, 42)
	tile.AddItem(g)
	tile.AddItem(c)
	tile.AddCreature(rat.ID())

	lookup := func(id creature.ID) (*creature.Creature, bool) {
		if id == rat.ID() {
			return rat.Creature, true
		}
		return nil, false
	}
	known := creature.NewKnownCreatures(10)

	first := DescribeTile(tile, lookup, known)
	r := NewReader(first)
	ground, _ := r.GetUint16()
	assert.Equal(t, uint16(102), ground)
	marker, _ := r.GetUint16()
	assert.Equal(t, UnknownCreatureMarker, marker, "Первое описание — полное")
	evicted, _ := r.GetUint32()
	assert.Equal(t, uint32(0), evicted)
	id, _ := r.GetUint32()
	assert.Equal(t, uint32(rat.ID()), id)
	name, err := r.GetString()
	require.NoError(t, err)
	assert.Equal(t, "rat", name)

	second := DescribeTile(tile, lookup, known)
	assert.Less(t, len(second), len(first), "Известное существо описывается коротко")
	r = NewReader(second)
	r.GetUint16()
	marker, _ = r.GetUint16()
	assert.Equal(t, KnownCreatureMarker, marker)

	// стопка монет в конце: тип + количество
	assert.Equal(t, []byte{0x64, 0x08, 42}, second[len(second)-3:])
}

func TestDescribeTile_EmptyTile(t *testing.T) {
	assert.Nil(t, DescribeTile(world.NewTile(vec.Location{}), nil, nil))
}

func TestWindowTiles_SurfaceOrder(t *testing.T) {
	center := vec.Location{X: 100, Y: 100, Z: 7}
	locs := WindowTiles(center, 18, 14, 0, 7)

	require.Len(t, locs, 18*14*8)
	assert.Equal(t, vec.Location{X: 92, Y: 94, Z: 7}, locs[0])
	assert.Equal(t, vec.Location{X: 92, Y: 95, Z: 7}, locs[1], "y — внутренний цикл")
	assert.Equal(t, vec.Location{X: 93, Y: 95, Z: 6}, locs[18*14], "Верхний этаж сдвинут на единицу")
}
