package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/worldsim/internal/creature"
	"github.com/annel0/worldsim/internal/items"
	"github.com/annel0/worldsim/internal/vec"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	grass, ok := c.ItemType(102)
	require.True(t, ok)
	assert.True(t, grass.IsGround())
	assert.Equal(t, uint16(150), grass.Speed)

	wall, ok := c.ItemType(1025)
	require.True(t, ok)
	assert.True(t, wall.StaysOnTop())
	assert.True(t, wall.Has(items.FlagBlocksSight))

	rat, ok := c.MonsterType(21)
	require.True(t, ok)
	assert.Equal(t, "rat", rat.Name)
	assert.Equal(t, creature.BloodRed, rat.Blood)
	assert.Equal(t, 12, rat.Skills[creature.SkillFist])
	assert.Equal(t, 1, rat.AttackRange, "Дальность по умолчанию — ближний бой")

	ground, ok := c.FirstWithFlag(items.FlagGround)
	require.True(t, ok)
	assert.Equal(t, items.TypeID(102), ground.ID)
}

func TestParse_RejectsUnknownFlag(t *testing.T) {
	_, err := Parse([]byte(`items: [{id: 1, name: x, flags: [levitating]}]`))
	assert.Error(t, err)
}

func TestParse_RejectsDuplicates(t *testing.T) {
	_, err := Parse([]byte(`items: [{id: 1, name: a}, {id: 1, name: b}]`))
	assert.Error(t, err)
}

func TestParse_RejectsSpawnOfUnknownRace(t *testing.T) {
	_, err := Parse([]byte(`spawns: [{x: 1, y: 1, z: 7, race: 99, count: 1}]`))
	assert.Error(t, err)
}

func TestParse_RejectsInvalidMonster(t *testing.T) {
	_, err := Parse([]byte(`monsters: [{race: 3, name: ghost, health: 0, speed: 100}]`))
	assert.ErrorIs(t, err, creature.ErrInvalidDefinition)
}

func TestSpawnsWithin(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	window := vec.BoundsAround(vec.Location{X: 1000, Y: 1000, Z: 7}, 15, 15, 7, 7)
	spawns := c.SpawnsWithin(window)
	assert.Len(t, spawns, 2)
	assert.Len(t, c.Spawns(), 3)
}
