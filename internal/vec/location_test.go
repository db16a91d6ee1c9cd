package vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocation_DistanceAndRange(t *testing.T) {
	a := Location{X: 100, Y: 100, Z: 7}
	b := Location{X: 103, Y: 98, Z: 7}

	assert.Equal(t, 3, a.DistanceTo(b))
	assert.True(t, a.IsWithinRange(b, 3))
	assert.False(t, a.IsWithinRange(b, 2))
	assert.Equal(t, -1, a.DistanceTo(Location{X: 100, Y: 100, Z: 6}), "Разные этажи не сравниваются")
	assert.False(t, a.IsAdjacent(Location{X: 100, Y: 100, Z: 6}))
}

func TestLocation_TranslateAndDirection(t *testing.T) {
	origin := Location{X: 50, Y: 50, Z: 7}
	for d := North; d <= NorthWest; d++ {
		next := origin.Translate(d)
		assert.True(t, origin.IsAdjacent(next), "direction %s", d)
		assert.Equal(t, d, origin.DirectionTo(next), "direction %s", d)
	}
	assert.Equal(t, East, NorthEast.Facing())
	assert.Equal(t, West, SouthWest.Facing())
	assert.True(t, SouthEast.IsDiagonal())
	assert.False(t, South.IsDiagonal())
}

func TestBounds(t *testing.T) {
	b := BoundsAround(Location{X: 10, Y: 10, Z: 7}, 8, 6, 0, 7)
	assert.Equal(t, 17, b.Width())
	assert.Equal(t, 13, b.Height())
	assert.Equal(t, 8, b.Floors())
	assert.True(t, b.Contains(Location{X: 18, Y: 16, Z: 0}))
	assert.False(t, b.Contains(Location{X: 19, Y: 16, Z: 0}))

	u := b.Union(Bounds{FromX: 0, ToX: 1, FromY: 0, ToY: 1, FromZ: 9, ToZ: 9})
	assert.True(t, u.ContainsBounds(b))
	assert.Equal(t, int8(9), u.ToZ)
}
