package pathfinding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/worldsim/internal/vec"
)

// openField — всё проходимо, кроме стен
func openField(walls ...vec.Location) Grid {
	set := make(map[vec.Location]bool, len(walls))
	for _, w := range walls {
		set[w] = true
	}
	return GridFunc(func(loc vec.Location) bool {
		return loc.X >= 0 && loc.Y >= 0 && loc.X < 20 && loc.Y < 20 && !set[loc]
	})
}

func walk(from vec.Location, dirs []vec.Direction) vec.Location {
	for _, d := range dirs {
		from = from.Translate(d)
	}
	return from
}

func TestFindPath_Straight(t *testing.T) {
	from := vec.Location{X: 1, Y: 1, Z: 7}
	to := vec.Location{X: 5, Y: 1, Z: 7}

	res := NewFinder().FindPath(openField(), from, to, 0, nil)
	require.True(t, res.Found)
	assert.Equal(t, to, res.End)
	assert.Len(t, res.Directions, 4)
	assert.Equal(t, to, walk(from, res.Directions))
}

func TestFindPath_TargetDistance(t *testing.T) {
	from := vec.Location{X: 1, Y: 1, Z: 7}
	to := vec.Location{X: 6, Y: 1, Z: 7}

	res := NewFinder().FindPath(openField(to), from, to, 1, nil)
	require.True(t, res.Found, "Занятую цель можно окружить на дистанции")
	assert.Equal(t, 1, res.End.DistanceTo(to))
	assert.Equal(t, res.End, walk(from, res.Directions))
}

func TestFindPath_AroundWall(t *testing.T) {
	var walls []vec.Location
	for y := 0; y < 19; y++ {
		walls = append(walls, vec.Location{X: 5, Y: y, Z: 7})
	}
	from := vec.Location{X: 1, Y: 1, Z: 7}
	to := vec.Location{X: 9, Y: 1, Z: 7}

	res := NewFinder().FindPath(openField(walls...), from, to, 0, nil)
	require.True(t, res.Found)
	assert.Equal(t, to, walk(from, res.Directions))

	pos := from
	for _, d := range res.Directions {
		pos = pos.Translate(d)
		if pos.Y < 19 {
			assert.NotEqual(t, 5, pos.X, "Путь не проходит сквозь стену")
		}
	}
}

func TestFindPath_ExcludeAndUnreachable(t *testing.T) {
	from := vec.Location{X: 0, Y: 0, Z: 7}
	to := vec.Location{X: 2, Y: 0, Z: 7}

	exclude := []vec.Location{{X: 1, Y: 0, Z: 7}, {X: 1, Y: 1, Z: 7}, {X: 0, Y: 1, Z: 7}}
	res := NewFinder().FindPath(openField(), from, to, 0, exclude)
	assert.False(t, res.Found)

	res = NewFinder().FindPath(openField(), from, vec.Location{X: 2, Y: 0, Z: 6}, 0, nil)
	assert.False(t, res.Found, "Поиск между этажами не выполняется")
}

func TestFindPath_AlreadyThere(t *testing.T) {
	from := vec.Location{X: 3, Y: 3, Z: 7}
	res := NewFinder().FindPath(openField(), from, vec.Location{X: 4, Y: 4, Z: 7}, 1, nil)
	assert.True(t, res.Found)
	assert.Empty(t, res.Directions)
	assert.Equal(t, from, res.End)
}
