package world

import "github.com/annel0/worldsim/internal/vec"

// Размеры видимой области клиента относительно наблюдателя
const (
	ViewLeft   = 8
	ViewRight  = 9
	ViewTop    = 6
	ViewBottom = 7
	// UndergroundViewDepth — сколько этажей видно под землёй вверх и вниз
	UndergroundViewDepth = 2
)

// IsWithinView сообщает, попадает ли target в окно клиента наблюдателя.
// Этажи выше наблюдателя сдвигают окно по диагонали, как в клиенте.
func IsWithinView(observer, target vec.Location) bool {
	if observer.Z <= vec.GroundFloor {
		if target.Z > vec.GroundFloor {
			return false
		}
	} else if abs8(observer.Z-target.Z) > UndergroundViewDepth {
		return false
	}

	offset := int(observer.Z - target.Z)
	return target.X >= observer.X-ViewLeft+offset && target.X <= observer.X+ViewRight+offset &&
		target.Y >= observer.Y-ViewTop+offset && target.Y <= observer.Y+ViewBottom+offset
}

// ViewBounds — окно тайлов, которое описывается клиенту при входе и перемещении
func ViewBounds(observer vec.Location) vec.Bounds {
	fromZ, toZ := ViewFloors(observer.Z)
	return vec.Bounds{
		FromX: observer.X - ViewLeft, ToX: observer.X + ViewRight,
		FromY: observer.Y - ViewTop, ToY: observer.Y + ViewBottom,
		FromZ: fromZ, ToZ: toZ,
	}
}

// ViewFloors — диапазон видимых этажей
func ViewFloors(z int8) (from, to int8) {
	if z <= vec.GroundFloor {
		return 0, vec.GroundFloor
	}
	return z - UndergroundViewDepth, min(z+UndergroundViewDepth, vec.MaxFloor)
}

// CanSee проверяет прямую видимость между точками одного этажа.
// Промежуточные тайлы по Брезенхэму не должны перекрывать обзор.
func (m *Map) CanSee(from, to vec.Location) bool {
	if from.Z != to.Z {
		return false
	}
	if from == to {
		return true
	}

	x0, y0 := from.X, from.Y
	x1, y1 := to.X, to.Y
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := sign(x1-x0), sign(y1-y0)
	err := dx + dy

	for {
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
		if x0 == x1 && y0 == y1 {
			return true
		}
		if t, ok := m.GetTile(vec.Location{X: x0, Y: y0, Z: from.Z}); ok && t.BlocksSight() {
			return false
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func abs8(v int8) int8 {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
