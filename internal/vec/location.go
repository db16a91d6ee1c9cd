package vec

import "fmt"

// Location — координаты тайла в мире: X/Y в диапазоне uint16, Z — этаж (0..15, 7 — уровень земли)
type Location struct {
	X int
	Y int
	Z int8
}

const (
	// GroundFloor — этаж поверхности
	GroundFloor int8 = 7
	// MaxFloor — самый нижний этаж
	MaxFloor int8 = 15
)

// String возвращает строковое представление локации
func (l Location) String() string {
	return fmt.Sprintf("[%d, %d, %d]", l.X, l.Y, l.Z)
}

// Translate возвращает соседнюю локацию в указанном направлении
func (l Location) Translate(dir Direction) Location {
	dx, dy := dir.Offset()
	return Location{X: l.X + dx, Y: l.Y + dy, Z: l.Z}
}

// Offset сдвигает локацию на dx, dy, dz
func (l Location) Offset(dx, dy int, dz int8) Location {
	return Location{X: l.X + dx, Y: l.Y + dy, Z: l.Z + dz}
}

// Delta возвращает разницу координат other - l
func (l Location) Delta(other Location) (dx, dy int, dz int8) {
	return other.X - l.X, other.Y - l.Y, other.Z - l.Z
}

// DistanceTo возвращает расстояние Чебышёва на одном этаже.
// Для разных этажей расстояние считается бесконечным (-1).
func (l Location) DistanceTo(other Location) int {
	if l.Z != other.Z {
		return -1
	}
	return max(abs(other.X-l.X), abs(other.Y-l.Y))
}

// IsWithinRange проверяет, что other находится не дальше r тайлов на том же этаже
func (l Location) IsWithinRange(other Location, r int) bool {
	d := l.DistanceTo(other)
	return d >= 0 && d <= r
}

// IsAdjacent проверяет соседство (включая диагонали и совпадение)
func (l Location) IsAdjacent(other Location) bool {
	return l.IsWithinRange(other, 1)
}

// DirectionTo возвращает направление взгляда от l к other
func (l Location) DirectionTo(other Location) Direction {
	dx, dy, _ := l.Delta(other)
	switch {
	case dx > 0 && dy < 0:
		return NorthEast
	case dx > 0 && dy > 0:
		return SouthEast
	case dx < 0 && dy > 0:
		return SouthWest
	case dx < 0 && dy < 0:
		return NorthWest
	case dx > 0:
		return East
	case dx < 0:
		return West
	case dy > 0:
		return South
	default:
		return North
	}
}

// IsWireSafe проверяет, что координаты помещаются в 5-байтовое представление протокола
func (l Location) IsWireSafe() bool {
	return l.X >= 0 && l.X <= 0xFFFF && l.Y >= 0 && l.Y <= 0xFFFF && l.Z >= 0 && l.Z <= MaxFloor
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
