package vec

// Direction — направление движения/взгляда существа
type Direction uint8

const (
	North Direction = iota
	East
	South
	West
	NorthEast
	SouthEast
	SouthWest
	NorthWest
)

// Offset возвращает смещение по X и Y для направления
func (d Direction) Offset() (int, int) {
	switch d {
	case North:
		return 0, -1
	case East:
		return 1, 0
	case South:
		return 0, 1
	case West:
		return -1, 0
	case NorthEast:
		return 1, -1
	case SouthEast:
		return 1, 1
	case SouthWest:
		return -1, 1
	case NorthWest:
		return -1, -1
	default:
		return 0, 0
	}
}

// IsDiagonal — true для диагональных направлений
func (d Direction) IsDiagonal() bool {
	return d >= NorthEast && d <= NorthWest
}

// Facing возвращает направление, которое клиент умеет отображать (диагонали сводятся к E/W)
func (d Direction) Facing() Direction {
	switch d {
	case NorthEast, SouthEast:
		return East
	case SouthWest, NorthWest:
		return West
	default:
		return d
	}
}

// String возвращает имя направления
func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	case NorthEast:
		return "northeast"
	case SouthEast:
		return "southeast"
	case SouthWest:
		return "southwest"
	case NorthWest:
		return "northwest"
	default:
		return "unknown"
	}
}
