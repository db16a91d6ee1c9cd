package vec

// Bounds — прямоугольное окно карты, границы включительно
type Bounds struct {
	FromX, ToX int
	FromY, ToY int
	FromZ, ToZ int8
}

// BoundsAround строит окно вокруг центра с заданными радиусами по X и Y на этажах fromZ..toZ
func BoundsAround(center Location, rx, ry int, fromZ, toZ int8) Bounds {
	return Bounds{
		FromX: center.X - rx, ToX: center.X + rx,
		FromY: center.Y - ry, ToY: center.Y + ry,
		FromZ: fromZ, ToZ: toZ,
	}
}

// Contains проверяет попадание локации в окно
func (b Bounds) Contains(l Location) bool {
	return l.X >= b.FromX && l.X <= b.ToX &&
		l.Y >= b.FromY && l.Y <= b.ToY &&
		l.Z >= b.FromZ && l.Z <= b.ToZ
}

// ContainsBounds проверяет, что окно other целиком внутри b
func (b Bounds) ContainsBounds(other Bounds) bool {
	return other.FromX >= b.FromX && other.ToX <= b.ToX &&
		other.FromY >= b.FromY && other.ToY <= b.ToY &&
		other.FromZ >= b.FromZ && other.ToZ <= b.ToZ
}

// Union возвращает минимальное окно, покрывающее оба
func (b Bounds) Union(other Bounds) Bounds {
	return Bounds{
		FromX: min(b.FromX, other.FromX), ToX: max(b.ToX, other.ToX),
		FromY: min(b.FromY, other.FromY), ToY: max(b.ToY, other.ToY),
		FromZ: min(b.FromZ, other.FromZ), ToZ: max(b.ToZ, other.ToZ),
	}
}

// Width возвращает ширину окна в тайлах
func (b Bounds) Width() int { return b.ToX - b.FromX + 1 }

// Height возвращает высоту окна в тайлах
func (b Bounds) Height() int { return b.ToY - b.FromY + 1 }

// Floors возвращает количество этажей
func (b Bounds) Floors() int { return int(b.ToZ-b.FromZ) + 1 }

// Size возвращает количество тайлов в окне
func (b Bounds) Size() int { return b.Width() * b.Height() * b.Floors() }
