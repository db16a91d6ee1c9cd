package protocol

import (
	"github.com/annel0/worldsim/internal/creature"
	"github.com/annel0/worldsim/internal/items"
	"github.com/annel0/worldsim/internal/vec"
	"github.com/annel0/worldsim/internal/world"
)

// MaxThingsPerTile — сколько элементов тайла описывается клиенту
const MaxThingsPerTile = 10

// CreatureLookup возвращает существо по идентификатору
type CreatureLookup func(id creature.ID) (*creature.Creature, bool)

// AddItem описывает предмет: тип и, для стопок, количество
func AddItem(w *Writer, item *items.Item) {
	w.AddUint16(uint16(item.Type.ID))
	if item.Type.IsStackable() {
		w.AddSaturatedByte(item.Amount)
	}
}

// AddCreature описывает существо. Известному клиенту существу достаточно идентификатора,
// новое передаётся полностью вместе с вытесненным из кэша клиента.
func AddCreature(w *Writer, c *creature.Creature, known *creature.KnownCreatures) {
	wasKnown, evicted := true, creature.NoID
	if known != nil {
		wasKnown, evicted = known.Learn(c.ID())
	}

	if wasKnown && known != nil {
		w.AddUint16(KnownCreatureMarker)
		w.AddUint32(uint32(c.ID()))
	} else {
		w.AddUint16(UnknownCreatureMarker)
		w.AddUint32(uint32(evicted))
		w.AddUint32(uint32(c.ID()))
		w.AddString(c.Name())
	}

	health := 0
	if st := c.Stat(creature.StatHealth); st != nil {
		health = st.Percent()
	}
	w.AddPercent(health)
	w.AddByte(DirectionByte(c.Direction()))
	AddOutfit(w, c.Outfit())
	w.AddByte(0) // light level
	w.AddByte(0) // light color
	w.AddSaturatedUint16(c.Speed())
}

// AddOutfit описывает внешний вид
func AddOutfit(w *Writer, o creature.Outfit) {
	w.AddUint16(o.LookType)
	if o.LookType != 0 {
		w.AddByte(o.Head)
		w.AddByte(o.Body)
		w.AddByte(o.Legs)
		w.AddByte(o.Feet)
		return
	}
	w.AddUint16(o.LookItem)
}

// DescribeTile возвращает содержимое тайла для наблюдателя или nil для пустого тайла
func DescribeTile(tile *world.Tile, lookup CreatureLookup, known *creature.KnownCreatures) []byte {
	if tile == nil || tile.IsEmpty() {
		return nil
	}

	w := NewWriter()
	written := 0
	for _, th := range tile.Things() {
		if written == MaxThingsPerTile {
			break
		}
		if th.IsCreature() {
			c, ok := lookup(th.Creature)
			if !ok {
				continue
			}
			AddCreature(w, c, known)
		} else {
			AddItem(w, th.Item)
		}
		written++
	}
	if written == 0 {
		return nil
	}
	return w.Bytes()
}

// WindowTiles перечисляет тайлы окна описания карты в порядке клиента:
// этажи сверху вниз на поверхности (снизу вверх под землёй), x внешний цикл, y внутренний.
// Каждый этаж сдвинут на разницу этажей, как видит его наблюдатель.
func WindowTiles(center vec.Location, width, height int, fromZ, toZ int8) []vec.Location {
	return areaTiles(center, center.X-world.ViewLeft, center.Y-world.ViewTop, width, height, fromZ, toZ)
}

// areaTiles — прямоугольник width×height с углом (fromX, fromY) на этаже наблюдателя
func areaTiles(center vec.Location, fromX, fromY, width, height int, fromZ, toZ int8) []vec.Location {
	out := make([]vec.Location, 0, width*height*int(toZ-fromZ+1))
	step := int8(1)
	start, end := fromZ, toZ
	if center.Z <= vec.GroundFloor {
		step = -1
		start, end = toZ, fromZ
	}

	for z := start; ; z += step {
		offset := int(center.Z - z)
		for x := 0; x < width; x++ {
			for y := 0; y < height; y++ {
				out = append(out, vec.Location{X: fromX + offset + x, Y: fromY + offset + y, Z: z})
			}
		}
		if z == end {
			break
		}
	}
	return out
}

// StripTiles — ряд или столбец, который входит в окно наблюдателя в center
// после шага в направлении dir. Для диагоналей результат пуст.
func StripTiles(center vec.Location, dir vec.Direction) []vec.Location {
	fromZ, toZ := world.ViewFloors(center.Z)
	width := world.ViewLeft + world.ViewRight + 1
	height := world.ViewTop + world.ViewBottom + 1
	left, top := center.X-world.ViewLeft, center.Y-world.ViewTop

	switch dir {
	case vec.North:
		return areaTiles(center, left, top, width, 1, fromZ, toZ)
	case vec.South:
		return areaTiles(center, left, center.Y+world.ViewBottom, width, 1, fromZ, toZ)
	case vec.East:
		return areaTiles(center, center.X+world.ViewRight, top, 1, height, fromZ, toZ)
	case vec.West:
		return areaTiles(center, left, top, 1, height, fromZ, toZ)
	}
	return nil
}

// writeTiles кодирует тайлы locs одной серией с пропусками
func writeTiles(w *Writer, m *world.Map, locs []vec.Location, lookup CreatureLookup, known *creature.KnownCreatures) {
	WriteTileRun(w, len(locs), func(i int) []byte {
		loc := locs[i]
		if !loc.IsWireSafe() {
			return nil
		}
		tile, ok := m.GetTile(loc)
		if !ok {
			return nil
		}
		return DescribeTile(tile, lookup, known)
	})
}

// WriteMapDescription пишет описание окна вокруг center в w
func WriteMapDescription(w *Writer, m *world.Map, center vec.Location, lookup CreatureLookup, known *creature.KnownCreatures) {
	fromZ, toZ := world.ViewFloors(center.Z)
	locs := WindowTiles(center, world.ViewLeft+world.ViewRight+1, world.ViewTop+world.ViewBottom+1, fromZ, toZ)
	writeTiles(w, m, locs, lookup, known)
}
