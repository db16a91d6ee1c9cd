package world

import (
	"slices"

	"github.com/annel0/worldsim/internal/creature"
	"github.com/annel0/worldsim/internal/items"
	"github.com/annel0/worldsim/internal/vec"
)

// Thing — содержимое тайла: либо предмет, либо существо
type Thing struct {
	Item     *items.Item
	Creature creature.ID
}

// IsCreature сообщает, что элемент — существо
func (t Thing) IsCreature() bool { return t.Item == nil && t.Creature != creature.NoID }

// Tile — клетка карты с семью слоями. Порядок перечисления фиксирован:
// земля, бордюры, лужа, верхние, нижние, существа, обычные предметы.
// Внутри многоэлементных слоёв последний добавленный идёт первым.
type Tile struct {
	location  vec.Location
	ground    *items.Item
	borders   []*items.Item
	pool      *items.Item
	top       []*items.Item
	bottom    []*items.Item
	creatures []creature.ID
	items     []*items.Item
}

// NewTile создаёт пустой тайл
func NewTile(loc vec.Location) *Tile {
	return &Tile{location: loc}
}

func (t *Tile) Location() vec.Location  { return t.location }
func (t *Tile) Ground() *items.Item     { return t.ground }
func (t *Tile) LiquidPool() *items.Item { return t.pool }

// GroundSpeed — скорость земли или 0, если земли нет
func (t *Tile) GroundSpeed() int {
	if t.ground == nil {
		return 0
	}
	return int(t.ground.Type.Speed)
}

// AddItem кладёт предмет в слой по его типу. Земля и лужа заменяют прежние,
// стопкуемые обычные предметы сливаются с верхним, остаток ложится сверху.
func (t *Tile) AddItem(item *items.Item) bool {
	if item == nil || item.Type == nil {
		return false
	}

	it := item.Type
	switch {
	case it.IsGround():
		t.ground = item
	case it.IsGroundBorder():
		t.borders = append(t.borders, item)
	case it.IsLiquidPool():
		t.pool = item
	case it.StaysOnTop():
		t.top = append(t.top, item)
	case it.StaysOnBottom():
		t.bottom = append(t.bottom, item)
	default:
		if n := len(t.items); n > 0 && t.items[n-1].CanMergeWith(item) {
			t.items[n-1].Merge(item)
			if item.Amount == 0 {
				return true
			}
		}
		t.items = append(t.items, item)
	}
	return true
}

// RemoveItem убирает предмет из его слоя, сохраняя порядок остальных
func (t *Tile) RemoveItem(item *items.Item) bool {
	if item == nil {
		return false
	}
	switch {
	case t.ground == item:
		t.ground = nil
		return true
	case t.pool == item:
		t.pool = nil
		return true
	}
	for _, layer := range []*[]*items.Item{&t.borders, &t.top, &t.bottom, &t.items} {
		if i := slices.Index(*layer, item); i >= 0 {
			*layer = slices.Delete(*layer, i, i+1)
			return true
		}
	}
	return false
}

// AddCreature добавляет существо на тайл
func (t *Tile) AddCreature(id creature.ID) bool {
	if id == creature.NoID || slices.Contains(t.creatures, id) {
		return false
	}
	t.creatures = append(t.creatures, id)
	return true
}

// RemoveCreature убирает существо с тайла
func (t *Tile) RemoveCreature(id creature.ID) bool {
	i := slices.Index(t.creatures, id)
	if i < 0 {
		return false
	}
	t.creatures = slices.Delete(t.creatures, i, i+1)
	return true
}

// HasCreature проверяет, стоит ли существо на тайле
func (t *Tile) HasCreature(id creature.ID) bool {
	return slices.Contains(t.creatures, id)
}

// Creatures возвращает существ в порядке перечисления (последний пришедший первым)
func (t *Tile) Creatures() []creature.ID {
	out := slices.Clone(t.creatures)
	slices.Reverse(out)
	return out
}

// TopItem возвращает верхний обычный предмет
func (t *Tile) TopItem() *items.Item {
	if len(t.items) == 0 {
		return nil
	}
	return t.items[len(t.items)-1]
}

// Things перечисляет содержимое в порядке адресации протокола
func (t *Tile) Things() []Thing {
	out := make([]Thing, 0, t.Count())
	if t.ground != nil {
		out = append(out, Thing{Item: t.ground})
	}
	out = appendLIFO(out, t.borders)
	if t.pool != nil {
		out = append(out, Thing{Item: t.pool})
	}
	out = appendLIFO(out, t.top)
	out = appendLIFO(out, t.bottom)
	for i := len(t.creatures) - 1; i >= 0; i-- {
		out = append(out, Thing{Creature: t.creatures[i]})
	}
	return appendLIFO(out, t.items)
}

func appendLIFO(out []Thing, layer []*items.Item) []Thing {
	for i := len(layer) - 1; i >= 0; i-- {
		out = append(out, Thing{Item: layer[i]})
	}
	return out
}

// Count — общее число элементов на тайле
func (t *Tile) Count() int {
	n := len(t.borders) + len(t.top) + len(t.bottom) + len(t.creatures) + len(t.items)
	if t.ground != nil {
		n++
	}
	if t.pool != nil {
		n++
	}
	return n
}

// GetIndexOfItem возвращает позицию предмета в порядке Things или -1
func (t *Tile) GetIndexOfItem(item *items.Item) int {
	if item == nil {
		return -1
	}
	for i, th := range t.Things() {
		if th.Item == item {
			return i
		}
	}
	return -1
}

// GetIndexOfCreature возвращает позицию существа в порядке Things или -1
func (t *Tile) GetIndexOfCreature(id creature.ID) int {
	for i, th := range t.Things() {
		if th.IsCreature() && th.Creature == id {
			return i
		}
	}
	return -1
}

// ThingAt возвращает элемент по позиции протокола
func (t *Tile) ThingAt(index int) (Thing, bool) {
	things := t.Things()
	if index < 0 || index >= len(things) {
		return Thing{}, false
	}
	return things[index], true
}

// IsEmpty — на тайле ничего нет
func (t *Tile) IsEmpty() bool { return t.Count() == 0 }

// BlocksWalk — хоть один предмет запрещает проход
func (t *Tile) BlocksWalk() bool { return t.anyItem((*items.Item).BlocksWalk) }

// BlocksSight — хоть один предмет перекрывает обзор
func (t *Tile) BlocksSight() bool { return t.anyItem((*items.Item).BlocksSight) }

// BlocksPathfinding — поиск пути обходит тайл
func (t *Tile) BlocksPathfinding() bool { return t.anyItem((*items.Item).BlocksPath) }

// IsWalkable — есть земля, ничто не блокирует, никто не стоит
func (t *Tile) IsWalkable() bool {
	return t.ground != nil && !t.BlocksWalk() && len(t.creatures) == 0
}

func (t *Tile) anyItem(pred func(*items.Item) bool) bool {
	if t.ground != nil && pred(t.ground) {
		return true
	}
	if t.pool != nil && pred(t.pool) {
		return true
	}
	for _, layer := range [][]*items.Item{t.borders, t.top, t.bottom, t.items} {
		if slices.ContainsFunc(layer, pred) {
			return true
		}
	}
	return false
}
