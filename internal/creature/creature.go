package creature

import (
	"fmt"
	"time"

	"github.com/annel0/worldsim/internal/vec"
)

// Kind — разновидность существа
type Kind uint8

const (
	KindPlayer Kind = iota
	KindMonster
	KindNPC
)

// String возвращает имя разновидности
func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindMonster:
		return "monster"
	case KindNPC:
		return "npc"
	default:
		return "unknown"
	}
}

// Outfit — внешний вид существа
type Outfit struct {
	LookType uint16
	Head     uint8
	Body     uint8
	Legs     uint8
	Feet     uint8
	LookItem uint16
}

// Границы скорости и скорость земли по умолчанию
const (
	MinSpeed           = 10
	MaxSpeed           = 1500
	DefaultGroundSpeed = 150
	minStepDuration    = 100 * time.Millisecond
)

// Creature — существо в мире. Местоположение не хранится:
// его знает карта (world.Map.LocationOf).
type Creature struct {
	id        ID
	kind      Kind
	name      string
	article   string
	outfit    Outfit
	direction vec.Direction

	stats      map[StatType]*Stat
	exhaustion *Exhaustion
	walkPlan   *WalkPlan
	speedDelta int
	blocking   bool

	sink EventSink
}

func newCreature(kind Kind, name, article string) *Creature {
	c := &Creature{
		id:         NewID(),
		kind:       kind,
		name:       name,
		article:    article,
		direction:  vec.South,
		stats:      make(map[StatType]*Stat),
		exhaustion: NewExhaustion(),
		blocking:   true,
	}
	return c
}

func (c *Creature) ID() ID                   { return c.id }
func (c *Creature) Kind() Kind               { return c.kind }
func (c *Creature) Name() string             { return c.name }
func (c *Creature) Article() string          { return c.article }
func (c *Creature) Outfit() Outfit           { return c.outfit }
func (c *Creature) Direction() vec.Direction { return c.direction }
func (c *Creature) Exhaustion() *Exhaustion  { return c.exhaustion }
func (c *Creature) IsPlayer() bool           { return c.kind == KindPlayer }
func (c *Creature) IsMonster() bool          { return c.kind == KindMonster }
func (c *Creature) BlocksPassage() bool      { return c.blocking }

// String возвращает короткое описание для логов
func (c *Creature) String() string {
	return fmt.Sprintf("%s#%d(%s)", c.kind, c.id, c.name)
}

// Describe возвращает имя с артиклем, как его видит другой игрок
func (c *Creature) Describe() string {
	if c.article == "" {
		return c.name
	}
	return c.article + " " + c.name
}

// SetOutfit меняет внешний вид
func (c *Creature) SetOutfit(o Outfit) { c.outfit = o }

// Turn поворачивает существо. Возвращает false, если направление не изменилось.
func (c *Creature) Turn(d vec.Direction) bool {
	d = d.Facing()
	if d == c.direction {
		return false
	}
	c.direction = d
	return true
}

// Attach подключает приёмник доменных событий
func (c *Creature) Attach(sink EventSink) { c.sink = sink }

// Detach отключает приёмник событий
func (c *Creature) Detach() { c.sink = nil }

// Attached сообщает, подключён ли приёмник событий
func (c *Creature) Attached() bool { return c.sink != nil }

func (c *Creature) raise(ev Event) {
	if c.sink != nil {
		c.sink.Raise(ev)
	}
}

// RaiseLocationChanged публикует перемещение. Вызывается тем, кто двигал существо по карте.
func (c *Creature) RaiseLocationChanged(from, to vec.Location) {
	c.raise(LocationChanged{Source: c.id, From: from, To: to})
}

// AddStat регистрирует характеристику и подписывает её на поток событий существа
func (c *Creature) AddStat(st *Stat) {
	st.onChange = func(s *Stat, oldValue, oldPercent int) {
		c.raise(StatChanged{Source: c.id, Stat: s.Type, OldValue: oldValue, OldPercent: oldPercent})
	}
	c.stats[st.Type] = st
}

// Stat возвращает характеристику или nil
func (c *Creature) Stat(t StatType) *Stat { return c.stats[t] }

// Health — текущее здоровье
func (c *Creature) Health() int {
	if st := c.stats[StatHealth]; st != nil {
		return st.Current()
	}
	return 0
}

// IsDead сообщает, что здоровье исчерпано
func (c *Creature) IsDead() bool { return c.Health() <= 0 }

// Speed — базовая скорость плюс модификаторы состояний
func (c *Creature) Speed() int {
	base := 0
	if st := c.stats[StatBaseSpeed]; st != nil {
		base = st.Current()
	}
	return max(MinSpeed, min(base+c.speedDelta, MaxSpeed))
}

// SpeedDelta — суммарный модификатор скорости от состояний
func (c *Creature) SpeedDelta() int { return c.speedDelta }

// SetSpeedDelta меняет модификатор и поднимает изменение базовой скорости для наблюдателей
func (c *Creature) SetSpeedDelta(delta int) {
	if delta == c.speedDelta {
		return
	}
	old := c.Speed()
	c.speedDelta = delta
	c.raise(StatChanged{Source: c.id, Stat: StatBaseSpeed, OldValue: old})
}

// StepDuration — время шага по земле с данной скоростью
func (c *Creature) StepDuration(groundSpeed int) time.Duration {
	if groundSpeed <= 0 {
		groundSpeed = DefaultGroundSpeed
	}
	d := time.Duration(groundSpeed) * time.Second / time.Duration(c.Speed())
	return max(d, minStepDuration)
}

// WalkPlan возвращает текущий план движения или nil
func (c *Creature) WalkPlan() *WalkPlan { return c.walkPlan }

// SetWalkPlan заменяет план движения. nil останавливает движение.
func (c *Creature) SetWalkPlan(p *WalkPlan) { c.walkPlan = p }
