package game

import (
	"time"

	"github.com/annel0/worldsim/internal/creature"
	"github.com/annel0/worldsim/internal/protocol"
	"github.com/annel0/worldsim/internal/scheduler"
)

// ConditionType — вид состояния существа
type ConditionType uint8

const (
	ConditionInCombat ConditionType = iota + 1
	ConditionHaste
)

// String возвращает имя состояния
func (t ConditionType) String() string {
	switch t {
	case ConditionInCombat:
		return "in_combat"
	case ConditionHaste:
		return "haste"
	default:
		return "unknown"
	}
}

// Condition — длительное состояние существа. Одно на вид: повторное наложение
// сливается с существующим через Aggregate.
type Condition interface {
	Executable
	Type() ConditionType
	TargetID() creature.ID
	EndTime() time.Time
	// Aggregate вливает other в это состояние. false — слияние невозможно.
	Aggregate(other Condition) bool
	Start(g *Game, target *creature.Combatant)
	End(g *Game, target *creature.Combatant)
	Icon() protocol.ConditionIcon
}

// baseCondition — общая часть: владелец, вид и время окончания
type baseCondition struct {
	scheduler.BaseEvent
	ctype  ConditionType
	target creature.ID
	end    time.Time
}

func newBaseCondition(ctype ConditionType, kind string, target creature.ID, end time.Time) baseCondition {
	return baseCondition{
		BaseEvent: scheduler.NewBaseEvent(uint32(target), kind),
		ctype:     ctype,
		target:    target,
		end:       end,
	}
}

func (c *baseCondition) Type() ConditionType   { return c.ctype }
func (c *baseCondition) TargetID() creature.ID { return c.target }
func (c *baseCondition) EndTime() time.Time    { return c.end }

func (c *baseCondition) extendTo(end time.Time) {
	if end.After(c.end) {
		c.end = end
	}
}

// AddOrAggregateCondition накладывает состояние или сливает его с уже действующим.
// true — состояние новое.
func (g *Game) AddOrAggregateCondition(target *creature.Combatant, cond Condition) bool {
	if target == nil || cond == nil {
		return false
	}
	id := target.ID()

	g.mu.Lock()
	byType, ok := g.conditions[id]
	if !ok {
		byType = make(map[ConditionType]Condition)
		g.conditions[id] = byType
	}
	existing, exists := byType[cond.Type()]
	if !exists {
		byType[cond.Type()] = cond
	}
	g.mu.Unlock()

	if exists {
		if !existing.Aggregate(cond) {
			g.logger.Debug("⚠️ Состояние %s у %d не сливается", cond.Type(), id)
		}
		return false
	}

	cond.Start(g, target)
	g.sched.Schedule(cond, cond.EndTime().Sub(g.clock.Now()))
	if target.IsPlayer() {
		g.Notify(NewPlayerConditionsNotification(id), 0)
	}
	return true
}

// HasCondition — действует ли состояние у существа
func (g *Game) HasCondition(id creature.ID, t ConditionType) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.conditions[id][t]
	return ok
}

// conditionIcons — значки всех действующих состояний
func (g *Game) conditionIcons(id creature.ID) protocol.ConditionIcon {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var icons protocol.ConditionIcon
	for _, c := range g.conditions[id] {
		icons |= c.Icon()
	}
	return icons
}

// expireCondition исполняет срабатывание состояния: перенос, если конец сдвинулся, иначе окончание
func (g *Game) expireCondition(ctx *Context, cond Condition) {
	if remaining := cond.EndTime().Sub(ctx.Now); remaining > 0 {
		g.sched.Schedule(cond, remaining)
		return
	}

	g.mu.Lock()
	if current, ok := g.conditions[cond.TargetID()][cond.Type()]; ok && current == cond {
		delete(g.conditions[cond.TargetID()], cond.Type())
	}
	g.mu.Unlock()

	target, ok := g.Combatant(cond.TargetID())
	if !ok {
		return
	}
	cond.End(g, target)
	if target.IsPlayer() {
		g.Notify(NewPlayerConditionsNotification(target.ID()), 0)
	}
}

// InCombatCondition — игрок недавно участвовал в бою и не может выйти
type InCombatCondition struct {
	baseCondition
}

// NewInCombatCondition создаёт состояние боя до end
func NewInCombatCondition(target creature.ID, end time.Time) *InCombatCondition {
	return &InCombatCondition{baseCondition: newBaseCondition(ConditionInCombat, KindInCombat, target, end)}
}

func (c *InCombatCondition) Icon() protocol.ConditionIcon { return protocol.IconInFight }

func (c *InCombatCondition) Aggregate(other Condition) bool {
	if other.Type() != c.ctype {
		return false
	}
	c.extendTo(other.EndTime())
	return true
}

func (c *InCombatCondition) Start(*Game, *creature.Combatant) {}
func (c *InCombatCondition) End(*Game, *creature.Combatant)   {}

func (c *InCombatCondition) Execute(ctx *Context) error {
	ctx.Game.expireCondition(ctx, c)
	return nil
}

// HasteCondition — прибавка к скорости на время
type HasteCondition struct {
	baseCondition
	delta  int
	holder *creature.Combatant
}

// NewHasteCondition создаёт ускорение на delta до end
func NewHasteCondition(target creature.ID, delta int, end time.Time) *HasteCondition {
	return &HasteCondition{baseCondition: newBaseCondition(ConditionHaste, KindHaste, target, end), delta: delta}
}

// Delta — текущая прибавка к скорости
func (c *HasteCondition) Delta() int { return c.delta }

func (c *HasteCondition) Icon() protocol.ConditionIcon { return protocol.IconHaste }

// Aggregate продлевает ускорение и берёт большую прибавку
func (c *HasteCondition) Aggregate(other Condition) bool {
	h, ok := other.(*HasteCondition)
	if !ok {
		return false
	}
	c.extendTo(h.end)
	if h.delta > c.delta {
		c.delta = h.delta
		if c.holder != nil {
			c.holder.SetSpeedDelta(c.delta)
		}
	}
	return true
}

func (c *HasteCondition) Start(_ *Game, target *creature.Combatant) {
	c.holder = target
	target.SetSpeedDelta(c.delta)
}

func (c *HasteCondition) End(_ *Game, target *creature.Combatant) {
	c.holder = nil
	target.SetSpeedDelta(0)
}

func (c *HasteCondition) Execute(ctx *Context) error {
	ctx.Game.expireCondition(ctx, c)
	return nil
}
