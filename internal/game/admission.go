package game

import (
	"sort"

	"github.com/annel0/worldsim/internal/creature"
	"github.com/annel0/worldsim/internal/vec"
)

// PlaceCreature допускает существо в мир одной операцией: тайл, реестр,
// подписка на события и начальное восприятие. false — место занято или не загружено.
func (g *Game) PlaceCreature(c *creature.Combatant, loc vec.Location) bool {
	if c == nil {
		return false
	}
	tile, ok := g.world.GetTile(loc)
	if !ok || !tile.IsWalkable() {
		return false
	}
	if !g.register(c) {
		return false
	}
	if err := g.world.AddCreature(c.ID(), loc); err != nil {
		g.unregister(c.ID())
		g.logger.Warn("⚠️ Не удалось поставить %s на %v: %v", c, loc, err)
		return false
	}
	c.Attach(g)

	g.Notify(NewCreatureAddedNotification(c.ID(), loc, Except(c.ID(), ToSpectators(loc))), 0)
	g.perceiveAround(c, loc)
	g.logger.Debug("➕ %s (%d) появился на %v", c, c.ID(), loc)
	return true
}

// placeNear ставит существо на loc или на ближайший свободный тайл в радиусе radius
func (g *Game) placeNear(c *creature.Combatant, loc vec.Location, radius int) (vec.Location, bool) {
	if g.PlaceCreature(c, loc) {
		return loc, true
	}
	for r := 1; r <= radius; r++ {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if max(abs(dx), abs(dy)) != r {
					continue
				}
				candidate := loc.Offset(dx, dy, 0)
				if g.PlaceCreature(c, candidate) {
					return candidate, true
				}
			}
		}
	}
	return vec.Location{}, false
}

// RemoveCreature убирает существо из мира одной операцией: тайл, реестр, ожидающие события,
// подписка и все связи с другими существами с обеих сторон
func (g *Game) RemoveCreature(c *creature.Combatant) bool {
	if c == nil {
		return false
	}
	id := c.ID()
	if _, ok := g.Combatant(id); !ok {
		return false
	}

	stackPos := -1
	if at, ok := g.world.LocationOf(id); ok {
		if tile, ok := g.world.PeekTile(at); ok {
			stackPos = tile.GetIndexOfCreature(id)
		}
	}
	loc, onMap := g.world.RemoveCreature(id)

	g.sched.CancelAllForOwner(uint32(id))
	c.Detach()
	g.unregister(id)

	for _, other := range g.allCombatants() {
		other.Forget(id)
	}
	c.ClearRelations()
	c.SetWalkPlan(nil)

	if onMap && stackPos >= 0 {
		g.Notify(NewCreatureRemovedNotification(loc, stackPos, Except(id, ToSpectators(loc))), 0)
	}
	g.logger.Debug("➖ %s (%d) убран с %v", c, id, loc)
	return true
}

// allCombatants — снимок реестра по возрастанию идентификатора
func (g *Game) allCombatants() []*creature.Combatant {
	g.mu.RLock()
	out := make([]*creature.Combatant, 0, len(g.creatures))
	for _, c := range g.creatures {
		out = append(out, c)
	}
	g.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// PlaceCreatureOperation ставит готовое существо в мир на линии времени
type PlaceCreatureOperation struct {
	operation
	creature *creature.Combatant
	location vec.Location
	radius   int
}

// NewPlaceCreatureOperation создаёт операцию допуска. radius — поиск свободного места вокруг loc.
func NewPlaceCreatureOperation(c *creature.Combatant, loc vec.Location, radius int) *PlaceCreatureOperation {
	return &PlaceCreatureOperation{
		operation: newOperation(creature.NoID, KindPlaceCreature),
		creature:  c,
		location:  loc,
		radius:    radius,
	}
}

func (o *PlaceCreatureOperation) Execute(ctx *Context) error {
	if _, ok := ctx.Game.placeNear(o.creature, o.location, o.radius); !ok {
		ctx.Game.logger.Debug("⚠️ Нет места для %s около %v", o.creature, o.location)
	}
	return nil
}

// RemoveCreatureOperation убирает существо из мира на линии времени
type RemoveCreatureOperation struct {
	operation
	target creature.ID
}

// NewRemoveCreatureOperation создаёт операцию удаления
func NewRemoveCreatureOperation(id creature.ID) *RemoveCreatureOperation {
	return &RemoveCreatureOperation{operation: newOperation(creature.NoID, KindRemoveCreature), target: id}
}

func (o *RemoveCreatureOperation) Execute(ctx *Context) error {
	if c, ok := ctx.Game.Combatant(o.target); ok {
		ctx.Game.RemoveCreature(c)
	}
	return nil
}
