package game

import (
	"time"

	"github.com/annel0/worldsim/internal/creature"
	"github.com/annel0/worldsim/internal/pathfinding"
	"github.com/annel0/worldsim/internal/protocol"
	"github.com/annel0/worldsim/internal/vec"
)

// Диагональный шаг занимает втрое больше времени
const diagonalStepFactor = 3

const notEnoughRoom = "There is not enough room."

// WalkOperation — один шаг существа
type WalkOperation struct {
	operation
	direction vec.Direction
	step      time.Duration
	manual    bool
}

// NewWalkOperation создаёт шаг. step — длительность шага, она же перезарядка движения.
// manual — шаг запрошен клиентом и прерывает автоматическое движение.
func NewWalkOperation(requestor creature.ID, dir vec.Direction, step time.Duration, manual bool) *WalkOperation {
	return &WalkOperation{
		operation: newOperation(requestor, KindWalk),
		direction: dir,
		step:      step,
		manual:    manual,
	}
}

func (o *WalkOperation) Exhaustion() map[creature.ExhaustionType]time.Duration {
	return map[creature.ExhaustionType]time.Duration{creature.ExhaustionMovement: o.step}
}

// stepDuration — время шага существа с текущего тайла в направлении dir
func (g *Game) stepDuration(c *creature.Combatant, dir vec.Direction) time.Duration {
	ground := 0
	if at, ok := g.world.LocationOf(c.ID()); ok {
		if tile, ok := g.world.PeekTile(at); ok {
			ground = tile.GroundSpeed()
		}
	}
	d := c.StepDuration(ground)
	if dir.IsDiagonal() {
		d *= diagonalStepFactor
	}
	return d
}

func (o *WalkOperation) Execute(ctx *Context) error {
	g := ctx.Game
	c, ok := g.Combatant(o.requestor)
	if !ok || c.IsDead() {
		return nil
	}
	if o.manual {
		g.CancelOperations(c.ID(), KindAutoWalk)
		c.SetWalkPlan(nil)
	}

	from, ok := g.world.LocationOf(c.ID())
	if !ok {
		return nil
	}
	to := from.Translate(o.direction)

	tile, ok := g.world.GetTile(to)
	if !ok || !tile.IsWalkable() {
		g.rejectWalk(c)
		return nil
	}

	stackPos := -1
	if src, ok := g.world.PeekTile(from); ok {
		stackPos = src.GetIndexOfCreature(c.ID())
	}
	if _, err := g.world.MoveCreature(c.ID(), to); err != nil {
		g.logger.Debug("⚠️ Шаг %s на %v не удался: %v", c, to, err)
		g.rejectWalk(c)
		return nil
	}
	c.Turn(o.direction)

	g.Notify(NewCreatureMovedNotification(c.ID(), from, stackPos, to), 0)
	if c.IsPlayer() {
		g.notifyViewShift(c.ID(), from, to)
	}
	c.RaiseLocationChanged(from, to)
	return nil
}

// rejectWalk сообщает игроку, что шаг невозможен
func (g *Game) rejectWalk(c *creature.Combatant) {
	if !c.IsPlayer() {
		return
	}
	g.Notify(NewCancelWalkNotification(c.ID(), c.Direction()), 0)
	g.Notify(NewTextMessageNotification(ToPlayer(c.ID()), protocol.MessageStatusSmall, notEnoughRoom), 0)
}

// AutoWalkOperation ведёт существо по плану движения: один шаг и следующий вызов
type AutoWalkOperation struct {
	operation
}

// NewAutoWalkOperation создаёт шаг оркестрации движения
func NewAutoWalkOperation(requestor creature.ID) *AutoWalkOperation {
	return &AutoWalkOperation{operation: newOperation(requestor, KindAutoWalk)}
}

// Exhaustion ждёт окончания перезарядки движения, ничего не расходуя
func (o *AutoWalkOperation) Exhaustion() map[creature.ExhaustionType]time.Duration {
	return map[creature.ExhaustionType]time.Duration{creature.ExhaustionMovement: 0}
}

func (o *AutoWalkOperation) Execute(ctx *Context) error {
	g := ctx.Game
	c, ok := g.Combatant(o.requestor)
	if !ok || c.IsDead() {
		return nil
	}
	plan := c.WalkPlan()
	if plan == nil {
		return nil
	}
	from, ok := g.world.LocationOf(c.ID())
	if !ok {
		return nil
	}

	goal, ok := plan.DetermineGoal()
	if !ok {
		c.SetWalkPlan(nil)
		return nil
	}
	if from.IsWithinRange(goal, plan.GoalDistance) {
		// на месте; сдвиг цели снова запустит движение
		plan.SetGoal(goal, nil)
		return nil
	}

	next, has := plan.PeekWaypoint()
	// после отклонённого шага следующая точка уже не соседняя
	blocked := has && (!from.IsAdjacent(next) || !g.isPassable(next))
	if blocked && plan.Strategy == creature.WalkDoNotRecalculate {
		c.SetWalkPlan(nil)
		g.rejectWalk(c)
		return nil
	}
	if !has || plan.NeedsRecalculation(goal, blocked) {
		res := g.paths.FindPath(pathfinding.GridFunc(g.isPassable), from, goal, plan.GoalDistance, nil)
		if !res.Found || len(res.Directions) == 0 {
			plan.SetGoal(goal, nil)
			return nil
		}
		plan.SetGoal(goal, waypointsFrom(from, res.Directions))
	}

	next, ok = plan.PopWaypoint()
	if !ok {
		return nil
	}
	dir := from.DirectionTo(next)
	g.Dispatch(NewWalkOperation(c.ID(), dir, g.stepDuration(c, dir), false), 0)
	g.Dispatch(NewAutoWalkOperation(c.ID()), 0)
	return nil
}

// isPassable — можно ли проложить маршрут через тайл
func (g *Game) isPassable(loc vec.Location) bool {
	tile, ok := g.world.GetTile(loc)
	return ok && tile.IsWalkable() && !tile.BlocksPathfinding()
}

func waypointsFrom(from vec.Location, dirs []vec.Direction) []vec.Location {
	out := make([]vec.Location, 0, len(dirs))
	at := from
	for _, d := range dirs {
		at = at.Translate(d)
		out = append(out, at)
	}
	return out
}

// TurnOperation — поворот на месте
type TurnOperation struct {
	operation
	direction vec.Direction
}

// NewTurnOperation создаёт поворот
func NewTurnOperation(requestor creature.ID, dir vec.Direction) *TurnOperation {
	return &TurnOperation{operation: newOperation(requestor, KindTurn), direction: dir}
}

func (o *TurnOperation) Execute(ctx *Context) error {
	g := ctx.Game
	c, ok := g.Combatant(o.requestor)
	if !ok || !c.Turn(o.direction) {
		return nil
	}
	loc, ok := g.world.LocationOf(c.ID())
	if !ok {
		return nil
	}
	tile, ok := g.world.PeekTile(loc)
	if !ok {
		return nil
	}
	g.Notify(NewCreatureTurnedNotification(c.ID(), loc, tile.GetIndexOfCreature(c.ID()), c.Direction()), 0)
	return nil
}
