package game

import (
	"time"

	"github.com/annel0/worldsim/internal/creature"
)

// Dispatch ставит операцию с учётом перезарядок исполнителя:
// задержка = max(extra, 0) + наибольший остаток перезарядки по категориям операции.
// Перезарядка каждой категории продлевается до fireAt + её длительность.
func (g *Game) Dispatch(op Operation, extra time.Duration) time.Time {
	now := g.clock.Now()
	exhaustion := op.Exhaustion()

	actor, _ := g.Combatant(op.RequestorID())
	var wait time.Duration
	if actor != nil {
		for cat := range exhaustion {
			wait = max(wait, actor.Exhaustion().Remaining(cat, now))
		}
	}

	fireAt := g.sched.Schedule(op, max(extra, 0)+wait)
	if actor != nil {
		for cat, cooldown := range exhaustion {
			actor.Exhaustion().ExtendUntil(cat, fireAt.Add(cooldown))
		}
	}

	g.metrics.operationDispatched(op.Kind())
	g.logger.Trace("📤 %s от %d через %v", op.Kind(), op.RequestorID(), fireAt.Sub(now))
	return fireAt
}

// Notify ставит уведомление наблюдателям
func (g *Game) Notify(n *Notification, delay time.Duration) {
	if n == nil {
		return
	}
	g.sched.Schedule(n, delay)
}

// CancelOperations снимает все ожидающие операции существа данного вида
func (g *Game) CancelOperations(id creature.ID, kind string) int {
	return g.sched.CancelAllFor(uint32(id), kind)
}

// hasPending — есть ли у существа ожидающая операция данного вида
func (g *Game) hasPending(id creature.ID, kind string) bool {
	return len(g.sched.PendingFor(uint32(id), kind)) > 0
}

// Raise принимает доменные события существ и передаёт их в таблицу реакций.
// Вызывается синхронно на линии времени.
func (g *Game) Raise(ev creature.Event) {
	g.metrics.domainEvent(ev.Kind())
	react, ok := g.reactions[ev.Kind()]
	if !ok {
		return
	}
	c, ok := g.Combatant(ev.SourceID())
	if !ok {
		return
	}
	react(c, ev)
}
