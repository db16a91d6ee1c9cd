package game

import (
	"fmt"

	"github.com/annel0/worldsim/internal/creature"
	"github.com/annel0/worldsim/internal/protocol"
	"github.com/annel0/worldsim/internal/vec"
	"github.com/annel0/worldsim/internal/world"
)

// reaction — ответ игры на доменное событие существа
type reaction func(c *creature.Combatant, ev creature.Event)

// reactionTable — одна реакция на каждый вид события
func (g *Game) reactionTable() map[creature.EventKind]reaction {
	return map[creature.EventKind]reaction{
		creature.EventDeath:               g.onDeath,
		creature.EventAttackTargetChanged: g.onAttackTargetChanged,
		creature.EventChaseTargetChanged:  g.onChaseTargetChanged,
		creature.EventStatChanged:         g.onStatChanged,
		creature.EventSkillLevelChanged:   g.onSkillLevelChanged,
		creature.EventSkillPercentChanged: g.onSkillPercentChanged,
		creature.EventLocationChanged:     g.onLocationChanged,
		creature.EventSensed:              g.onAwarenessChanged,
		creature.EventSeen:                g.onAwarenessChanged,
		creature.EventLost:                g.onAwarenessChanged,
	}
}

func (g *Game) onDeath(c *creature.Combatant, _ creature.Event) {
	cancelled := g.sched.CancelAllForOwner(uint32(c.ID()))
	delay := g.randDuration(g.settings.DeathDelayCap)
	g.Dispatch(NewDeathOperation(c.ID()), delay)
	g.logger.Debug("💀 %s погиб, отменено операций: %d, обработка через %v", c, cancelled, delay)
}

func (g *Game) onAttackTargetChanged(c *creature.Combatant, ev creature.Event) {
	e := ev.(creature.AttackTargetChanged)
	if old, ok := g.Combatant(e.OldTarget); ok {
		old.RemoveAttacker(c.ID())
	}
	g.CancelOperations(c.ID(), KindAttackOrchestration)
	g.CancelOperations(c.ID(), KindAttack)

	target, ok := g.Combatant(e.NewTarget)
	if !ok {
		if c.IsPlayer() && e.OldTarget != creature.NoID {
			g.Notify(NewCancelAttackNotification(c.ID()), 0)
		}
		return
	}

	target.AddAttacker(c.ID())
	g.Dispatch(NewAttackOrchestrationOperation(c.ID(), target.ID()), 0)
	g.markInCombat(c, target)
}

// markInCombat накладывает или продлевает состояние боя игрокам-участникам
func (g *Game) markInCombat(participants ...*creature.Combatant) {
	end := g.clock.Now().Add(g.settings.InCombatDuration)
	for _, p := range participants {
		if p != nil && p.IsPlayer() {
			g.AddOrAggregateCondition(p, NewInCombatCondition(p.ID(), end))
		}
	}
}

func (g *Game) onChaseTargetChanged(c *creature.Combatant, ev creature.Event) {
	e := ev.(creature.ChaseTargetChanged)
	g.CancelOperations(c.ID(), KindAutoWalk)
	if e.NewTarget == creature.NoID {
		c.SetWalkPlan(nil)
		return
	}

	targetID := e.NewTarget
	goal, ok := g.world.LocationOf(targetID)
	if !ok {
		c.SetWalkPlan(nil)
		return
	}
	plan := creature.NewWalkPlan(creature.WalkAggressiveRecalculate, c.AttackRange(), goal, nil)
	plan.DetermineGoal = func() (vec.Location, bool) {
		return g.world.LocationOf(targetID)
	}
	c.SetWalkPlan(plan)
	g.Dispatch(NewAutoWalkOperation(c.ID()), 0)
}

func (g *Game) onStatChanged(c *creature.Combatant, ev creature.Event) {
	e := ev.(creature.StatChanged)
	loc, onMap := g.world.LocationOf(c.ID())

	switch e.Stat {
	case creature.StatHealth:
		if onMap {
			g.Notify(NewCreatureHealthNotification(c.ID(), loc, c.Stat(creature.StatHealth).Percent()), 0)
		}
	case creature.StatBaseSpeed:
		if onMap {
			g.Notify(NewCreatureSpeedNotification(c.ID(), loc, c.Speed()), 0)
		}
	}
	if c.IsPlayer() {
		g.Notify(NewPlayerStatsNotification(c.ID()), 0)
	}
}

func (g *Game) onSkillLevelChanged(c *creature.Combatant, ev creature.Event) {
	e := ev.(creature.SkillLevelChanged)
	g.logger.Debug("📈 %s: %s %d → %d", c, e.Skill, e.OldLevel, e.NewLevel)
	if !c.IsPlayer() {
		return
	}

	if e.Skill == creature.SkillExperience {
		g.rescaleForLevel(c, e.NewLevel)
	}
	g.Notify(NewTextMessageNotification(ToPlayer(c.ID()), protocol.MessageEventAdvance, advanceText(e)), 0)
	g.Notify(NewPlayerStatsNotification(c.ID()), 0)
	g.Notify(NewPlayerSkillsNotification(c.ID()), 0)
}

func (g *Game) onSkillPercentChanged(c *creature.Combatant, ev creature.Event) {
	if !c.IsPlayer() {
		return
	}
	switch ev.(creature.SkillPercentChanged).Skill {
	case creature.SkillExperience, creature.SkillMagic:
		g.Notify(NewPlayerStatsNotification(c.ID()), 0)
	default:
		g.Notify(NewPlayerSkillsNotification(c.ID()), 0)
	}
}

// rescaleForLevel пересчитывает максимумы и базовую скорость игрока под новый уровень
func (g *Game) rescaleForLevel(c *creature.Combatant, level int) {
	prof := c.Player().Profession
	if st := c.Stat(creature.StatHealth); st != nil {
		st.SetMaximum(creature.MaxHealthAt(prof, level))
	}
	if st := c.Stat(creature.StatMana); st != nil {
		st.SetMaximum(creature.MaxManaAt(prof, level))
	}
	if st := c.Stat(creature.StatCarryCapacity); st != nil {
		st.SetMaximum(creature.MaxCapacityAt(prof, level))
	}
	if st := c.Stat(creature.StatBaseSpeed); st != nil {
		st.Set(creature.BaseSpeedAt(level))
	}
}

// advanceText — сообщение игроку о смене уровня навыка
func advanceText(e creature.SkillLevelChanged) string {
	verb := "advanced"
	if e.NewLevel < e.OldLevel {
		verb = "were downgraded"
	}
	switch e.Skill {
	case creature.SkillExperience:
		return fmt.Sprintf("You %s from Level %d to Level %d.", verb, e.OldLevel, e.NewLevel)
	case creature.SkillMagic:
		return fmt.Sprintf("You %s to magic level %d.", verb, e.NewLevel)
	case creature.SkillShield:
		return fmt.Sprintf("You %s in shielding.", verb)
	case creature.SkillFishing:
		return fmt.Sprintf("You %s in fishing.", verb)
	default:
		return fmt.Sprintf("You %s in %s fighting.", verb, e.Skill)
	}
}

func (g *Game) onLocationChanged(c *creature.Combatant, ev creature.Event) {
	e := ev.(creature.LocationChanged)

	if p := c.Player(); p != nil {
		for _, slot := range p.ContainersFartherThan(e.To, 1) {
			p.CloseContainer(slot)
			g.Notify(NewContainerClosedNotification(c.ID(), slot), 0)
		}
	}

	g.updatePerception(c, e.From, e.To)
	g.recheckAttackRange(c, e.From, e.To)
	g.pokeChasers(c)
}

// perceptionArea — где могут стоять существа, чьё окно касается loc
func perceptionArea(loc vec.Location) vec.Bounds {
	b := world.ViewBounds(loc)
	const margin = world.UndergroundViewDepth + 1
	b.FromX -= margin
	b.ToX += margin
	b.FromY -= margin
	b.ToY += margin
	return b
}

// updatePerception сравнивает старый и новый набор зрителей и поднимает
// симметричные переходы восприятия для каждой затронутой пары
func (g *Game) updatePerception(c *creature.Combatant, from, to vec.Location) {
	area := perceptionArea(from).Union(perceptionArea(to))
	for _, id := range g.world.CreaturesWithin(area) {
		if id == c.ID() {
			continue
		}
		other, ok := g.Combatant(id)
		if !ok {
			continue
		}
		otherLoc, ok := g.world.LocationOf(id)
		if !ok {
			continue
		}
		g.perceive(c, to, other, otherLoc)
		g.perceive(other, otherLoc, c, to)
	}
}

// perceiveAround — начальное восприятие при появлении существа
func (g *Game) perceiveAround(c *creature.Combatant, at vec.Location) {
	for _, id := range g.world.CreaturesWithin(perceptionArea(at)) {
		if id == c.ID() {
			continue
		}
		other, ok := g.Combatant(id)
		if !ok {
			continue
		}
		otherLoc, ok := g.world.LocationOf(id)
		if !ok {
			continue
		}
		g.perceive(c, at, other, otherLoc)
		g.perceive(other, otherLoc, c, at)
	}
}

// perceive обновляет восприятие a по отношению к b
func (g *Game) perceive(a *creature.Combatant, aLoc vec.Location, b *creature.Combatant, bLoc vec.Location) {
	if world.IsWithinView(aLoc, bLoc) {
		a.Perceive(b, g.world.CanSee(aLoc, bLoc))
		return
	}
	a.Lose(b.ID())
}

// recheckAttackRange ускоряет оркестрации атаки, для которых цель только что оказалась в досягаемости
func (g *Game) recheckAttackRange(c *creature.Combatant, from, to vec.Location) {
	for _, id := range c.Attackers() {
		attacker, ok := g.Combatant(id)
		if !ok {
			continue
		}
		at, ok := g.world.LocationOf(id)
		if !ok {
			continue
		}
		r := attacker.AttackRange()
		if !at.IsWithinRange(from, r) && at.IsWithinRange(to, r) {
			g.expediteOrchestration(id)
		}
	}

	targetLoc, ok := g.world.LocationOf(c.AttackTarget())
	if !ok {
		return
	}
	r := c.AttackRange()
	if !from.IsWithinRange(targetLoc, r) && to.IsWithinRange(targetLoc, r) {
		g.expediteOrchestration(c.ID())
	}
}

func (g *Game) expediteOrchestration(id creature.ID) {
	for _, ev := range g.sched.PendingFor(uint32(id), KindAttackOrchestration) {
		if g.sched.Expedite(ev.ID()) {
			g.logger.Trace("⚡ Оркестрация атаки %d ускорена", id)
		}
	}
}

// pokeChasers возобновляет движение тех, кто преследует c и сейчас стоит
func (g *Game) pokeChasers(c *creature.Combatant) {
	for _, id := range c.Attackers() {
		chaser, ok := g.Combatant(id)
		if !ok || chaser.ChaseTarget() != c.ID() || chaser.WalkPlan() == nil {
			continue
		}
		if g.hasPending(id, KindAutoWalk) || g.hasPending(id, KindWalk) {
			continue
		}
		g.Dispatch(NewAutoWalkOperation(id), 0)
	}
}

func (g *Game) onAwarenessChanged(c *creature.Combatant, ev creature.Event) {
	e := ev.(creature.AwarenessChanged)
	g.logger.Trace("👁️ %s → %d: %s", c, e.Other, e.Level)
}
