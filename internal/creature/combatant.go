package creature

import (
	"math/rand"
	"slices"
)

// FightMode — баланс атаки и защиты
type FightMode uint8

const (
	FightOffensive FightMode = iota + 1
	FightBalanced
	FightDefensive
)

// ChaseMode — поведение относительно цели атаки
type ChaseMode uint8

const (
	ChaseStand ChaseMode = iota
	ChaseFollow
	ChaseKeepDistance
)

// Awareness — что существо знает о другом
type Awareness uint8

const (
	AwarenessNone Awareness = iota
	AwarenessSensed
	AwarenessSeen
)

// String возвращает имя уровня восприятия
func (a Awareness) String() string {
	switch a {
	case AwarenessSensed:
		return "sensed"
	case AwarenessSeen:
		return "seen"
	default:
		return "none"
	}
}

// Границы скорости атаки и защиты
const (
	MinCombatSpeed = 0.1
	MaxCombatSpeed = 5.0
)

// Combatant — существо, способное сражаться
type Combatant struct {
	*Creature

	fightMode    FightMode
	chaseMode    ChaseMode
	attackSpeed  float64
	defenseSpeed float64
	attackRange  int

	attackTarget ID
	chaseTarget  ID

	awareness map[ID]Awareness
	attackers map[ID]struct{}
	ledger    *DamageLedger
	hostiles  *HostileSet
	skills    map[SkillType]*Skill

	armor      int
	defense    int
	attack     int
	blood      BloodType
	modifiers  []DamageModifier
	rng        *rand.Rand
	player     *PlayerState
	monsterDef *MonsterType
}

func newCombatant(kind Kind, name, article string, rng *rand.Rand) *Combatant {
	return &Combatant{
		Creature:     newCreature(kind, name, article),
		fightMode:    FightBalanced,
		chaseMode:    ChaseStand,
		attackSpeed:  1,
		defenseSpeed: 1,
		attackRange:  1,
		awareness:    make(map[ID]Awareness),
		attackers:    make(map[ID]struct{}),
		ledger:       NewDamageLedger(),
		hostiles:     NewHostileSet(),
		skills:       make(map[SkillType]*Skill),
		rng:          rng,
		modifiers:    DefaultModifiers(),
	}
}

func (c *Combatant) FightMode() FightMode             { return c.fightMode }
func (c *Combatant) ChaseMode() ChaseMode             { return c.chaseMode }
func (c *Combatant) AttackSpeed() float64             { return c.attackSpeed }
func (c *Combatant) DefenseSpeed() float64            { return c.defenseSpeed }
func (c *Combatant) AttackRange() int                 { return c.attackRange }
func (c *Combatant) AttackTarget() ID                 { return c.attackTarget }
func (c *Combatant) ChaseTarget() ID                  { return c.chaseTarget }
func (c *Combatant) Ledger() *DamageLedger            { return c.ledger }
func (c *Combatant) Hostiles() *HostileSet            { return c.hostiles }
func (c *Combatant) Player() *PlayerState             { return c.player }
func (c *Combatant) MonsterType() *MonsterType        { return c.monsterDef }
func (c *Combatant) Blood() BloodType                 { return c.blood }
func (c *Combatant) Skill(t SkillType) *Skill         { return c.skills[t] }
func (c *Combatant) SetFightMode(m FightMode)         { c.fightMode = m }
func (c *Combatant) SetAttackRange(r int)             { c.attackRange = max(r, 1) }
func (c *Combatant) SetRand(rng *rand.Rand)           { c.rng = rng }
func (c *Combatant) AttackValue() int                 { return c.attack }
func (c *Combatant) SetModifiers(m ...DamageModifier) { c.modifiers = m }

// SetAttackSpeed задаёт скорость атаки с ограничением [0.1, 5]
func (c *Combatant) SetAttackSpeed(v float64) {
	c.attackSpeed = max(MinCombatSpeed, min(v, MaxCombatSpeed))
}

// SetDefenseSpeed задаёт скорость защиты с ограничением [0.1, 5]
func (c *Combatant) SetDefenseSpeed(v float64) {
	c.defenseSpeed = max(MinCombatSpeed, min(v, MaxCombatSpeed))
}

// AddSkill регистрирует навык и подписывает его на поток событий существа
func (c *Combatant) AddSkill(s *Skill) {
	s.onChange = func(ev Event) {
		switch e := ev.(type) {
		case SkillLevelChanged:
			e.Source = c.id
			c.raise(e)
		case SkillPercentChanged:
			e.Source = c.id
			c.raise(e)
		}
	}
	c.skills[s.Type] = s
}

// SetAttackTarget меняет цель атаки. Если режим преследования не «стоять»,
// цель преследования следует за целью атаки.
func (c *Combatant) SetAttackTarget(target ID) bool {
	if target == c.id || target == c.attackTarget {
		return false
	}
	old := c.attackTarget
	c.attackTarget = target
	c.raise(AttackTargetChanged{Source: c.id, OldTarget: old, NewTarget: target})

	if c.chaseMode != ChaseStand {
		c.SetChaseTarget(target)
	}
	return true
}

// SetChaseTarget меняет цель преследования
func (c *Combatant) SetChaseTarget(target ID) bool {
	if target == c.id || target == c.chaseTarget {
		return false
	}
	old := c.chaseTarget
	c.chaseTarget = target
	c.raise(ChaseTargetChanged{Source: c.id, OldTarget: old, NewTarget: target})
	return true
}

// SetChaseMode меняет режим преследования и синхронизирует цель преследования
func (c *Combatant) SetChaseMode(m ChaseMode) {
	if m == c.chaseMode {
		return
	}
	c.chaseMode = m
	if m == ChaseStand {
		c.SetChaseTarget(NoID)
		return
	}
	c.SetChaseTarget(c.attackTarget)
}

// AwarenessOf возвращает текущий уровень восприятия другого существа
func (c *Combatant) AwarenessOf(other ID) Awareness {
	return c.awareness[other]
}

// Known возвращает всех, кого существо ощущает или видит
func (c *Combatant) Known() []ID {
	ids := make([]ID, 0, len(c.awareness))
	for id := range c.awareness {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Perceive продвигает восприятие other вперёд: отсутствует → ощущается → виден.
// lineOfSight нужен только для перехода в «виден». Возвращает итоговый уровень.
func (c *Combatant) Perceive(other *Combatant, lineOfSight bool) Awareness {
	if other == nil || other.id == c.id {
		return AwarenessNone
	}

	current, known := c.awareness[other.id]
	if !known {
		current = AwarenessSensed
		c.awareness[other.id] = current
		c.raise(AwarenessChanged{Source: c.id, Other: other.id, Level: current, kind: EventSensed})
	}

	if current == AwarenessSensed && lineOfSight {
		current = AwarenessSeen
		c.awareness[other.id] = current
		c.raise(AwarenessChanged{Source: c.id, Other: other.id, Level: current, kind: EventSeen})
		c.onSeen(other)
	}
	return current
}

// Lose забывает other. Возвращает false, если о нём ничего не было известно.
func (c *Combatant) Lose(other ID) bool {
	if other == c.id {
		return false
	}
	if _, ok := c.awareness[other]; !ok {
		return false
	}
	delete(c.awareness, other)
	c.raise(AwarenessChanged{Source: c.id, Other: other, Level: AwarenessNone, kind: EventLost})
	c.onLost(other)
	return true
}

// IsHostileTo — противостоят ли существа друг другу
func (c *Combatant) IsHostileTo(other *Combatant) bool {
	if other == nil || other.id == c.id {
		return false
	}
	if c.kind == KindNPC || other.kind == KindNPC {
		return false
	}
	return c.kind != other.kind
}

func (c *Combatant) onSeen(other *Combatant) {
	if !c.IsHostileTo(other) {
		return
	}
	if !c.hostiles.Add(other.id) {
		return
	}
	if c.IsMonster() && c.attackTarget == NoID {
		c.SetAttackTarget(other.id)
	}
}

func (c *Combatant) onLost(other ID) {
	c.hostiles.Remove(other)
	if c.attackTarget != other {
		return
	}
	if c.IsMonster() {
		next, _ := c.hostiles.First()
		c.SetAttackTarget(next)
		return
	}
	c.SetAttackTarget(NoID)
}

// AddAttacker запоминает, что attacker целится в это существо
func (c *Combatant) AddAttacker(attacker ID) { c.attackers[attacker] = struct{}{} }

// RemoveAttacker забывает атакующего
func (c *Combatant) RemoveAttacker(attacker ID) { delete(c.attackers, attacker) }

// Attackers возвращает отсортированный список атакующих
func (c *Combatant) Attackers() []ID {
	ids := make([]ID, 0, len(c.attackers))
	for id := range c.attackers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ClearRelations сбрасывает цели, восприятие и атакующих без поднятия событий восприятия.
// Используется при удалении существа из мира.
func (c *Combatant) ClearRelations() {
	c.SetAttackTarget(NoID)
	c.SetChaseTarget(NoID)
	c.awareness = make(map[ID]Awareness)
	c.attackers = make(map[ID]struct{})
	for _, id := range c.hostiles.IDs() {
		c.hostiles.Remove(id)
	}
}

// Forget убирает other из всех связей этого существа (удаление other из мира)
func (c *Combatant) Forget(other ID) {
	delete(c.awareness, other)
	delete(c.attackers, other)
	c.hostiles.Remove(other)
	c.ledger.Forget(other)
	if c.chaseTarget == other {
		c.SetChaseTarget(NoID)
	}
	if c.attackTarget == other {
		next := NoID
		if c.IsMonster() {
			next, _ = c.hostiles.First()
		}
		c.SetAttackTarget(next)
	}
}
