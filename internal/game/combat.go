package game

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/annel0/worldsim/internal/creature"
	"github.com/annel0/worldsim/internal/eventbus"
	"github.com/annel0/worldsim/internal/items"
	"github.com/annel0/worldsim/internal/protocol"
	"github.com/annel0/worldsim/internal/vec"
)

// baseAttackCooldown — перезарядка удара при скорости атаки 1
const baseAttackCooldown = 2 * time.Second

// SetAttackTargetOperation — игрок выбрал цель атаки (NoID — снять цель)
type SetAttackTargetOperation struct {
	operation
	target creature.ID
}

// NewSetAttackTargetOperation создаёт смену цели
func NewSetAttackTargetOperation(requestor, target creature.ID) *SetAttackTargetOperation {
	return &SetAttackTargetOperation{operation: newOperation(requestor, KindSetAttackTarget), target: target}
}

func (o *SetAttackTargetOperation) Execute(ctx *Context) error {
	g := ctx.Game
	c, ok := g.Combatant(o.requestor)
	if !ok || c.IsDead() {
		return nil
	}
	if o.target == creature.NoID {
		c.SetAttackTarget(creature.NoID)
		return nil
	}

	target, ok := g.Combatant(o.target)
	if !ok || target.IsDead() || target.ID() == c.ID() || !g.canSeeEachOther(c, target) {
		if c.IsPlayer() {
			g.Notify(NewCancelAttackNotification(c.ID()), 0)
			g.Notify(NewTextMessageNotification(ToPlayer(c.ID()), protocol.MessageStatusSmall, "You may not attack this creature."), 0)
		}
		return nil
	}
	c.SetAttackTarget(target.ID())
	return nil
}

// canSeeEachOther — цель в окне клиента атакующего
func (g *Game) canSeeEachOther(a, b *creature.Combatant) bool {
	aLoc, ok := g.world.LocationOf(a.ID())
	if !ok {
		return false
	}
	bLoc, ok := g.world.LocationOf(b.ID())
	if !ok {
		return false
	}
	return a.AwarenessOf(b.ID()) != creature.AwarenessNone || aLoc.IsWithinRange(bLoc, 1)
}

// ChangeModesOperation — смена режимов боя и преследования
type ChangeModesOperation struct {
	operation
	fight creature.FightMode
	chase creature.ChaseMode
}

// NewChangeModesOperation создаёт смену режимов
func NewChangeModesOperation(requestor creature.ID, fight creature.FightMode, chase creature.ChaseMode) *ChangeModesOperation {
	return &ChangeModesOperation{operation: newOperation(requestor, KindChangeModes), fight: fight, chase: chase}
}

func (o *ChangeModesOperation) Execute(ctx *Context) error {
	c, ok := ctx.Game.Combatant(o.requestor)
	if !ok {
		return nil
	}
	if o.fight >= creature.FightOffensive && o.fight <= creature.FightDefensive {
		c.SetFightMode(o.fight)
	}
	if o.chase <= creature.ChaseKeepDistance {
		c.SetChaseMode(o.chase)
	}
	return nil
}

// AttackOrchestrationOperation периодически проверяет дистанцию до цели и ставит удар.
// Перемещение цели в досягаемость ускоряет её вместо перепланирования.
type AttackOrchestrationOperation struct {
	operation
	target creature.ID
}

// NewAttackOrchestrationOperation создаёт оркестрацию атаки
func NewAttackOrchestrationOperation(requestor, target creature.ID) *AttackOrchestrationOperation {
	return &AttackOrchestrationOperation{operation: newOperation(requestor, KindAttackOrchestration), target: target}
}

// Target — цель, ради которой запущена оркестрация
func (o *AttackOrchestrationOperation) Target() creature.ID { return o.target }

func (o *AttackOrchestrationOperation) Execute(ctx *Context) error {
	g := ctx.Game
	c, ok := g.Combatant(o.requestor)
	if !ok || c.IsDead() || c.AttackTarget() != o.target {
		return nil
	}
	target, ok := g.Combatant(o.target)
	if !ok || target.IsDead() {
		return nil
	}

	if g.inAttackRange(c, target) && !g.hasPending(c.ID(), KindAttack) {
		g.Dispatch(NewAttackOperation(c.ID(), target.ID(), attackCooldown(c)), 0)
	}
	g.sched.Schedule(o, g.settings.AttackInterval)
	return nil
}

// attackCooldown — перезарядка удара с учётом скорости атаки
func attackCooldown(c *creature.Combatant) time.Duration {
	return time.Duration(float64(baseAttackCooldown) / c.AttackSpeed())
}

// inAttackRange — цель на дистанции атаки и в прямой видимости
func (g *Game) inAttackRange(attacker, target *creature.Combatant) bool {
	from, ok := g.world.LocationOf(attacker.ID())
	if !ok {
		return false
	}
	to, ok := g.world.LocationOf(target.ID())
	if !ok {
		return false
	}
	return from.IsWithinRange(to, attacker.AttackRange()) && g.world.CanSee(from, to)
}

// AttackOperation — один удар
type AttackOperation struct {
	operation
	target   creature.ID
	cooldown time.Duration
}

// NewAttackOperation создаёт удар с перезарядкой боя cooldown
func NewAttackOperation(requestor, target creature.ID, cooldown time.Duration) *AttackOperation {
	return &AttackOperation{operation: newOperation(requestor, KindAttack), target: target, cooldown: cooldown}
}

func (o *AttackOperation) Exhaustion() map[creature.ExhaustionType]time.Duration {
	return map[creature.ExhaustionType]time.Duration{creature.ExhaustionCombat: o.cooldown}
}

func (o *AttackOperation) Execute(ctx *Context) error {
	g := ctx.Game
	attacker, ok := g.Combatant(o.requestor)
	if !ok || attacker.IsDead() {
		return nil
	}
	defender, ok := g.Combatant(o.target)
	if !ok || defender.IsDead() || !g.inAttackRange(attacker, defender) {
		return nil
	}
	at, _ := g.world.LocationOf(defender.ID())

	info := creature.DamageInfo{
		Type:         creature.DamagePhysical,
		Amount:       g.randRange(0, attackPower(attacker)),
		AttackerKind: attacker.Kind(),
		Blockable:    true,
	}
	dealt, result := defender.ApplyDamage(info, attacker.ID())
	g.metrics.damageDealt(attacker.Kind(), dealt)

	if effect, ok := protocol.EffectForHit(result.Effect); ok {
		g.Notify(NewMagicEffectNotification(at, effect), 0)
	}
	if dealt > 0 {
		g.Notify(NewAnimatedTextNotification(at, protocol.ColorForBlood(defender.Blood()), strconv.Itoa(dealt)), 0)
		if defender.IsPlayer() {
			text := fmt.Sprintf("You lose %d hitpoints due to an attack by %s.", dealt, attacker.Describe())
			g.Notify(NewTextMessageNotification(ToPlayer(defender.ID()), protocol.MessageStatusDefault, text), 0)
		}
	}

	if attacker.IsPlayer() {
		g.train(attacker, creature.SkillFist)
	}
	if result.Blocked && defender.IsPlayer() {
		g.train(defender, creature.SkillShield)
	}
	g.markInCombat(attacker, defender)
	return nil
}

// attackPower — верхняя граница урона удара
func attackPower(c *creature.Combatant) int {
	if !c.IsPlayer() {
		return c.AttackValue()
	}
	power := 5
	if s := c.Skill(creature.SkillFist); s != nil {
		power += s.Level
	}
	switch c.FightMode() {
	case creature.FightOffensive:
		power = power * 6 / 5
	case creature.FightDefensive:
		power = power * 4 / 5
	}
	return power
}

// train добавляет одно использование навыка
func (g *Game) train(c *creature.Combatant, t creature.SkillType) {
	if s := c.Skill(t); s != nil {
		if err := s.AddCount(1); err != nil {
			g.logger.Warn("⚠️ Ошибка тренировки %s у %s: %v", t, c, err)
		}
	}
}

// DeathOperation убирает погибшее существо, оставляет труп, делит опыт и завершает сессию игрока
type DeathOperation struct {
	operation
}

// NewDeathOperation создаёт обработку смерти
func NewDeathOperation(id creature.ID) *DeathOperation {
	return &DeathOperation{operation: newOperation(id, KindDeath)}
}

func (o *DeathOperation) Execute(ctx *Context) error {
	g := ctx.Game
	c, ok := g.Combatant(o.requestor)
	if !ok {
		return nil
	}
	loc, onMap := g.world.LocationOf(c.ID())
	ledger := c.Ledger().Snapshot()

	g.RemoveCreature(c)
	g.metrics.death(c.Kind())

	if onMap {
		g.Notify(NewMagicEffectNotification(loc, protocol.EffectPuff), 0)
		g.dropCorpse(c, loc)
	}
	experience := g.shareExperience(c, ledger)
	g.publishDeath(ctx, c, loc, ledger, experience)
	g.logger.Info("💀 %s (%d) погиб на %v", c.Describe(), c.ID(), loc)

	if c.IsPlayer() {
		g.playerDied(ctx, c)
	}
	return nil
}

// dropCorpse кладёт труп монстра на тайл
func (g *Game) dropCorpse(c *creature.Combatant, loc vec.Location) {
	mt := c.MonsterType()
	if mt == nil || mt.Corpse == 0 {
		return
	}
	it, ok := g.catalog.ItemType(mt.Corpse)
	if !ok {
		g.logger.Warn("⚠️ Неизвестный тип трупа %d у %s", mt.Corpse, mt.Name)
		return
	}
	corpse, err := items.New(it, 1)
	if err != nil {
		g.logger.Warn("⚠️ Не удалось создать труп %s: %v", mt.Name, err)
		return
	}
	tile, ok := g.world.PeekTile(loc)
	if !ok || !tile.AddItem(corpse) {
		return
	}
	g.Notify(NewTileUpdatedNotification(loc), 0)
}

// shareExperience делит опыт монстра между игроками пропорционально нанесённому урону
func (g *Game) shareExperience(c *creature.Combatant, ledger map[creature.ID]int) map[creature.ID]int64 {
	mt := c.MonsterType()
	if mt == nil || mt.Experience <= 0 {
		return nil
	}
	total := 0
	for _, dmg := range ledger {
		total += dmg
	}
	if total <= 0 {
		return nil
	}

	ids := make([]creature.ID, 0, len(ledger))
	for id := range ledger {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	shares := make(map[creature.ID]int64)
	for _, id := range ids {
		p, ok := g.Combatant(id)
		if !ok || !p.IsPlayer() {
			continue
		}
		share := mt.Experience * int64(ledger[id]) / int64(total)
		if share <= 0 {
			continue
		}
		if exp := p.Skill(creature.SkillExperience); exp != nil {
			if err := exp.AddCount(share); err != nil {
				g.logger.Warn("⚠️ Ошибка начисления опыта %s: %v", p, err)
				continue
			}
		}
		shares[id] = share
		if at, ok := g.world.LocationOf(id); ok {
			g.Notify(NewAnimatedTextNotification(at, protocol.TextColorWhite, strconv.FormatInt(share, 10)), 0)
		}
		g.Notify(NewTextMessageNotification(ToPlayer(id), protocol.MessageStatusDefault,
			fmt.Sprintf("You gained %d experience points.", share)), 0)
	}
	return shares
}

// publishDeath отправляет событие смерти в шину, если она подключена
func (g *Game) publishDeath(ctx context.Context, c *creature.Combatant, loc vec.Location, ledger map[creature.ID]int, exp map[creature.ID]int64) {
	if g.bus == nil {
		return
	}
	payload := eventbus.CreatureDeath{
		CreatureID: uint32(c.ID()),
		Name:       c.Name(),
		Kind:       c.Kind().String(),
		X:          loc.X,
		Y:          loc.Y,
		Z:          loc.Z,
		Damage:     make(map[uint32]int, len(ledger)),
		Experience: make(map[uint32]int64, len(exp)),
	}
	for id, dmg := range ledger {
		payload.Damage[uint32(id)] = dmg
	}
	for id, e := range exp {
		payload.Experience[uint32(id)] = e
	}
	g.publish(ctx, eventbus.TypeCreatureDeath, eventbus.PriorityNormal, payload)
}
