package game

import (
	"context"
	"time"

	"github.com/annel0/worldsim/internal/creature"
	"github.com/annel0/worldsim/internal/scheduler"
)

// Виды событий игры. По ним планировщик отменяет события владельца.
const (
	KindWalk                = "op.walk"
	KindAutoWalk            = "op.autowalk"
	KindTurn                = "op.turn"
	KindSpeech              = "op.speech"
	KindAttackOrchestration = "op.attack_orchestration"
	KindAttack              = "op.attack"
	KindDeath               = "op.death"
	KindLogIn               = "op.login"
	KindLogOut              = "op.logout"
	KindPlaceCreature       = "op.place_creature"
	KindRemoveCreature      = "op.remove_creature"
	KindChangeModes         = "op.change_modes"
	KindSetAttackTarget     = "op.set_attack_target"
	KindAutoSave            = "op.autosave"
	KindInCombat            = "condition.in_combat"
	KindHaste               = "condition.haste"
	kindNotificationPrefix  = "notification."
)

// Context — то, что видит событие при исполнении
type Context struct {
	context.Context
	Game *Game
	Now  time.Time
}

// Executable — событие, которое игра умеет исполнить
type Executable interface {
	scheduler.Event
	Execute(ctx *Context) error
}

// Operation — действие существа. Перезарядки читаются в момент постановки.
type Operation interface {
	Executable
	RequestorID() creature.ID
	Exhaustion() map[creature.ExhaustionType]time.Duration
}

// operation — общая часть операций
type operation struct {
	scheduler.BaseEvent
	requestor creature.ID
}

func newOperation(requestor creature.ID, kind string) operation {
	return operation{BaseEvent: scheduler.NewBaseEvent(uint32(requestor), kind), requestor: requestor}
}

func (o *operation) RequestorID() creature.ID { return o.requestor }

// Exhaustion по умолчанию: операция ничего не расходует
func (o *operation) Exhaustion() map[creature.ExhaustionType]time.Duration { return nil }
