package creature

import "github.com/annel0/worldsim/internal/vec"

// EventKind — тип доменного события существа, ключ таблицы реакций
type EventKind uint8

const (
	EventStatChanged EventKind = iota
	EventSkillLevelChanged
	EventSkillPercentChanged
	EventAttackTargetChanged
	EventChaseTargetChanged
	EventLocationChanged
	EventDeath
	EventSensed
	EventSeen
	EventLost
)

// String возвращает имя типа события
func (k EventKind) String() string {
	switch k {
	case EventStatChanged:
		return "stat_changed"
	case EventSkillLevelChanged:
		return "skill_level_changed"
	case EventSkillPercentChanged:
		return "skill_percent_changed"
	case EventAttackTargetChanged:
		return "attack_target_changed"
	case EventChaseTargetChanged:
		return "chase_target_changed"
	case EventLocationChanged:
		return "location_changed"
	case EventDeath:
		return "death"
	case EventSensed:
		return "sensed"
	case EventSeen:
		return "seen"
	case EventLost:
		return "lost"
	default:
		return "unknown"
	}
}

// Event — доменное событие, поднятое существом
type Event interface {
	Kind() EventKind
	SourceID() ID
}

// EventSink принимает события существа. Подключается при допуске существа в мир
// и отключается при удалении одной операцией.
type EventSink interface {
	Raise(ev Event)
}

// StatChanged — изменилось значение характеристики
type StatChanged struct {
	Source     ID
	Stat       StatType
	OldValue   int
	OldPercent int
}

func (e StatChanged) Kind() EventKind { return EventStatChanged }
func (e StatChanged) SourceID() ID    { return e.Source }

// SkillLevelChanged — изменился уровень навыка
type SkillLevelChanged struct {
	Source   ID
	Skill    SkillType
	OldLevel int
	NewLevel int
}

func (e SkillLevelChanged) Kind() EventKind { return EventSkillLevelChanged }
func (e SkillLevelChanged) SourceID() ID    { return e.Source }

// SkillPercentChanged — изменился процент до следующего уровня
type SkillPercentChanged struct {
	Source     ID
	Skill      SkillType
	OldPercent int
	NewPercent int
}

func (e SkillPercentChanged) Kind() EventKind { return EventSkillPercentChanged }
func (e SkillPercentChanged) SourceID() ID    { return e.Source }

// AttackTargetChanged — сменилась цель атаки
type AttackTargetChanged struct {
	Source    ID
	OldTarget ID
	NewTarget ID
}

func (e AttackTargetChanged) Kind() EventKind { return EventAttackTargetChanged }
func (e AttackTargetChanged) SourceID() ID    { return e.Source }

// ChaseTargetChanged — сменилась цель преследования
type ChaseTargetChanged struct {
	Source    ID
	OldTarget ID
	NewTarget ID
}

func (e ChaseTargetChanged) Kind() EventKind { return EventChaseTargetChanged }
func (e ChaseTargetChanged) SourceID() ID    { return e.Source }

// LocationChanged — существо переместилось (поднимается картой/диспетчером)
type LocationChanged struct {
	Source ID
	From   vec.Location
	To     vec.Location
}

func (e LocationChanged) Kind() EventKind { return EventLocationChanged }
func (e LocationChanged) SourceID() ID    { return e.Source }

// Death — здоровье опустилось до нуля
type Death struct {
	Source ID
}

func (e Death) Kind() EventKind { return EventDeath }
func (e Death) SourceID() ID    { return e.Source }

// AwarenessChanged — переход восприятия пары существ (sensed/seen/lost)
type AwarenessChanged struct {
	Source ID
	Other  ID
	Level  Awareness
	kind   EventKind
}

func (e AwarenessChanged) Kind() EventKind { return e.kind }
func (e AwarenessChanged) SourceID() ID    { return e.Source }
