package creature

import (
	"sync"
	"time"
)

// ExhaustionType — категория перезарядки действий
type ExhaustionType uint8

const (
	ExhaustionAction ExhaustionType = iota
	ExhaustionMovement
	ExhaustionCombat
	ExhaustionSpeech
)

// String возвращает имя категории
func (e ExhaustionType) String() string {
	switch e {
	case ExhaustionAction:
		return "action"
	case ExhaustionMovement:
		return "movement"
	case ExhaustionCombat:
		return "combat"
	case ExhaustionSpeech:
		return "speech"
	default:
		return "unknown"
	}
}

// Exhaustion — момент готовности существа по каждой категории.
// Читается диспетчером в момент постановки операции.
type Exhaustion struct {
	mu      sync.Mutex
	readyAt map[ExhaustionType]time.Time
}

// NewExhaustion создаёт пустую таблицу перезарядок
func NewExhaustion() *Exhaustion {
	return &Exhaustion{readyAt: make(map[ExhaustionType]time.Time)}
}

// Remaining возвращает остаток перезарядки категории на момент now
func (e *Exhaustion) Remaining(t ExhaustionType, now time.Time) time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()

	ready, ok := e.readyAt[t]
	if !ok || !ready.After(now) {
		return 0
	}
	return ready.Sub(now)
}

// ExtendUntil продлевает перезарядку до until, если она заканчивается раньше
func (e *Exhaustion) ExtendUntil(t ExhaustionType, until time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if current, ok := e.readyAt[t]; !ok || until.After(current) {
		e.readyAt[t] = until
	}
}

// Clear сбрасывает все перезарядки
func (e *Exhaustion) Clear() {
	e.mu.Lock()
	e.readyAt = make(map[ExhaustionType]time.Time)
	e.mu.Unlock()
}
