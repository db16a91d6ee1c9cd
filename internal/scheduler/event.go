package scheduler

import (
	"context"

	"github.com/google/uuid"
)

// Event — единица работы, которую планировщик выполнит в заданный момент времени.
// Kind и OwnerID используются для грубой отмены: CancelAllFor(owner, kind).
type Event interface {
	ID() uuid.UUID
	OwnerID() uint32
	Kind() string
	// ExcludeFromTelemetry исключает событие из метрик и трассировки
	ExcludeFromTelemetry() bool
}

// Handler выполняет сработавшее событие. Вызывается строго по одному.
type Handler func(ctx context.Context, ev Event) error

// BaseEvent — общая часть событий, встраивается в конкретные типы
type BaseEvent struct {
	id               uuid.UUID
	owner            uint32
	kind             string
	excludeTelemetry bool
}

// NewBaseEvent создаёт базовое событие с новым идентификатором
func NewBaseEvent(owner uint32, kind string) BaseEvent {
	return BaseEvent{id: uuid.New(), owner: owner, kind: kind}
}

func (e *BaseEvent) ID() uuid.UUID              { return e.id }
func (e *BaseEvent) OwnerID() uint32            { return e.owner }
func (e *BaseEvent) Kind() string               { return e.kind }
func (e *BaseEvent) ExcludeFromTelemetry() bool { return e.excludeTelemetry }

// SetExcludeFromTelemetry помечает событие как служебное
func (e *BaseEvent) SetExcludeFromTelemetry(v bool) { e.excludeTelemetry = v }
