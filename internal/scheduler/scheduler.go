package scheduler

import (
	"container/heap"
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/annel0/worldsim/internal/logging"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Scheduler — упорядоченная по времени очередь событий.
// Производителей много (обработчики запросов, фоновые циклы, реакции), потребитель один:
// Run/FireDue выполняют события строго по одному, сериализуя все изменения мира.
type Scheduler struct {
	clock Clock

	mu    sync.Mutex
	queue eventQueue
	byID  map[uuid.UUID]*queuedEvent
	seq   uint64

	wake chan struct{} // сигнал о появлении более раннего события

	metrics *Metrics
	logger  *logging.Logger
	tracer  trace.Tracer
}

// Option настраивает планировщик
type Option func(*Scheduler)

// WithMetrics подключает Prometheus-метрики
func WithMetrics(m *Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// WithLogger задаёт логгер
func WithLogger(l *logging.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithTracer включает span на каждое выполненное событие
func WithTracer(t trace.Tracer) Option {
	return func(s *Scheduler) { s.tracer = t }
}

// New создаёт планировщик. clock == nil — используется системное время.
func New(clock Clock, opts ...Option) *Scheduler {
	if clock == nil {
		clock = SystemClock{}
	}

	s := &Scheduler{
		clock:  clock,
		byID:   make(map[uuid.UUID]*queuedEvent),
		wake:   make(chan struct{}, 1),
		logger: logging.GetSchedulerLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Clock возвращает часы планировщика
func (s *Scheduler) Clock() Clock {
	return s.clock
}

// Schedule ставит событие на now+max(delay,0) и возвращает время срабатывания.
// Повторная постановка того же события переносит его.
func (s *Scheduler) Schedule(ev Event, delay time.Duration) time.Time {
	if ev == nil {
		panic("scheduler: nil event")
	}
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	fireAt := s.clock.Now().Add(delay)

	item, exists := s.byID[ev.ID()]
	if exists {
		item.fireAt = fireAt
		heap.Fix(&s.queue, item.index)
	} else {
		s.seq++
		item = &queuedEvent{event: ev, fireAt: fireAt, seq: s.seq}
		heap.Push(&s.queue, item)
		s.byID[ev.ID()] = item
	}
	isHead := s.queue.peek() == item
	pending := len(s.queue)
	s.mu.Unlock()

	s.metrics.onScheduled(ev, pending)
	if isHead {
		s.signal()
	}
	return fireAt
}

// Cancel удаляет одно ожидающее событие
func (s *Scheduler) Cancel(id uuid.UUID) bool {
	s.mu.Lock()
	item, exists := s.byID[id]
	if exists {
		heap.Remove(&s.queue, item.index)
		delete(s.byID, id)
	}
	pending := len(s.queue)
	s.mu.Unlock()

	if exists {
		s.metrics.onCancelled(1, pending)
	}
	return exists
}

// CancelAllFor удаляет все ещё не сработавшие события владельца указанного типа.
// Возвращает количество отменённых событий.
func (s *Scheduler) CancelAllFor(ownerID uint32, kind string) int {
	s.mu.Lock()
	var matched []*queuedEvent
	for _, item := range s.queue {
		if item.event.OwnerID() == ownerID && item.event.Kind() == kind {
			matched = append(matched, item)
		}
	}
	for _, item := range matched {
		heap.Remove(&s.queue, item.index)
		delete(s.byID, item.event.ID())
	}
	pending := len(s.queue)
	s.mu.Unlock()

	s.metrics.onCancelled(len(matched), pending)
	return len(matched)
}

// CancelAllForOwner удаляет все ожидающие события владельца независимо от типа
func (s *Scheduler) CancelAllForOwner(ownerID uint32) int {
	s.mu.Lock()
	var matched []*queuedEvent
	for _, item := range s.queue {
		if item.event.OwnerID() == ownerID {
			matched = append(matched, item)
		}
	}
	for _, item := range matched {
		heap.Remove(&s.queue, item.index)
		delete(s.byID, item.event.ID())
	}
	pending := len(s.queue)
	s.mu.Unlock()

	s.metrics.onCancelled(len(matched), pending)
	return len(matched)
}

// Expedite переносит ожидающее событие на текущий момент.
// Порядок постановки сохраняется, поэтому среди равных fireAt событие не обгоняет более старые.
func (s *Scheduler) Expedite(id uuid.UUID) bool {
	s.mu.Lock()
	item, exists := s.byID[id]
	if exists {
		now := s.clock.Now()
		if item.fireAt.After(now) {
			item.fireAt = now
			heap.Fix(&s.queue, item.index)
		}
	}
	s.mu.Unlock()

	if exists {
		s.signal()
	}
	return exists
}

// FireTime возвращает запланированное время срабатывания события
func (s *Scheduler) FireTime(id uuid.UUID) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.byID[id]
	if !exists {
		return time.Time{}, false
	}
	return item.fireAt, true
}

// IsPending проверяет, ожидает ли событие срабатывания
func (s *Scheduler) IsPending(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.byID[id]
	return exists
}

// Pending возвращает количество ожидающих событий
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// PendingFor возвращает ожидающие события владельца указанного типа в порядке срабатывания
func (s *Scheduler) PendingFor(ownerID uint32, kind string) []Event {
	s.mu.Lock()
	var items []*queuedEvent
	for _, item := range s.queue {
		if item.event.OwnerID() == ownerID && item.event.Kind() == kind {
			items = append(items, item)
		}
	}
	s.mu.Unlock()

	sortQueued(items)
	events := make([]Event, len(items))
	for i, item := range items {
		events[i] = item.event
	}
	return events
}

// PendingOfKind возвращает все ожидающие события указанного типа
func (s *Scheduler) PendingOfKind(kind string) []Event {
	s.mu.Lock()
	var items []*queuedEvent
	for _, item := range s.queue {
		if item.event.Kind() == kind {
			items = append(items, item)
		}
	}
	s.mu.Unlock()

	sortQueued(items)
	events := make([]Event, len(items))
	for i, item := range items {
		events[i] = item.event
	}
	return events
}

// FireDue выполняет все события, срок которых наступил к clock.Now().
// События, поставленные обработчиком с нулевой задержкой, выполняются в этом же проходе.
func (s *Scheduler) FireDue(ctx context.Context, handler Handler) int {
	fired := 0
	for ctx.Err() == nil {
		s.mu.Lock()
		head := s.queue.peek()
		now := s.clock.Now()
		if head == nil || head.fireAt.After(now) {
			s.mu.Unlock()
			return fired
		}
		heap.Pop(&s.queue)
		delete(s.byID, head.event.ID())
		pending := len(s.queue)
		s.mu.Unlock()

		failed := s.fire(ctx, handler, head.event)
		s.metrics.onFired(head.event, now.Sub(head.fireAt).Seconds(), pending, failed)
		fired++
	}
	return fired
}

// Run — единственный потребитель очереди. Ждёт ближайшего события, сигнала о более раннем
// событии или отмены контекста. Возвращает ctx.Err() при остановке.
func (s *Scheduler) Run(ctx context.Context, handler Handler) error {
	s.logger.Info("⏱️ Планировщик запущен")
	defer s.logger.Info("⏱️ Планировщик остановлен")

	for {
		s.FireDue(ctx, handler)
		if err := ctx.Err(); err != nil {
			return err
		}

		wait, hasNext := s.nextWait()
		if !hasNext {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-s.wake:
			}
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-s.wake:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// fire выполняет событие, перехватывая ошибки и паники. Возвращает true при сбое.
func (s *Scheduler) fire(ctx context.Context, handler Handler, ev Event) (failed bool) {
	var span trace.Span
	if s.tracer != nil && !ev.ExcludeFromTelemetry() {
		ctx, span = s.tracer.Start(ctx, "event."+ev.Kind(),
			trace.WithAttributes(
				attribute.String("event.id", ev.ID().String()),
				attribute.Int64("event.owner", int64(ev.OwnerID())),
			))
		defer span.End()
	}

	defer func() {
		if r := recover(); r != nil {
			failed = true
			err := fmt.Errorf("panic: %v", r)
			s.logger.Error("❌ Паника при выполнении события %s (%s, владелец %d): %v\n%s",
				ev.ID(), ev.Kind(), ev.OwnerID(), r, debug.Stack())
			if span != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
		}
	}()

	if err := handler(ctx, ev); err != nil {
		s.logger.Error("❌ Ошибка выполнения события %s (%s, владелец %d): %v",
			ev.ID(), ev.Kind(), ev.OwnerID(), err)
		if span != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return true
	}
	return false
}

func (s *Scheduler) nextWait() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	head := s.queue.peek()
	if head == nil {
		return 0, false
	}
	wait := head.fireAt.Sub(s.clock.Now())
	if wait < 0 {
		wait = 0
	}
	return wait, true
}

func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func sortQueued(items []*queuedEvent) {
	q := eventQueue(items)
	// сортировка вставками: списки владельца короткие
	for i := 1; i < len(q); i++ {
		for j := i; j > 0 && q.Less(j, j-1); j-- {
			q[j], q[j-1] = q[j-1], q[j]
		}
	}
}
