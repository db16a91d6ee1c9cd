package scheduler

import (
	"sync"
	"time"
)

// Clock — источник игрового времени
type Clock interface {
	Now() time.Time
}

// SystemClock — реальное время процесса
type SystemClock struct{}

// Now возвращает текущее время
func (SystemClock) Now() time.Time { return time.Now() }

// ManualClock — управляемые часы для тестов и детерминированных прогонов
type ManualClock struct {
	mu  sync.RWMutex
	now time.Time
}

// NewManualClock создаёт часы, остановленные на start
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now возвращает текущее значение часов
func (c *ManualClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Advance сдвигает часы вперёд на d
func (c *ManualClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// Set устанавливает часы на t
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}
