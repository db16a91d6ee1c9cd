package game

import (
	"sync"
	"time"
)

// Уровни освещённости и цвет света
const (
	DayLight   byte = 250
	NightLight byte = 40
	LightColor byte = 0xD7
)

// Часы рассвета и заката. Свет меняется линейно в течение часа.
const (
	dawnHour = 6
	duskHour = 19
)

// WorldClock — игровые сутки, сжатые в dayLength реального времени
type WorldClock struct {
	mu        sync.Mutex
	dayLength time.Duration
	epoch     time.Time
	level     byte
}

// NewWorldClock создаёт часы; epoch соответствует полуночи игровых суток
func NewWorldClock(dayLength time.Duration, epoch time.Time) *WorldClock {
	if dayLength <= 0 {
		dayLength = time.Hour
	}
	w := &WorldClock{dayLength: dayLength, epoch: epoch}
	w.level = w.LightAt(epoch)
	return w
}

// TimeOfDay возвращает игровые часы и минуты в момент now
func (w *WorldClock) TimeOfDay(now time.Time) (hour, minute int) {
	elapsed := now.Sub(w.epoch) % w.dayLength
	if elapsed < 0 {
		elapsed += w.dayLength
	}
	minutes := int(elapsed * 24 * 60 / w.dayLength)
	return minutes / 60, minutes % 60
}

// LightAt — освещённость в момент now
func (w *WorldClock) LightAt(now time.Time) byte {
	hour, minute := w.TimeOfDay(now)
	span := int(DayLight) - int(NightLight)
	switch {
	case hour == dawnHour:
		return NightLight + byte(span*minute/60)
	case hour > dawnHour && hour < duskHour:
		return DayLight
	case hour == duskHour:
		return DayLight - byte(span*minute/60)
	default:
		return NightLight
	}
}

// Update пересчитывает освещённость. changed — уровень отличается от прошлого вызова.
func (w *WorldClock) Update(now time.Time) (level byte, changed bool) {
	level = w.LightAt(now)
	w.mu.Lock()
	defer w.mu.Unlock()
	changed = level != w.level
	w.level = level
	return level, changed
}

// Current — последний рассчитанный уровень и цвет света
func (w *WorldClock) Current() (level, color byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.level, LightColor
}
