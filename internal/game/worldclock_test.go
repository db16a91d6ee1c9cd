package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWorldClock_LightCycle(t *testing.T) {
	epoch := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	// игровой час длится одну минуту
	w := NewWorldClock(24*time.Minute, epoch)
	at := func(hour, minute int) time.Time {
		return epoch.Add(time.Duration(hour)*time.Minute + time.Duration(minute)*time.Second)
	}

	cases := []struct {
		name   string
		at     time.Time
		expect byte
	}{
		{"полночь", at(0, 0), NightLight},
		{"начало рассвета", at(dawnHour, 0), NightLight},
		{"середина рассвета", at(dawnHour, 30), NightLight + (DayLight-NightLight)/2},
		{"полдень", at(12, 0), DayLight},
		{"середина заката", at(duskHour, 30), DayLight - (DayLight-NightLight)/2},
		{"поздний вечер", at(22, 0), NightLight},
		{"следующие сутки", at(24+12, 0), DayLight},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, w.LightAt(tc.at))
		})
	}

	hour, minute := w.TimeOfDay(at(13, 45))
	assert.Equal(t, 13, hour)
	assert.Equal(t, 45, minute)
}

func TestWorldClock_UpdateReportsChanges(t *testing.T) {
	epoch := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	w := NewWorldClock(24*time.Minute, epoch)

	level, color := w.Current()
	assert.Equal(t, NightLight, level)
	assert.Equal(t, LightColor, color)

	_, changed := w.Update(epoch.Add(time.Minute))
	assert.False(t, changed, "Ночью свет не меняется")

	level, changed = w.Update(epoch.Add(12 * time.Minute))
	assert.True(t, changed)
	assert.Equal(t, DayLight, level)
}
