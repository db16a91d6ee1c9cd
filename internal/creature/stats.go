package creature

// StatType — характеристика существа
type StatType uint8

const (
	StatHealth StatType = iota
	StatMana
	StatCarryCapacity
	StatBaseSpeed
)

// String возвращает имя характеристики
func (s StatType) String() string {
	switch s {
	case StatHealth:
		return "health"
	case StatMana:
		return "mana"
	case StatCarryCapacity:
		return "capacity"
	case StatBaseSpeed:
		return "base_speed"
	default:
		return "unknown"
	}
}

// Stat — текущее/максимальное значение с процентом и уведомлением об изменении
type Stat struct {
	Type     StatType
	current  int
	maximum  int
	onChange func(st *Stat, oldValue, oldPercent int)
}

// NewStat создаёт характеристику. current ограничивается [0, maximum].
func NewStat(t StatType, current, maximum int) *Stat {
	if maximum < 0 {
		maximum = 0
	}
	return &Stat{Type: t, current: clamp(current, 0, maximum), maximum: maximum}
}

func (s *Stat) Current() int { return s.current }
func (s *Stat) Maximum() int { return s.maximum }

// Percent возвращает текущее значение в процентах от максимума, всегда в [0, 100]
func (s *Stat) Percent() int {
	if s.maximum <= 0 {
		return 0
	}
	return clamp(s.current*100/s.maximum, 0, 100)
}

// Increase увеличивает значение, не превышая максимум. Возвращает фактическое изменение.
func (s *Stat) Increase(n int) int {
	if n <= 0 {
		return 0
	}
	return s.Set(s.current + n)
}

// Decrease уменьшает значение, не опускаясь ниже нуля. Возвращает фактическое изменение.
func (s *Stat) Decrease(n int) int {
	if n <= 0 {
		return 0
	}
	return -s.Set(s.current - n)
}

// Set устанавливает значение с ограничением [0, maximum] и возвращает изменение
func (s *Stat) Set(v int) int {
	v = clamp(v, 0, s.maximum)
	if v == s.current {
		return 0
	}
	oldValue, oldPercent := s.current, s.Percent()
	s.current = v
	s.notify(oldValue, oldPercent)
	return v - oldValue
}

// SetMaximum меняет максимум, текущее значение подрезается при необходимости
func (s *Stat) SetMaximum(m int) {
	if m < 0 {
		m = 0
	}
	if m == s.maximum {
		return
	}
	oldValue, oldPercent := s.current, s.Percent()
	s.maximum = m
	s.current = clamp(s.current, 0, m)
	s.notify(oldValue, oldPercent)
}

func (s *Stat) notify(oldValue, oldPercent int) {
	if s.onChange != nil {
		s.onChange(s, oldValue, oldPercent)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
