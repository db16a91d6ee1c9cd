package creature

import (
	"errors"
	"math"
)

// ErrNegativeGrant — попытка уменьшить счётчик навыка
var ErrNegativeGrant = errors.New("negative skill grant")

// SkillType — навык существа
type SkillType uint8

const (
	SkillExperience SkillType = iota
	SkillMagic
	SkillFist
	SkillClub
	SkillSword
	SkillAxe
	SkillDistance
	SkillShield
	SkillFishing
)

// String возвращает имя навыка
func (s SkillType) String() string {
	switch s {
	case SkillExperience:
		return "experience"
	case SkillMagic:
		return "magic level"
	case SkillFist:
		return "fist fighting"
	case SkillClub:
		return "club fighting"
	case SkillSword:
		return "sword fighting"
	case SkillAxe:
		return "axe fighting"
	case SkillDistance:
		return "distance fighting"
	case SkillShield:
		return "shielding"
	case SkillFishing:
		return "fishing"
	default:
		return "unknown"
	}
}

// Profession — класс персонажа, влияет на скорость роста навыков
type Profession uint8

const (
	ProfessionNone Profession = iota
	ProfessionKnight
	ProfessionPaladin
	ProfessionSorcerer
	ProfessionDruid
)

// ProgressionFormula возвращает суммарный счётчик, при достижении которого навык
// покидает уровень level
type ProgressionFormula func(skill SkillType, level int, profession Profession) int64

// Skill — уровень, накопленный счётчик и цель для следующего уровня
type Skill struct {
	Type       SkillType
	Level      int
	Count      int64
	StartCount int64
	Target     int64
	LevelStep  int
	MaxLevel   int

	profession Profession
	formula    ProgressionFormula
	onChange   func(ev Event)
}

// NewSkill создаёт навык на уровне level с накопленным счётчиком count
func NewSkill(t SkillType, level int, count int64, profession Profession, formula ProgressionFormula) *Skill {
	if formula == nil {
		formula = DefaultProgression
	}
	s := &Skill{
		Type:       t,
		Level:      level,
		Count:      count,
		LevelStep:  1,
		profession: profession,
		formula:    formula,
	}
	s.Target = formula(t, level, profession)
	if level > baseLevel(t) {
		s.StartCount = formula(t, level-1, profession)
	}
	if s.Count < s.StartCount {
		s.Count = s.StartCount
	}
	return s
}

// Percent возвращает прогресс до следующего уровня в [0, 100]
func (s *Skill) Percent() int {
	width := s.Target - s.StartCount
	if width <= 0 {
		return 0
	}
	p := (s.Count - s.StartCount) * 100 / width
	return int(max(0, min(p, 100)))
}

// AddCount добавляет n к счётчику и переходит через столько границ уровня,
// сколько покрывает новый счётчик. Отрицательное n отклоняется, ноль ничего не меняет.
func (s *Skill) AddCount(n int64) error {
	if n < 0 {
		return ErrNegativeGrant
	}
	if n == 0 {
		return nil
	}

	oldLevel, oldPercent := s.Level, s.Percent()
	s.Count += n

	step := max(s.LevelStep, 1)
	for s.Count >= s.Target {
		if s.MaxLevel > 0 && s.Level+step > s.MaxLevel {
			break
		}
		next := s.formula(s.Type, s.Level+step, s.profession)
		s.Level += step
		s.StartCount = s.Target
		s.Target = next
		if next <= s.StartCount {
			// граница не сдвинулась: уровень взят, дальше цикл не продвинется
			break
		}
	}

	switch {
	case s.Level != oldLevel:
		s.emit(SkillLevelChanged{Skill: s.Type, OldLevel: oldLevel, NewLevel: s.Level})
	case s.Percent() != oldPercent:
		s.emit(SkillPercentChanged{Skill: s.Type, OldPercent: oldPercent, NewPercent: s.Percent()})
	}
	return nil
}

func (s *Skill) emit(ev Event) {
	if s.onChange != nil {
		s.onChange(ev)
	}
}

func baseLevel(t SkillType) int {
	switch t {
	case SkillExperience:
		return 1
	case SkillMagic:
		return 0
	default:
		return 10
	}
}

// DefaultProgression — кубическая кривая опыта и геометрическая для остальных навыков
func DefaultProgression(skill SkillType, level int, profession Profession) int64 {
	switch skill {
	case SkillExperience:
		return experienceForLevel(level + 1)
	case SkillMagic:
		return geometricTotal(1600, magicMultiplier(profession), level+1)
	default:
		return geometricTotal(50, skillMultiplier(skill, profession), level-9)
	}
}

// experienceForLevel — суммарный опыт, необходимый для уровня level
func experienceForLevel(level int) int64 {
	l := int64(level - 1)
	if l <= 0 {
		return 0
	}
	return (50*l*l*l - 150*l*l + 400*l) / 3
}

// geometricTotal — сумма base*m^i для i в [0, steps)
func geometricTotal(base, m float64, steps int) int64 {
	if steps <= 0 {
		return 0
	}
	return int64(base * (math.Pow(m, float64(steps)) - 1) / (m - 1))
}

func magicMultiplier(p Profession) float64 {
	switch p {
	case ProfessionSorcerer, ProfessionDruid:
		return 1.1
	case ProfessionPaladin:
		return 1.4
	case ProfessionKnight:
		return 3.0
	default:
		return 4.0
	}
}

func skillMultiplier(skill SkillType, p Profession) float64 {
	switch skill {
	case SkillFishing:
		return 1.1
	case SkillShield:
		if p == ProfessionKnight || p == ProfessionPaladin {
			return 1.1
		}
		return 1.5
	case SkillDistance:
		if p == ProfessionPaladin {
			return 1.1
		}
		if p == ProfessionKnight {
			return 1.4
		}
		return 2.0
	case SkillFist, SkillClub, SkillSword, SkillAxe:
		if p == ProfessionKnight {
			return 1.1
		}
		if p == ProfessionPaladin {
			return 1.2
		}
		return 2.0
	default:
		return 2.0
	}
}
