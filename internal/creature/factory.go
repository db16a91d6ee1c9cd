package creature

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/annel0/worldsim/internal/vec"
)

// ErrInvalidDefinition — статические данные существа не проходят проверку
var ErrInvalidDefinition = errors.New("invalid creature definition")

func errInvalid(field string) error {
	return fmt.Errorf("%w: %s", ErrInvalidDefinition, field)
}

// PlayerRecord — сохранённое состояние персонажа, из которого строится игрок
type PlayerRecord struct {
	CharacterID string
	AccountID   string
	Name        string
	Profession  Profession
	Premium     bool
	Outfit      Outfit
	Location    vec.Location
	Health      int
	Mana        int
	Capacity    int
	Skills      map[SkillType]int64
	FightMode   FightMode
	ChaseMode   ChaseMode
}

// LevelGains — прирост характеристик за уровень для класса
type LevelGains struct {
	Health   int
	Mana     int
	Capacity int
}

// GainsFor возвращает прирост характеристик для класса
func GainsFor(p Profession) LevelGains {
	switch p {
	case ProfessionKnight:
		return LevelGains{Health: 15, Mana: 5, Capacity: 25}
	case ProfessionPaladin:
		return LevelGains{Health: 10, Mana: 15, Capacity: 20}
	case ProfessionSorcerer, ProfessionDruid:
		return LevelGains{Health: 5, Mana: 30, Capacity: 10}
	default:
		return LevelGains{Health: 5, Mana: 5, Capacity: 10}
	}
}

// Максимумы характеристик игрока на уровне level
func MaxHealthAt(p Profession, level int) int   { return 150 + GainsFor(p).Health*(level-1) }
func MaxManaAt(p Profession, level int) int     { return 50 + GainsFor(p).Mana*(level-1) }
func MaxCapacityAt(p Profession, level int) int { return 400 + GainsFor(p).Capacity*(level-1) }

// BaseSpeedAt — базовая скорость игрока на уровне level
func BaseSpeedAt(level int) int { return 220 + 2*(level-1) }

// Factory строит существ из статических данных. Существо ещё не в мире:
// его допускает game.PlaceCreature.
type Factory struct {
	formula ProgressionFormula
	rng     *rand.Rand
}

// NewFactory создаёт фабрику. nil formula — DefaultProgression, nil rng — недетерминированный источник.
func NewFactory(formula ProgressionFormula, rng *rand.Rand) *Factory {
	if formula == nil {
		formula = DefaultProgression
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Factory{formula: formula, rng: rng}
}

// playerSkills — навыки, которые есть у каждого игрока
var playerSkills = []SkillType{
	SkillExperience, SkillMagic, SkillFist, SkillClub, SkillSword,
	SkillAxe, SkillDistance, SkillShield, SkillFishing,
}

// NewPlayer строит игрока из сохранённой записи
func (f *Factory) NewPlayer(rec PlayerRecord) (*Combatant, error) {
	if rec.Name == "" {
		return nil, errInvalid("name")
	}

	c := newCombatant(KindPlayer, rec.Name, "", f.rng)
	c.outfit = rec.Outfit
	c.player = NewPlayerState(rec.CharacterID, rec.Profession)
	c.player.AccountID = rec.AccountID
	c.player.Premium = rec.Premium
	c.player.Home = rec.Location
	if rec.FightMode != 0 {
		c.fightMode = rec.FightMode
	}
	c.chaseMode = rec.ChaseMode

	for _, t := range playerSkills {
		count := rec.Skills[t]
		level := levelForCount(t, count, rec.Profession, f.formula)
		c.AddSkill(NewSkill(t, level, count, rec.Profession, f.formula))
	}

	level := c.skills[SkillExperience].Level
	health := rec.Health
	if health <= 0 {
		health = MaxHealthAt(rec.Profession, level)
	}
	mana := rec.Mana
	if mana < 0 {
		mana = 0
	}
	capacity := rec.Capacity
	if capacity <= 0 {
		capacity = MaxCapacityAt(rec.Profession, level)
	}

	c.AddStat(NewStat(StatHealth, health, MaxHealthAt(rec.Profession, level)))
	c.AddStat(NewStat(StatMana, mana, MaxManaAt(rec.Profession, level)))
	c.AddStat(NewStat(StatCarryCapacity, capacity, MaxCapacityAt(rec.Profession, level)))
	c.AddStat(NewStat(StatBaseSpeed, BaseSpeedAt(level), MaxSpeed))
	return c, nil
}

// NewMonster строит монстра по типу из каталога
func (f *Factory) NewMonster(mt *MonsterType) (*Combatant, error) {
	if mt == nil {
		return nil, errInvalid("monster type")
	}
	if err := mt.Validate(); err != nil {
		return nil, err
	}

	c := newCombatant(KindMonster, mt.Name, mt.Article, f.rng)
	c.outfit = mt.Outfit
	c.monsterDef = mt
	c.blood = mt.Blood
	c.armor = mt.Armor
	c.defense = mt.Defense
	c.attack = mt.Attack
	c.chaseMode = ChaseFollow
	c.SetAttackRange(mt.AttackRange)

	for t, level := range mt.Skills {
		c.AddSkill(NewSkill(t, level, f.formula(t, level-1, ProfessionNone), ProfessionNone, f.formula))
	}

	c.AddStat(NewStat(StatHealth, mt.MaxHealth, mt.MaxHealth))
	c.AddStat(NewStat(StatBaseSpeed, mt.BaseSpeed, MaxSpeed))
	return c, nil
}

// levelForCount восстанавливает уровень по накопленному счётчику
func levelForCount(t SkillType, count int64, p Profession, formula ProgressionFormula) int {
	level := baseLevel(t)
	for i := 0; i < 1000; i++ {
		target := formula(t, level, p)
		if count < target {
			break
		}
		if next := formula(t, level+1, p); next <= target {
			break
		}
		level++
	}
	return level
}
