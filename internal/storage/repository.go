package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/annel0/worldsim/internal/creature"
	"github.com/annel0/worldsim/internal/vec"
)

var (
	// ErrCharacterNotFound — персонаж с таким именем не существует
	ErrCharacterNotFound = errors.New("character not found")
	// ErrMonsterTypeNotFound — раса монстра не найдена
	ErrMonsterTypeNotFound = errors.New("monster type not found")
	// ErrUnitOfWorkClosed — Complete или Rollback уже вызывались
	ErrUnitOfWorkClosed = errors.New("unit of work already closed")
)

// CharacterEntity — сохранённый персонаж. Навыки хранятся накопленными счётчиками.
type CharacterEntity struct {
	ID           string
	AccountID    string
	Name         string
	PasswordHash string
	Profession   creature.Profession
	Premium      bool
	Outfit       creature.Outfit
	Location     vec.Location
	Health       int
	Mana         int
	Capacity     int
	Skills       map[creature.SkillType]int64
	FightMode    creature.FightMode
	ChaseMode    creature.ChaseMode
	LastLogin    time.Time
}

// NormalizeName приводит имя к ключу поиска (без регистра и пробелов по краям)
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ToRecord превращает сущность в запись для фабрики существ
func (e *CharacterEntity) ToRecord() creature.PlayerRecord {
	skills := make(map[creature.SkillType]int64, len(e.Skills))
	for t, c := range e.Skills {
		skills[t] = c
	}
	return creature.PlayerRecord{
		CharacterID: e.ID,
		AccountID:   e.AccountID,
		Name:        e.Name,
		Profession:  e.Profession,
		Premium:     e.Premium,
		Outfit:      e.Outfit,
		Location:    e.Location,
		Health:      e.Health,
		Mana:        e.Mana,
		Capacity:    e.Capacity,
		Skills:      skills,
		FightMode:   e.FightMode,
		ChaseMode:   e.ChaseMode,
	}
}

// CaptureFrom переносит в сущность текущее состояние игрока
func (e *CharacterEntity) CaptureFrom(c *creature.Combatant, loc vec.Location) {
	e.Location = loc
	e.Outfit = c.Outfit()
	e.FightMode = c.FightMode()
	e.ChaseMode = c.ChaseMode()
	if st := c.Stat(creature.StatHealth); st != nil {
		e.Health = st.Current()
	}
	if st := c.Stat(creature.StatMana); st != nil {
		e.Mana = st.Current()
	}
	if st := c.Stat(creature.StatCarryCapacity); st != nil {
		e.Capacity = st.Current()
	}
	if e.Skills == nil {
		e.Skills = make(map[creature.SkillType]int64)
	}
	for t := creature.SkillExperience; t <= creature.SkillFishing; t++ {
		if s := c.Skill(t); s != nil {
			e.Skills[t] = s.Count
		}
	}
}

// Clone возвращает независимую копию
func (e *CharacterEntity) Clone() *CharacterEntity {
	cp := *e
	cp.Skills = make(map[creature.SkillType]int64, len(e.Skills))
	for t, c := range e.Skills {
		cp.Skills[t] = c
	}
	return &cp
}

// CharacterRepository — доступ к персонажам
type CharacterRepository interface {
	FindCharacterByName(ctx context.Context, name string) (*CharacterEntity, error)
	SaveCharacter(ctx context.Context, ch *CharacterEntity) error
}

// MonsterTypeRepository — доступ к расам монстров
type MonsterTypeRepository interface {
	GetMonsterTypeByRace(ctx context.Context, race uint16) (*creature.MonsterType, error)
}

// UnitOfWork группирует изменения. Ровно один из Complete/Rollback завершает его.
type UnitOfWork interface {
	Characters() CharacterRepository
	MonsterTypes() MonsterTypeRepository
	Complete() error
	Rollback() error
}

// Store открывает единицы работы
type Store interface {
	Begin(ctx context.Context) (UnitOfWork, error)
	Close() error
}

// Presence — множество игроков онлайн, видимое другим сервисам
type Presence interface {
	SetOnline(ctx context.Context, name string) error
	SetOffline(ctx context.Context, name string) error
	Count(ctx context.Context) (int64, error)
}
