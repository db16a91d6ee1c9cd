package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/annel0/worldsim/internal/creature"
)

// MemoryStore реализует Store в памяти.
// Используется как fallback, когда MariaDB недоступна,
// или для CI/локальной разработки без БД.
// ВНИМАНИЕ: Данные теряются при перезапуске сервера!
type MemoryStore struct {
	mu         sync.RWMutex
	characters map[string]*CharacterEntity // нормализованное имя -> персонаж
	monsters   MonsterTypeRepository
}

// NewMemoryStore создаёт хранилище. monsters может быть nil — тогда расы не находятся.
func NewMemoryStore(monsters MonsterTypeRepository) *MemoryStore {
	return &MemoryStore{
		characters: make(map[string]*CharacterEntity),
		monsters:   monsters,
	}
}

// Seed добавляет персонажа напрямую, минуя единицу работы (начальные данные, тесты)
func (s *MemoryStore) Seed(ch *CharacterEntity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.characters[NormalizeName(ch.Name)] = ch.Clone()
}

// Len — число сохранённых персонажей
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.characters)
}

// Begin открывает единицу работы. Изменения видны другим только после Complete.
func (s *MemoryStore) Begin(ctx context.Context) (UnitOfWork, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return &memoryUnitOfWork{store: s, staged: make(map[string]*CharacterEntity)}, nil
}

// Close ничего не делает
func (s *MemoryStore) Close() error { return nil }

type memoryUnitOfWork struct {
	store  *MemoryStore
	staged map[string]*CharacterEntity
	closed bool
}

func (u *memoryUnitOfWork) Characters() CharacterRepository { return (*memoryCharacters)(u) }

func (u *memoryUnitOfWork) MonsterTypes() MonsterTypeRepository {
	if u.store.monsters == nil {
		return noMonsterTypes{}
	}
	return u.store.monsters
}

func (u *memoryUnitOfWork) Complete() error {
	if u.closed {
		return ErrUnitOfWorkClosed
	}
	u.closed = true

	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	for key, ch := range u.staged {
		u.store.characters[key] = ch
	}
	return nil
}

func (u *memoryUnitOfWork) Rollback() error {
	if u.closed {
		return ErrUnitOfWorkClosed
	}
	u.closed = true
	u.staged = nil
	return nil
}

// memoryCharacters — репозиторий персонажей поверх единицы работы
type memoryCharacters memoryUnitOfWork

func (r *memoryCharacters) FindCharacterByName(ctx context.Context, name string) (*CharacterEntity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := NormalizeName(name)
	if ch, ok := r.staged[key]; ok {
		return ch.Clone(), nil
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	ch, ok := r.store.characters[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCharacterNotFound, name)
	}
	return ch.Clone(), nil
}

func (r *memoryCharacters) SaveCharacter(ctx context.Context, ch *CharacterEntity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.closed {
		return ErrUnitOfWorkClosed
	}
	if ch == nil || NormalizeName(ch.Name) == "" {
		return fmt.Errorf("недействительный персонаж")
	}
	r.staged[NormalizeName(ch.Name)] = ch.Clone()
	return nil
}

// noMonsterTypes — репозиторий без рас
type noMonsterTypes struct{}

func (noMonsterTypes) GetMonsterTypeByRace(_ context.Context, race uint16) (*creature.MonsterType, error) {
	return nil, fmt.Errorf("%w: %d", ErrMonsterTypeNotFound, race)
}
