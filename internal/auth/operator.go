package auth

import (
	"errors"
	"strings"
	"sync"
	"time"
)

// Operator — учётная запись оператора административного API.
// Игровые персонажи хранятся отдельно, в storage.
type Operator struct {
	ID           uint64
	Username     string
	PasswordHash string // bcrypt
	IsAdmin      bool
	CreatedAt    time.Time
	LastLogin    time.Time
}

// OperatorRepository — хранилище операторов
type OperatorRepository interface {
	// GetOperator ищет оператора без учёта регистра; ErrOperatorNotFound, если его нет
	GetOperator(username string) (*Operator, error)
	CreateOperator(username, passwordHash string, isAdmin bool) (*Operator, error)
	// ValidateCredentials проверяет пароль и отмечает время входа
	ValidateCredentials(username, password string) (*Operator, error)
}

var (
	ErrOperatorNotFound   = errors.New("operator not found")
	ErrOperatorExists     = errors.New("operator already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// OperatorSeed — оператор из конфигурации. Пароль задаётся готовым bcrypt-хешем.
type OperatorSeed struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
	Admin        bool   `yaml:"admin"`
}

// MemoryOperatorRepo — потокобезопасное хранилище операторов в памяти.
// Операторов немного, и все они приходят из конфигурации при старте.
type MemoryOperatorRepo struct {
	mu        sync.RWMutex
	operators map[string]*Operator // ключ — имя в нижнем регистре
	nextID    uint64
	now       func() time.Time
}

// NewMemoryOperatorRepo создаёт хранилище и заносит в него операторов из конфигурации
func NewMemoryOperatorRepo(seeds []OperatorSeed) (*MemoryOperatorRepo, error) {
	repo := &MemoryOperatorRepo{
		operators: make(map[string]*Operator),
		nextID:    1,
		now:       time.Now,
	}
	for _, s := range seeds {
		if _, err := repo.CreateOperator(s.Username, s.PasswordHash, s.Admin); err != nil {
			return nil, err
		}
	}
	return repo, nil
}

func (r *MemoryOperatorRepo) GetOperator(username string) (*Operator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.operators[normalize(username)]
	if !ok {
		return nil, ErrOperatorNotFound
	}
	cp := *op
	return &cp, nil
}

func (r *MemoryOperatorRepo) CreateOperator(username, passwordHash string, isAdmin bool) (*Operator, error) {
	key := normalize(username)
	if key == "" {
		return nil, ErrInvalidCredentials
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.operators[key]; exists {
		return nil, ErrOperatorExists
	}

	op := &Operator{
		ID:           r.nextID,
		Username:     strings.TrimSpace(username),
		PasswordHash: passwordHash,
		IsAdmin:      isAdmin,
		CreatedAt:    r.now(),
	}
	r.nextID++
	r.operators[key] = op
	cp := *op
	return &cp, nil
}

func (r *MemoryOperatorRepo) ValidateCredentials(username, password string) (*Operator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	op, ok := r.operators[normalize(username)]
	if !ok || !CheckPassword(op.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	op.LastLogin = r.now()
	cp := *op
	return &cp, nil
}

func normalize(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
