package eventbus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Типы доменных событий мира
const (
	TypePlayerLogin   = "player.login"
	TypePlayerLogout  = "player.logout"
	TypeCreatureDeath = "creature.death"
	TypeBroadcast     = "world.broadcast"
)

// Приоритеты: ниже 5 событие может быть отброшено при переполнении
const (
	PriorityLow    = 1
	PriorityNormal = 5
	PriorityHigh   = 9
)

// PlayerSession — вход или выход игрока
type PlayerSession struct {
	CharacterID string `json:"character_id"`
	Name        string `json:"name"`
	X           int    `json:"x"`
	Y           int    `json:"y"`
	Z           int8   `json:"z"`
	Reason      string `json:"reason,omitempty"`
}

// CreatureDeath — смерть существа и распределение урона
type CreatureDeath struct {
	CreatureID uint32           `json:"creature_id"`
	Name       string           `json:"name"`
	Kind       string           `json:"kind"`
	X          int              `json:"x"`
	Y          int              `json:"y"`
	Z          int8             `json:"z"`
	Damage     map[uint32]int   `json:"damage,omitempty"`
	Experience map[uint32]int64 `json:"experience,omitempty"`
}

// Broadcast — серверное сообщение всем игрокам
type Broadcast struct {
	Text   string `json:"text"`
	Author string `json:"author,omitempty"`
}

// NewEnvelope упаковывает payload в JSON-конверт с новым UUID
func NewEnvelope(source, eventType string, priority int, payload interface{}) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации %s: %w", eventType, err)
	}
	return &Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    source,
		EventType: eventType,
		Version:   1,
		Priority:  priority,
		Payload:   data,
		Metadata:  map[string]string{},
	}, nil
}

// Decode разбирает полезную нагрузку конверта
func (e *Envelope) Decode(v interface{}) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("ошибка разбора %s: %w", e.EventType, err)
	}
	return nil
}
