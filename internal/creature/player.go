package creature

import (
	"slices"

	"github.com/annel0/worldsim/internal/items"
	"github.com/annel0/worldsim/internal/vec"
)

// KnownCreaturesLimit — сколько существ клиент держит в своём кэше
const KnownCreaturesLimit = 150

// KnownCreatures — кэш существ, о которых клиент уже получил полное описание.
// При переполнении вытесняется самое старое.
type KnownCreatures struct {
	order []ID
	set   map[ID]struct{}
	limit int
}

// NewKnownCreatures создаёт кэш с заданной ёмкостью
func NewKnownCreatures(limit int) *KnownCreatures {
	if limit <= 0 {
		limit = KnownCreaturesLimit
	}
	return &KnownCreatures{set: make(map[ID]struct{}), limit: limit}
}

// Learn отмечает существо известным. known — было ли оно известно раньше,
// evicted — вытесненный идентификатор (NoID, если место было).
func (k *KnownCreatures) Learn(id ID) (known bool, evicted ID) {
	if _, ok := k.set[id]; ok {
		return true, NoID
	}
	if len(k.order) >= k.limit {
		evicted = k.order[0]
		k.order = k.order[1:]
		delete(k.set, evicted)
	}
	k.set[id] = struct{}{}
	k.order = append(k.order, id)
	return false, evicted
}

// Forget удаляет существо из кэша
func (k *KnownCreatures) Forget(id ID) {
	if _, ok := k.set[id]; !ok {
		return
	}
	delete(k.set, id)
	if i := slices.Index(k.order, id); i >= 0 {
		k.order = slices.Delete(k.order, i, i+1)
	}
}

// Len — число известных существ
func (k *KnownCreatures) Len() int { return len(k.order) }

// OpenContainer — контейнер, открытый игроком
type OpenContainer struct {
	ItemID   items.ID
	Location vec.Location
}

// PlayerState — данные, которые есть только у игроков
type PlayerState struct {
	CharacterID  string
	AccountID    string
	Profession   Profession
	Premium      bool
	ConnectionID string
	Home         vec.Location

	Known      *KnownCreatures
	containers map[uint8]OpenContainer
}

// NewPlayerState создаёт пустое состояние игрока
func NewPlayerState(characterID string, profession Profession) *PlayerState {
	return &PlayerState{
		CharacterID: characterID,
		Profession:  profession,
		Known:       NewKnownCreatures(KnownCreaturesLimit),
		containers:  make(map[uint8]OpenContainer),
	}
}

// OpenContainer запоминает открытый контейнер в слоте slot
func (p *PlayerState) OpenContainer(slot uint8, c OpenContainer) {
	p.containers[slot] = c
}

// CloseContainer закрывает слот
func (p *PlayerState) CloseContainer(slot uint8) bool {
	if _, ok := p.containers[slot]; !ok {
		return false
	}
	delete(p.containers, slot)
	return true
}

// ContainersFartherThan возвращает слоты контейнеров дальше dist от loc, по возрастанию
func (p *PlayerState) ContainersFartherThan(loc vec.Location, dist int) []uint8 {
	var slots []uint8
	for slot, c := range p.containers {
		d := loc.DistanceTo(c.Location)
		if d < 0 || d > dist {
			slots = append(slots, slot)
		}
	}
	slices.Sort(slots)
	return slots
}

// OpenContainers — число открытых контейнеров
func (p *PlayerState) OpenContainers() int { return len(p.containers) }
