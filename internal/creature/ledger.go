package creature

import (
	"slices"
	"sync"
)

// DamageLedger — урон, полученный за сессию, по атакующим.
// Пишется из каскада реакций, поэтому защищён собственным мьютексом.
type DamageLedger struct {
	mu         sync.Mutex
	byAttacker map[ID]int
}

// NewDamageLedger создаёт пустой журнал урона
func NewDamageLedger() *DamageLedger {
	return &DamageLedger{byAttacker: make(map[ID]int)}
}

// Add увеличивает урон атакующего
func (l *DamageLedger) Add(attacker ID, amount int) {
	if attacker == NoID || amount <= 0 {
		return
	}
	l.mu.Lock()
	l.byAttacker[attacker] += amount
	l.mu.Unlock()
}

// Get возвращает суммарный урон атакующего
func (l *DamageLedger) Get(attacker ID) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.byAttacker[attacker]
}

// Total — весь записанный урон
func (l *DamageLedger) Total() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	total := 0
	for _, v := range l.byAttacker {
		total += v
	}
	return total
}

// Snapshot возвращает копию журнала
func (l *DamageLedger) Snapshot() map[ID]int {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[ID]int, len(l.byAttacker))
	for k, v := range l.byAttacker {
		out[k] = v
	}
	return out
}

// Forget удаляет атакующего из журнала
func (l *DamageLedger) Forget(attacker ID) {
	l.mu.Lock()
	delete(l.byAttacker, attacker)
	l.mu.Unlock()
}

// Reset очищает журнал
func (l *DamageLedger) Reset() {
	l.mu.Lock()
	l.byAttacker = make(map[ID]int)
	l.mu.Unlock()
}

// HostileSet — враждебные существа в порядке появления
type HostileSet struct {
	mu    sync.Mutex
	order []ID
	index map[ID]struct{}
}

// NewHostileSet создаёт пустое множество
func NewHostileSet() *HostileSet {
	return &HostileSet{index: make(map[ID]struct{})}
}

// Add добавляет существо. Возвращает false, если оно уже есть.
func (h *HostileSet) Add(id ID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.index[id]; ok {
		return false
	}
	h.index[id] = struct{}{}
	h.order = append(h.order, id)
	return true
}

// Remove удаляет существо
func (h *HostileSet) Remove(id ID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.index[id]; !ok {
		return false
	}
	delete(h.index, id)
	if i := slices.Index(h.order, id); i >= 0 {
		h.order = slices.Delete(h.order, i, i+1)
	}
	return true
}

// Contains сообщает, враждебно ли существо
func (h *HostileSet) Contains(id ID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.index[id]
	return ok
}

// First возвращает самое раннее из оставшихся враждебных существ
func (h *HostileSet) First() (ID, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.order) == 0 {
		return NoID, false
	}
	return h.order[0], true
}

// Len — размер множества
func (h *HostileSet) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.order)
}

// IDs возвращает копию в порядке появления
func (h *HostileSet) IDs() []ID {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.order)
}
