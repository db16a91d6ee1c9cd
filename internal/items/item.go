package items

import (
	"fmt"
	"sync/atomic"
)

// MaxStackAmount — максимальное количество в одной стопке
const MaxStackAmount = 100

// ID — стабильный идентификатор экземпляра предмета
type ID uint32

var lastItemID atomic.Uint32

// NewID выдаёт следующий идентификатор предмета
func NewID() ID {
	return ID(lastItemID.Add(1))
}

// Item — экземпляр предмета в мире
type Item struct {
	ID     ID
	Type   *ItemType
	Amount int
	// Content — содержимое контейнера, последний элемент сверху
	Content []*Item
}

// New создаёт предмет. Количество для нестопкуемых всегда 1.
func New(t *ItemType, amount int) (*Item, error) {
	if t == nil {
		return nil, fmt.Errorf("тип предмета не задан")
	}
	if !t.IsStackable() {
		amount = 1
	}
	if amount <= 0 || amount > MaxStackAmount {
		return nil, fmt.Errorf("недопустимое количество %d для %s", amount, t.Name)
	}
	return &Item{ID: NewID(), Type: t, Amount: amount}, nil
}

// BlocksWalk — предмет запрещает проход
func (i *Item) BlocksWalk() bool { return i.Type.Has(FlagBlocksWalk) }

// BlocksSight — предмет перекрывает линию видимости
func (i *Item) BlocksSight() bool { return i.Type.Has(FlagBlocksSight) }

// BlocksPath — поиск пути обходит предмет
func (i *Item) BlocksPath() bool { return i.Type.Has(FlagBlocksPath) || i.BlocksWalk() }

// CanMergeWith проверяет, что other можно добавить в эту стопку
func (i *Item) CanMergeWith(other *Item) bool {
	return other != nil && i.Type.IsStackable() && i.Type == other.Type && i.Amount < MaxStackAmount
}

// Merge переносит в стопку сколько поместится из other и возвращает перенесённое количество.
// Остаток остаётся в other.
func (i *Item) Merge(other *Item) int {
	if !i.CanMergeWith(other) {
		return 0
	}
	moved := min(MaxStackAmount-i.Amount, other.Amount)
	i.Amount += moved
	other.Amount -= moved
	return moved
}

// Split отделяет amount от стопки в новый предмет
func (i *Item) Split(amount int) (*Item, error) {
	if !i.Type.IsStackable() || amount <= 0 || amount >= i.Amount {
		return nil, fmt.Errorf("нельзя отделить %d из %d", amount, i.Amount)
	}
	i.Amount -= amount
	return &Item{ID: NewID(), Type: i.Type, Amount: amount}, nil
}

// String возвращает описание предмета для логов
func (i *Item) String() string {
	if i.Type.IsStackable() && i.Amount > 1 {
		return fmt.Sprintf("%d %s (#%d)", i.Amount, i.Type.Name, i.ID)
	}
	return fmt.Sprintf("%s (#%d)", i.Type.Name, i.ID)
}
