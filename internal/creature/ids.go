package creature

import "sync/atomic"

// ID — неизменяемый идентификатор существа
type ID uint32

// NoID — отсутствие существа (нет цели, нет атакующего)
const NoID ID = 0

// lastCreatureID — общий счётчик. Существа создаются фабрикой вне игрового цикла,
// поэтому выдача идентификаторов — единственная мутация, требующая атомарности.
var lastCreatureID atomic.Uint32

// NewID выдаёт следующий идентификатор существа
func NewID() ID {
	return ID(lastCreatureID.Add(1))
}
