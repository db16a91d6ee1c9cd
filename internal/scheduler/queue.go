package scheduler

import "time"

// queuedEvent обертка для элемента очереди приоритетов
type queuedEvent struct {
	event  Event
	fireAt time.Time
	seq    uint64 // порядок постановки, разрешает равенство fireAt
	index  int    // индекс в куче (нужен для heap.Fix/Remove)
}

// eventQueue реализует heap.Interface: минимальный fireAt, затем минимальный seq
type eventQueue []*queuedEvent

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].fireAt.Equal(q[j].fireAt) {
		return q[i].seq < q[j].seq
	}
	return q[i].fireAt.Before(q[j].fireAt)
}

func (q eventQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *eventQueue) Push(x interface{}) {
	item := x.(*queuedEvent)
	item.index = len(*q)
	*q = append(*q, item)
}

func (q *eventQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil // избегаем утечки памяти
	item.index = -1
	*q = old[0 : n-1]
	return item
}

func (q eventQueue) peek() *queuedEvent {
	if len(q) == 0 {
		return nil
	}
	return q[0]
}
