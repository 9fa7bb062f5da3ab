package chat

import "container/list"

// waitingQueue is an insertion-ordered set of session ids.
type waitingQueue struct {
	order *list.List
	index map[string]*list.Element
}

func newWaitingQueue() *waitingQueue {
	return &waitingQueue{
		order: list.New(),
		index: make(map[string]*list.Element),
	}
}

// Add appends id unless it is already queued.
func (q *waitingQueue) Add(id string) bool {
	if q.Contains(id) {
		return false
	}
	q.index[id] = q.order.PushBack(id)
	return true
}

// Remove is safe to call for ids that are not queued.
func (q *waitingQueue) Remove(id string) bool {
	el, ok := q.index[id]
	if !ok {
		return false
	}
	q.order.Remove(el)
	delete(q.index, id)
	return true
}

func (q *waitingQueue) PopFront() (string, bool) {
	el := q.order.Front()
	if el == nil {
		return "", false
	}
	id := q.order.Remove(el).(string)
	delete(q.index, id)
	return id, true
}

// PushFront puts id back at the head so the next pairing step sees it first.
func (q *waitingQueue) PushFront(id string) {
	if q.Contains(id) {
		return
	}
	q.index[id] = q.order.PushFront(id)
}

func (q *waitingQueue) Contains(id string) bool {
	_, ok := q.index[id]
	return ok
}

func (q *waitingQueue) Len() int { return q.order.Len() }
