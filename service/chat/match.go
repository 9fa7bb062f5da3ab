package chat

import (
	"ChatStory/logger"

	"go.uber.org/zap"
)

// runPass pairs waiting sessions until fewer than two remain. The caller
// must have set h.passing.
func (h *Hub) runPass() {
	h.mu.Lock()
	defer func() {
		h.passing = false
		h.mu.Unlock()
	}()

	logger.Debug("[Hub] start process queue", zap.Int("waiting", h.queue.Len()))

	steps := 0
	for h.queue.Len() >= 2 {
		h.pairNextLocked()
		steps++

		if steps%h.opts.YieldEvery == 0 && h.queue.Len() >= 2 {
			h.mu.Unlock()
			h.yield()
			h.mu.Lock()
		}
	}

	logger.Debug("[Hub] queue was processed", zap.Int("steps", steps))
}

// pairNextLocked takes the two oldest waiting ids. Existence is checked
// here, right before the pairing is committed, so a disconnect that landed
// first always wins.
func (h *Hub) pairNextLocked() {
	a, _ := h.queue.PopFront()
	b, _ := h.queue.PopFront()

	sa, okA := h.sessions[a]
	sb, okB := h.sessions[b]

	switch {
	case okA && okB:
		sa.Peer = b
		sb.Peer = a
		h.push(a, sa.Channel, Matched())
		h.push(b, sb.Channel, Matched())

		logger.Info("[Hub] new match", zap.String("a", a), zap.String("b", b))
		h.notify(NoticeMatched, a, b)
	case okA:
		// b went away; a keeps its place at the head
		h.queue.PushFront(a)
	case okB:
		h.queue.PushFront(b)
	}
}
