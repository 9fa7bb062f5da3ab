package chat

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// recordingChannel keeps every pushed event.
type recordingChannel struct {
	mu     sync.Mutex
	events []Event
	closed bool
}

func (c *recordingChannel) Push(ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrChannelClosed
	}
	c.events = append(c.events, ev)
	return nil
}

func (c *recordingChannel) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *recordingChannel) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

func (c *recordingChannel) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// count returns how many pushed events equal want.
func (c *recordingChannel) count(want Event) int {
	n := 0
	for _, ev := range c.Events() {
		if ev == want {
			n++
		}
	}
	return n
}

type recordingObserver struct {
	mu      sync.Mutex
	notices []Notice
}

func (o *recordingObserver) Observe(n Notice) {
	o.mu.Lock()
	o.notices = append(o.notices, n)
	o.mu.Unlock()
}

func (o *recordingObserver) kinds() []NoticeKind {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]NoticeKind, 0, len(o.notices))
	for _, n := range o.notices {
		out = append(out, n.Kind)
	}
	return out
}

// newTestHub builds a hub with predictable ids s1, s2, ...
func newTestHub(t *testing.T, opts Options) *Hub {
	t.Helper()
	var mu sync.Mutex
	n := 0
	if opts.NewID == nil {
		opts.NewID = func() string {
			mu.Lock()
			defer mu.Unlock()
			n++
			return fmt.Sprintf("s%d", n)
		}
	}
	opts.Clock = func() time.Time { return time.Unix(1700000000, 0) }
	return NewHub(opts)
}

func connect(t *testing.T, h *Hub) (string, *recordingChannel) {
	t.Helper()
	ch := &recordingChannel{}
	return h.Register(ch), ch
}

// assertSymmetric checks that every peer reference points back.
func assertSymmetric(t *testing.T, h *Hub) {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, s := range h.sessions {
		if s.Peer == "" {
			continue
		}
		other, ok := h.sessions[s.Peer]
		if !ok {
			t.Errorf("%s paired with missing session %s", id, s.Peer)
			continue
		}
		if other.Peer != id {
			t.Errorf("asymmetric pairing: %s -> %s but %s -> %q", id, s.Peer, s.Peer, other.Peer)
		}
	}
}

// assertQueueConsistent checks that only registered, unpaired sessions wait.
func assertQueueConsistent(t *testing.T, h *Hub) {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, id := range h.queue.ids() {
		s, ok := h.sessions[id]
		if !ok {
			t.Errorf("queue holds unregistered session %s", id)
			continue
		}
		if s.Peer != "" {
			t.Errorf("queue holds paired session %s", id)
		}
	}
}

func peerOf(t *testing.T, h *Hub, id string) string {
	t.Helper()
	s, ok := h.Get(id)
	if !ok {
		t.Fatalf("session %s not registered", id)
	}
	return s.Peer
}

// ids lists the queue head first.
func (q *waitingQueue) ids() []string {
	out := make([]string, 0, q.order.Len())
	for el := q.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(string))
	}
	return out
}
