package chat

import (
	"runtime"
	"sync"
	"time"

	"ChatStory/logger"
	"ChatStory/tools/errs"
	"ChatStory/tools/ids"

	"go.uber.org/zap"
)

type Options struct {
	// YieldEvery is how many pairing steps a pass runs before yielding.
	YieldEvery int
	// YieldPause is slept at each yield point; zero only reschedules.
	YieldPause time.Duration
	NewID      func() string
	Observer   Observer
	Clock      func() time.Time
}

func (o *Options) norm() {
	if o.YieldEvery <= 0 {
		o.YieldEvery = 100
	}
	if o.NewID == nil {
		o.NewID = ids.NewSessionID
	}
	if o.Observer == nil {
		o.Observer = nopObserver{}
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
}

// Hub owns the session registry and the waiting queue. Every state change
// happens under mu; passing keeps a matching pass exclusive across the
// points where it releases mu to yield.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]*Session
	queue    *waitingQueue
	passing  bool
	opts     Options
}

func NewHub(opts Options) *Hub {
	opts.norm()
	return &Hub{
		sessions: make(map[string]*Session),
		queue:    newWaitingQueue(),
		opts:     opts,
	}
}

// Register stores a new session for ch and pushes its assigned id.
func (h *Hub) Register(ch Channel) string {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.opts.NewID()
	for {
		if _, taken := h.sessions[id]; !taken {
			break
		}
		id = h.opts.NewID()
	}

	h.sessions[id] = &Session{ID: id, Channel: ch}
	logger.Info("[Hub] register", zap.String("session", id))

	h.push(id, ch, AssignedID(id))
	h.notify(NoticeConnected, id, "")
	return id
}

// Unregister tears down any pairing, then forgets the session and closes
// its channel. Unknown ids are ignored.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[id]
	if !ok {
		return
	}
	h.closeChatLocked(id)
	delete(h.sessions, id)
	h.queue.Remove(id)
	s.Channel.Close()

	logger.Info("[Hub] unregister", zap.String("session", id))
	h.notify(NoticeDisconnected, id, "")
}

func (h *Hub) Exists(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.sessions[id]
	return ok
}

// Get returns a copy of the session.
func (h *Hub) Get(id string) (Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Enqueue puts a session up for matching and runs a pass on the calling
// goroutine when two or more sessions wait and no pass is active. A session
// that is still paired leaves its current chat first.
func (h *Hub) Enqueue(id string) error {
	h.mu.Lock()
	s, ok := h.sessions[id]
	if !ok {
		h.mu.Unlock()
		logger.Warn("[Hub] enqueue for unknown session", zap.String("session", id))
		return errs.ErrSessionUnknown.WrapMsg("enqueue", "session", id)
	}
	if s.Peer != "" {
		h.closeChatLocked(id)
	}
	if h.queue.Add(id) {
		h.notify(NoticeQueued, id, "")
	}
	logger.Debug("[Hub] clients waiting", zap.Int("waiting", h.queue.Len()))

	start := h.queue.Len() >= 2 && !h.passing
	if start {
		h.passing = true
	}
	h.mu.Unlock()

	if start {
		h.runPass()
	}
	return nil
}

// Dequeue withdraws a waiting session without touching its pairing.
func (h *Hub) Dequeue(id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sessions[id]; !ok {
		return errs.ErrSessionUnknown.WrapMsg("dequeue", "session", id)
	}
	h.queue.Remove(id)
	return nil
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	st := Stats{Online: len(h.sessions), Waiting: h.queue.Len()}
	for _, s := range h.sessions {
		if s.Peer != "" {
			st.Paired++
		}
	}
	return st
}

// Close drops every session and closes their channels.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, s := range h.sessions {
		s.Channel.Close()
		delete(h.sessions, id)
	}
	h.queue = newWaitingQueue()
}

// push never blocks; a failed push means the transport is going away and
// will unregister the session itself.
func (h *Hub) push(id string, ch Channel, ev Event) {
	if err := ch.Push(ev); err != nil {
		logger.Debug("[Hub] push failed", zap.String("session", id), zap.String("event", string(ev.Type)), zap.Error(err))
	}
}

func (h *Hub) notify(kind NoticeKind, id, peer string) {
	h.opts.Observer.Observe(Notice{Kind: kind, Session: id, Peer: peer, At: h.opts.Clock()})
}

func (h *Hub) yield() {
	if h.opts.YieldPause > 0 {
		time.Sleep(h.opts.YieldPause)
		return
	}
	runtime.Gosched()
}
