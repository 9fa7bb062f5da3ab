package lifecycle

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"ChatStory/logger"
	"ChatStory/service/chat"
	"ChatStory/tools/safe"

	"go.uber.org/zap"
)

// Sink receives hub notices off the hub's lock.
type Sink interface {
	Name() string
	Handle(ctx context.Context, n chat.Notice) error
}

type Options struct {
	Buffer int
	// Timeout bounds a single Sink.Handle call.
	Timeout time.Duration
}

// Dispatcher is a chat.Observer that queues notices and fans them out to
// sinks on one worker goroutine. Observe never blocks: a full queue drops
// the notice.
type Dispatcher struct {
	sinks   []Sink
	queue   chan chat.Notice
	timeout time.Duration

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
	done    chan struct{}
}

func NewDispatcher(opts Options, sinks ...Sink) *Dispatcher {
	if opts.Buffer <= 0 {
		opts.Buffer = 1024
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Second
	}
	d := &Dispatcher{
		sinks:   sinks,
		queue:   make(chan chat.Notice, opts.Buffer),
		timeout: opts.Timeout,
		done:    make(chan struct{}),
	}
	safe.Go("lifecycle-dispatcher", d.run)
	return d
}

func (d *Dispatcher) Observe(n chat.Notice) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}
	select {
	case d.queue <- n:
	default:
		d.dropped.Add(1)
		logger.Warn("[Lifecycle] queue full, drop notice",
			zap.String("kind", string(n.Kind)), zap.String("session", n.Session))
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for n := range d.queue {
		for _, s := range d.sinks {
			d.deliver(s, n)
		}
	}
}

func (d *Dispatcher) deliver(s Sink, n chat.Notice) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	safe.Run("lifecycle-sink-"+s.Name(), func() {
		if err := s.Handle(ctx, n); err != nil {
			logger.Warn("[Lifecycle] sink failed",
				zap.String("sink", s.Name()), zap.String("kind", string(n.Kind)), zap.Error(err))
		}
	})
}

// Close stops accepting notices and waits until queued ones are delivered
// or ctx ends.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dropped is the number of notices lost to a full queue.
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}
