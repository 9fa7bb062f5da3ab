package push

import (
	"sync"

	"ChatStory/service/chat"
	"ChatStory/tools/errs"
)

// outbox is the non-blocking send queue shared by every transport. The send
// chan is never closed; done signals the writer instead so Push cannot race
// a close.
type outbox struct {
	send chan chat.Event
	done chan struct{}
	once sync.Once
}

func (o *outbox) init(size int) {
	if size <= 0 {
		size = 64
	}
	o.send = make(chan chat.Event, size)
	o.done = make(chan struct{})
}

func (o *outbox) Push(ev chat.Event) error {
	select {
	case <-o.done:
		return chat.ErrChannelClosed
	default:
	}

	select {
	case o.send <- ev:
		return nil
	case <-o.done:
		return chat.ErrChannelClosed
	default:
		// a full buffer means the client stopped reading
		o.Close()
		return errs.ErrSlowConsumer
	}
}

func (o *outbox) Close() {
	o.once.Do(func() { close(o.done) })
}

// Done is closed once the channel has been closed by either side.
func (o *outbox) Done() <-chan struct{} {
	return o.done
}

// drain hands every already queued event to fn without blocking.
func (o *outbox) drain(fn func(chat.Event) error) error {
	for {
		select {
		case ev := <-o.send:
			if err := fn(ev); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}
