package push

import (
	"context"
	"io"
	"net/http"
	"time"

	"ChatStory/logger"
	"ChatStory/service/chat"
	"ChatStory/tools/ids"

	"github.com/gin-contrib/sse"
	"go.uber.org/zap"
)

// SSEChannel delivers hub events as a server-sent event stream.
type SSEChannel struct {
	outbox
	heartbeat time.Duration
	nextID    func() string
}

func NewSSEChannel(buffer int, heartbeat time.Duration) *SSEChannel {
	c := &SSEChannel{heartbeat: heartbeat, nextID: ids.GenerateString}
	c.init(buffer)
	return c
}

// SetStreamHeaders writes the response headers of an event stream.
func SetStreamHeaders(h http.Header) {
	h.Set("Content-Type", sse.ContentType)
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("Access-Control-Allow-Origin", "*")
}

// Serve writes events to w until ctx ends or the channel is closed. Events
// queued before the close are still written.
func (c *SSEChannel) Serve(ctx context.Context, w io.Writer) error {
	flush := func() {}
	if f, ok := w.(http.Flusher); ok {
		flush = f.Flush
	}
	flush()

	var tick <-chan time.Time
	if c.heartbeat > 0 {
		t := time.NewTicker(c.heartbeat)
		defer t.Stop()
		tick = t.C
	}

	write := func(ev chat.Event) error {
		if err := c.writeEvent(w, ev); err != nil {
			return err
		}
		flush()
		return nil
	}

	for {
		select {
		case ev := <-c.send:
			if err := write(ev); err != nil {
				c.Close()
				return err
			}
		case <-tick:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				c.Close()
				return err
			}
			flush()
		case <-c.done:
			return c.drain(write)
		case <-ctx.Done():
			c.Close()
			return nil
		}
	}
}

func (c *SSEChannel) writeEvent(w io.Writer, ev chat.Event) error {
	payload, err := ev.Payload()
	if err != nil {
		logger.Warn("[SSE] marshal event", zap.String("event", string(ev.Type)), zap.Error(err))
		return nil
	}
	return sse.Encode(w, sse.Event{
		Id:    c.nextID(),
		Event: string(ev.Type),
		Data:  string(payload),
	})
}
