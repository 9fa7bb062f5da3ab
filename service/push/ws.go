package push

import (
	"net"
	"time"

	"ChatStory/logger"
	"ChatStory/service/chat"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type WSOptions struct {
	WriteTimeout time.Duration
	PingInterval time.Duration
	MaxMessage   int64
}

func (o *WSOptions) norm() {
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 5 * time.Second
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 25 * time.Second
	}
	if o.MaxMessage <= 0 {
		o.MaxMessage = 64 << 10
	}
}

// pongWait is how long a silent peer is tolerated.
func (o *WSOptions) pongWait() time.Duration {
	return 3 * o.PingInterval
}

// WSChannel delivers hub events as websocket text frames. WritePump is the
// only writer on conn and ReadPump the only reader.
type WSChannel struct {
	outbox
	conn *websocket.Conn
	opts WSOptions
}

func NewWSChannel(conn *websocket.Conn, buffer int, opts WSOptions) *WSChannel {
	opts.norm()
	c := &WSChannel{conn: conn, opts: opts}
	c.init(buffer)
	return c
}

// WritePump writes queued events and pings until the channel is closed or a
// write fails, then closes the connection.
func (c *WSChannel) WritePump() {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
		_ = c.conn.Close()
	}()

	for {
		select {
		case ev := <-c.send:
			if err := c.writeEvent(ev); err != nil {
				logger.Debug("[WS] write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(c.opts.WriteTimeout)
			if err := c.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				logger.Debug("[WS] ping failed", zap.Error(err))
				return
			}
		case <-c.done:
			if err := c.drain(c.writeEvent); err != nil {
				return
			}
			deadline := time.Now().Add(c.opts.WriteTimeout)
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			return
		}
	}
}

func (c *WSChannel) writeEvent(ev chat.Event) error {
	data, err := EncodeFrame(ev)
	if err != nil {
		logger.Warn("[WS] marshal event", zap.String("event", string(ev.Type)), zap.Error(err))
		return nil
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// ReadPump reads client frames and hands each parsed one to handle. It
// returns when the peer goes away; a normal close returns nil.
func (c *WSChannel) ReadPump(handle func(Inbound)) error {
	c.conn.SetReadLimit(c.opts.MaxMessage)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.opts.pongWait()))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.opts.pongWait()))
	})

	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				return nil
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				logger.Info("[WS] read timeout", zap.Error(err))
			}
			return err
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		in, err := ParseInbound(data)
		if err != nil {
			sample := data
			if len(sample) > 256 {
				sample = sample[:256]
			}
			logger.Info("[WS] bad frame", zap.ByteString("sample", sample), zap.Int("len", len(data)), zap.Error(err))
			continue
		}
		handle(in)
	}
}
