package chat

import (
	"errors"
	"time"
)

// ErrChannelClosed is returned by Channel.Push once the channel is closed.
var ErrChannelClosed = errors.New("chat: channel closed")

// Channel is the push half of one client connection. Push must not block:
// implementations buffer and drain on their own goroutine.
type Channel interface {
	Push(Event) error
	Close()
}

// Session is one connected client. Peer is empty while unpaired.
type Session struct {
	ID      string
	Channel Channel
	Peer    string
}

type NoticeKind string

const (
	NoticeConnected    NoticeKind = "connected"
	NoticeQueued       NoticeKind = "queued"
	NoticeMatched      NoticeKind = "matched"
	NoticeLeft         NoticeKind = "left"
	NoticeDisconnected NoticeKind = "disconnected"
)

// Notice reports a session lifecycle transition. Peer is set for matched and
// left notices.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Session string     `json:"session"`
	Peer    string     `json:"peer,omitempty"`
	At      time.Time  `json:"at"`
}

// Observer receives notices while the hub lock is held, so Observe must
// return quickly and must not call back into the hub.
type Observer interface {
	Observe(Notice)
}

type nopObserver struct{}

func (nopObserver) Observe(Notice) {}

type Stats struct {
	Online  int `json:"online"`
	Waiting int `json:"waiting"`
	Paired  int `json:"paired"`
}
