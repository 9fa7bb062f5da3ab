package chat

import "encoding/json"

// EventType is the push event name seen by clients.
type EventType string

const (
	EventInfo EventType = "info" // chat message forwarded from the peer
	EventHint EventType = "hint" // peer is typing
	EventOper EventType = "oper" // lifecycle signal
)

type Oper string

const (
	OperID       Oper = "id"
	OperMatch    Oper = "match"
	OperPeerLeft Oper = "plve"
)

// Event is one server push. Data is marshalled as the event payload.
type Event struct {
	Type EventType
	Data any
}

type InfoPayload struct {
	Sender string `json:"sender"`
	Msg    string `json:"msg"`
}

type HintPayload struct {
	Sender string `json:"sender"`
}

type OperPayload struct {
	Oper Oper   `json:"oper"`
	Data string `json:"data,omitempty"`
}

func (e Event) Payload() ([]byte, error) {
	return json.Marshal(e.Data)
}

func AssignedID(id string) Event {
	return Event{Type: EventOper, Data: OperPayload{Oper: OperID, Data: id}}
}

func Matched() Event {
	return Event{Type: EventOper, Data: OperPayload{Oper: OperMatch}}
}

func PeerLeft() Event {
	return Event{Type: EventOper, Data: OperPayload{Oper: OperPeerLeft}}
}

func Message(sender, msg string) Event {
	return Event{Type: EventInfo, Data: InfoPayload{Sender: sender, Msg: msg}}
}

func Typing(sender string) Event {
	return Event{Type: EventHint, Data: HintPayload{Sender: sender}}
}
