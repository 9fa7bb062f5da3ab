package push

import (
	"context"
	"encoding/json"

	"ChatStory/service/chat"
	"ChatStory/tools/errs"

	"github.com/golang/glog"
)

// Op names a client operation carried by an inbound websocket frame.
type Op string

const (
	OpMatch   Op = "match"
	OpMessage Op = "message"
	OpTyping  Op = "typing"
	OpLeave   Op = "leave"
	OpCancel  Op = "cancel"
)

// Inbound is a client frame: {"op":"message","msg":"hi"}. Token is only
// read for match.
type Inbound struct {
	Op    Op     `json:"op"`
	Msg   string `json:"msg,omitempty"`
	Token string `json:"token,omitempty"`
}

// Frame is the websocket rendering of a hub event.
type Frame struct {
	Event chat.EventType  `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func ParseInbound(raw []byte) (Inbound, error) {
	var in Inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		return Inbound{}, errs.ErrBadPayload.WrapMsg("inbound frame: " + err.Error())
	}
	if in.Op == "" {
		return Inbound{}, errs.ErrBadPayload.WrapMsg("inbound frame without op")
	}
	return in, nil
}

func EncodeFrame(ev chat.Event) ([]byte, error) {
	payload, err := ev.Payload()
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: ev.Type, Data: payload})
}

// Handler runs one client operation on behalf of sessionID.
type Handler func(ctx context.Context, sessionID string, in Inbound) error

type Dispatcher struct {
	handlers map[Op]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[Op]Handler)}
}

func (d *Dispatcher) Register(op Op, h Handler) { d.handlers[op] = h }

func (d *Dispatcher) Dispatch(ctx context.Context, sessionID string, in Inbound) error {
	h, ok := d.handlers[in.Op]
	if !ok {
		glog.Infof("no handler for op=%s", in.Op)
		return errs.ErrBadPayload.WrapMsg("unknown op", "op", in.Op)
	}
	return h(ctx, sessionID, in)
}
