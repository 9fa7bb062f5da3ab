package gateway

import (
	"context"

	"ChatStory/logger"
	"ChatStory/service/push"
	"ChatStory/tools/errs"

	"go.uber.org/zap"
)

// match queues id for pairing once its token passes bot verification.
func (s *Server) match(ctx context.Context, id, token string) error {
	if token == "" {
		return errs.ErrTokenMissing.Wrap()
	}
	if s.bots.IsBot(ctx, token) {
		logger.Info("[Gateway] bot detected", zap.String("session", id))
		return errs.ErrBotDetected.WrapMsg("match", "session", id)
	}
	return s.hub.Enqueue(id)
}

// message relays text after a typing hint, the order browsers expect.
func (s *Server) message(id, text string) error {
	return s.hub.SendWithHint(id, text)
}

func (s *Server) newDispatcher() *push.Dispatcher {
	d := push.NewDispatcher()
	d.Register(push.OpMatch, func(ctx context.Context, id string, in push.Inbound) error {
		return s.match(ctx, id, in.Token)
	})
	d.Register(push.OpMessage, func(_ context.Context, id string, in push.Inbound) error {
		return s.message(id, in.Msg)
	})
	d.Register(push.OpTyping, func(_ context.Context, id string, _ push.Inbound) error {
		return s.hub.Typing(id)
	})
	d.Register(push.OpLeave, func(_ context.Context, id string, _ push.Inbound) error {
		return s.hub.Leave(id)
	})
	d.Register(push.OpCancel, func(_ context.Context, id string, _ push.Inbound) error {
		return s.hub.Dequeue(id)
	})
	return d
}
