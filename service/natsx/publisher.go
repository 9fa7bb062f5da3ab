package natsx

import (
	"context"
	"encoding/json"

	"ChatStory/service/chat"
)

// Publisher forwards hub notices to <prefix>.<kind> as JSON.
type Publisher struct {
	client *NatsxClient
	prefix string
}

func NewPublisher(client *NatsxClient, prefix string) *Publisher {
	return &Publisher{client: client, prefix: prefix}
}

func (p *Publisher) Name() string { return "nats" }

func (p *Publisher) Subject(kind chat.NoticeKind) string {
	if p.prefix == "" {
		return string(kind)
	}
	return p.prefix + "." + string(kind)
}

func (p *Publisher) Handle(_ context.Context, n chat.Notice) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return p.client.Publish(p.Subject(n.Kind), data, map[string]string{"session": n.Session})
}
