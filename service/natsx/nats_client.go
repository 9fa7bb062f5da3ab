package natsx

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ChatStory/global/config"

	"github.com/golang/glog"
	"github.com/nats-io/nats.go"
)

// NatsxClient is a core NATS connection used for fire and forget publishing.
type NatsxClient struct {
	nc *nats.Conn
}

func NewNatsxClient(cfg config.NatsConfig) (*NatsxClient, error) {
	if len(cfg.Servers) == 0 {
		return nil, errors.New("nats servers missing")
	}
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(500 * time.Millisecond),
		nats.ReconnectJitter(100*time.Millisecond, 500*time.Millisecond),
		nats.Timeout(3 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				glog.Warningf("nats disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			glog.Infof("nats reconnected to %s", nc.ConnectedUrl())
		}),
	}
	if cfg.User != "" {
		opts = append(opts, nats.UserInfo(cfg.User, cfg.Password))
	}

	nc, err := nats.Connect(strings.Join(cfg.Servers, ","), opts...)
	if err != nil {
		return nil, err
	}
	glog.Infof("nats connected to %s", nc.ConnectedUrl())
	return &NatsxClient{nc: nc}, nil
}

func toHeader(h map[string]string) nats.Header {
	if len(h) == 0 {
		return nil
	}
	hd := nats.Header{}
	for k, v := range h {
		hd.Add(k, v)
	}
	return hd
}

// Publish sends a core (fire and forget) message.
func (c *NatsxClient) Publish(subject string, data []byte, hdr map[string]string) error {
	msg := &nats.Msg{Subject: subject, Data: data, Header: toHeader(hdr)}
	if err := c.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Flush waits until the server has processed everything published so far.
func (c *NatsxClient) Flush(ctx context.Context) error {
	return c.nc.FlushWithContext(ctx)
}

// Close drains the connection.
func (c *NatsxClient) Close() error {
	if c.nc != nil {
		return c.nc.Drain()
	}
	return nil
}
