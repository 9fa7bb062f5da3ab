package global

import (
	"context"
	"time"

	"ChatStory/global/config"
	"ChatStory/logger"
	"ChatStory/service/captcha"
	"ChatStory/service/chat"
	"ChatStory/service/lifecycle"
	"ChatStory/service/natsx"
	"ChatStory/service/storage"
	"ChatStory/service/storage/redis"
	"ChatStory/tools/ids"

	"github.com/golang/glog"
)

// Infra is everything ConfigAll opened; Close releases it in reverse order.
type Infra struct {
	Hub      *chat.Hub
	Verifier *captcha.Verifier
	Stats    *storage.StatsSink
	Events   *lifecycle.Dispatcher

	redis *redis.RedisManager
	nats  *natsx.NatsxClient
}

// ConfigAll wires the hub with its optional Redis and NATS sinks. A sink
// whose backend cannot be reached is skipped with a warning.
func ConfigAll(ctx context.Context, cfg *config.AppConfig) (*Infra, error) {
	if err := logger.Setup(cfg.Log.Level, cfg.Log.Color); err != nil {
		return nil, err
	}
	ConfigIds(cfg)

	inf := &Infra{Verifier: ConfigCaptcha(cfg)}
	var sinks []lifecycle.Sink

	if mgr := ConfigRedis(ctx, cfg); mgr != nil {
		inf.redis = mgr
		inf.Stats = storage.NewStatsSink(mgr.Client(), cfg.Redis.KeyPrefix, cfg.NodeID)
		sinks = append(sinks, inf.Stats)
	}
	if nc := ConfigNats(cfg); nc != nil {
		inf.nats = nc
		sinks = append(sinks, natsx.NewPublisher(nc, cfg.Nats.SubjectPrefix))
	}

	hubOpts := chat.Options{
		YieldEvery: cfg.Chat.YieldEvery,
		YieldPause: cfg.Chat.YieldPause,
	}
	if len(sinks) > 0 {
		inf.Events = lifecycle.NewDispatcher(lifecycle.Options{}, sinks...)
		hubOpts.Observer = inf.Events
	}
	inf.Hub = chat.NewHub(hubOpts)
	return inf, nil
}

func ConfigIds(cfg *config.AppConfig) {
	ids.SetNodeID(cfg.NodeID)
}

func ConfigCaptcha(cfg *config.AppConfig) *captcha.Verifier {
	v := captcha.NewVerifier(cfg.Captcha)
	if !v.Enabled() {
		glog.Warning("RECAPTCHA_KEY is not set, bot verification disabled")
	}
	return v
}

func ConfigRedis(ctx context.Context, cfg *config.AppConfig) *redis.RedisManager {
	if cfg.Redis.Addr == "" {
		return nil
	}
	mgr, err := redis.NewRedisManager(ctx, cfg.Redis)
	if err != nil {
		glog.Warningf("redis %s unavailable, stats sink disabled: %v", cfg.Redis.Addr, err)
		return nil
	}
	return mgr
}

func ConfigNats(cfg *config.AppConfig) *natsx.NatsxClient {
	if len(cfg.Nats.Servers) == 0 {
		return nil
	}
	nc, err := natsx.NewNatsxClient(cfg.Nats)
	if err != nil {
		glog.Warningf("nats %v unavailable, event publishing disabled: %v", cfg.Nats.Servers, err)
		return nil
	}
	return nc
}

// Close drains pending lifecycle notices, then closes the brokers.
func (inf *Infra) Close(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if inf.Events != nil {
		if err := inf.Events.Close(ctx); err != nil {
			glog.Warningf("lifecycle drain: %v", err)
		}
		if n := inf.Events.Dropped(); n > 0 {
			glog.Warningf("lifecycle dropped %d notices on a full queue", n)
		}
	}
	if inf.nats != nil {
		if err := inf.nats.Flush(ctx); err != nil {
			glog.Warningf("nats flush: %v", err)
		}
		if err := inf.nats.Close(); err != nil {
			glog.Warningf("nats close: %v", err)
		}
	}
	if inf.redis != nil {
		if err := inf.redis.Close(); err != nil {
			glog.Warningf("redis close: %v", err)
		}
	}
}
