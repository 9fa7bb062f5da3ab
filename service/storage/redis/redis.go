package redis

import (
	"context"
	"time"

	"ChatStory/global/config"

	"github.com/golang/glog"
	"github.com/redis/go-redis/v9"
)

type RedisManager struct {
	client *redis.Client
}

// NewRedisManager connects and pings. The caller owns the manager and
// closes it on shutdown.
func NewRedisManager(ctx context.Context, c config.RedisConfig) (*RedisManager, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
		PoolSize: c.PoolSize,
	})

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	glog.Infof("redis connected addr=%s db=%d", c.Addr, c.DB)
	return &RedisManager{client: rdb}, nil
}

func (m *RedisManager) Client() *redis.Client {
	return m.client
}

func (m *RedisManager) Close() error {
	if m != nil && m.client != nil {
		return m.client.Close()
	}
	return nil
}
