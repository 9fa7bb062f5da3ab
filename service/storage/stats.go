package storage

import (
	"context"
	"strconv"

	"ChatStory/service/chat"

	"github.com/redis/go-redis/v9"
)

// Key layout under the configured prefix:
//
//	<p>online           set of connected session ids
//	<p>presence:<id>    node id serving the session
//	<p>counter:<name>   running totals (connections, matches, leaves)
const (
	counterConnections = "connections"
	counterMatches     = "matches"
	counterLeaves      = "leaves"
)

type Keys struct {
	prefix string
}

func NewKeys(prefix string) Keys { return Keys{prefix: prefix} }

func (k Keys) Online() string { return k.prefix + "online" }
func (k Keys) Presence(session string) string { return k.prefix + "presence:" + session }
func (k Keys) Counter(name string) string { return k.prefix + "counter:" + name }

// Totals are the running counters kept in Redis; they survive restarts and
// add up across nodes.
type Totals struct {
	Online      int64 `json:"online"`
	Connections int64 `json:"connections"`
	Matches     int64 `json:"matches"`
	Leaves      int64 `json:"leaves"`
}

// StatsSink mirrors hub notices into Redis presence and counters.
type StatsSink struct {
	rdb    redis.Cmdable
	keys   Keys
	nodeID string
}

func NewStatsSink(rdb redis.Cmdable, prefix string, nodeID int64) *StatsSink {
	return &StatsSink{rdb: rdb, keys: NewKeys(prefix), nodeID: strconv.FormatInt(nodeID, 10)}
}

func (s *StatsSink) Name() string { return "redis-stats" }

func (s *StatsSink) Handle(ctx context.Context, n chat.Notice) error {
	switch n.Kind {
	case chat.NoticeConnected:
		_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.SAdd(ctx, s.keys.Online(), n.Session)
			p.Set(ctx, s.keys.Presence(n.Session), s.nodeID, 0)
			p.Incr(ctx, s.keys.Counter(counterConnections))
			return nil
		})
		return err
	case chat.NoticeDisconnected:
		_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.SRem(ctx, s.keys.Online(), n.Session)
			p.Del(ctx, s.keys.Presence(n.Session))
			return nil
		})
		return err
	case chat.NoticeMatched:
		return s.rdb.Incr(ctx, s.keys.Counter(counterMatches)).Err()
	case chat.NoticeLeft:
		return s.rdb.Incr(ctx, s.keys.Counter(counterLeaves)).Err()
	}
	return nil
}

// PresenceLookup reports the node serving session, if it is online.
func (s *StatsSink) PresenceLookup(ctx context.Context, session string) (string, bool, error) {
	val, err := s.rdb.Get(ctx, s.keys.Presence(session)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *StatsSink) Totals(ctx context.Context) (Totals, error) {
	var (
		online *redis.IntCmd
		vals   *redis.SliceCmd
	)
	_, err := s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		online = p.SCard(ctx, s.keys.Online())
		vals = p.MGet(ctx,
			s.keys.Counter(counterConnections),
			s.keys.Counter(counterMatches),
			s.keys.Counter(counterLeaves),
		)
		return nil
	})
	if err != nil && err != redis.Nil {
		return Totals{}, err
	}

	counters := make([]int64, 3)
	for i, v := range vals.Val() {
		if str, ok := v.(string); ok {
			counters[i], _ = strconv.ParseInt(str, 10, 64)
		}
	}
	return Totals{
		Online:      online.Val(),
		Connections: counters[0],
		Matches:     counters[1],
		Leaves:      counters[2],
	}, nil
}
