package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "ratelimit:"

// admitScript prunes, counts and appends in one round trip so concurrent
// replicas see a consistent count.
var admitScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local max = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
if redis.call('ZCARD', key) < max then
  redis.call('ZADD', key, now, ARGV[4])
  redis.call('PEXPIRE', key, window)
  return 1
end
return 0
`)

// Redis shares admission counts between replicas through a sorted set per key.
type Redis struct {
	settings Settings
	rdb      *redis.Client
	logger   *zap.SugaredLogger
}

func NewRedis(rdb *redis.Client, settings Settings, logger *zap.SugaredLogger) *Redis {
	return &Redis{settings: settings, rdb: rdb, logger: logger}
}

// Admit fails open when Redis is unreachable.
func (r *Redis) Admit(ctx context.Context, key string, now time.Time) bool {
	member := fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.NewString())

	admitted, err := admitScript.Run(ctx, r.rdb,
		[]string{keyPrefix + key},
		now.UnixMilli(), r.settings.Window.Milliseconds(), r.settings.Max, member,
	).Int()
	if err != nil {
		r.logger.Warnw("rate limit check failed, admitting request", "key", key, "error", err)
		return true
	}
	return admitted == 1
}

func (r *Redis) Tracked(ctx context.Context) int {
	count := 0
	iter := r.rdb.Scan(ctx, 0, keyPrefix+"*", 500).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		r.logger.Warnw("failed to count rate limit keys", "error", err)
		return -1
	}
	return count
}

func (r *Redis) Window() time.Duration {
	return r.settings.Window
}
