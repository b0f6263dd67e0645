package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"learnhub/upload-broker/internal/domain/upload"
)

const redisKeyPrefix = "upload-broker:admission"

// RedisLimiter counts requests in fixed windows shared by every broker replica.
type RedisLimiter struct {
	client redis.UniversalClient
	rules  Rules
	window time.Duration
	now    func() time.Time
}

func NewRedisLimiter(redisURL string, rules Rules, window time.Duration) (*RedisLimiter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisLimiter{
		client: redis.NewClient(opts),
		rules:  rules,
		window: normalizeWindow(window),
		now:    time.Now,
	}, nil
}

func (r *RedisLimiter) Allow(ctx context.Context, rule upload.Rule, fingerprint string) (bool, error) {
	limit := r.rules[rule]
	if limit <= 0 {
		return true, nil
	}

	key := r.windowKey(rule, fingerprint)
	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, r.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("redis incr: %w", err)
	}
	return incr.Val() <= int64(limit), nil
}

func (r *RedisLimiter) windowKey(rule upload.Rule, fingerprint string) string {
	window := r.now().UnixNano() / int64(r.window)
	return redisKeyPrefix + ":" + string(rule) + ":" + fingerprint + ":" + strconv.FormatInt(window, 10)
}

// Close releases the redis connection pool.
func (r *RedisLimiter) Close() error {
	return r.client.Close()
}
