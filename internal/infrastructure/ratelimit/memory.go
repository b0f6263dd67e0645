package ratelimit

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"learnhub/upload-broker/internal/domain/upload"
)

const defaultMaxEntries = 10000

// MemoryLimiter keeps a token bucket per rule and fingerprint. The least
// recently seen buckets are evicted once maxEntries is reached.
type MemoryLimiter struct {
	mu      sync.Mutex
	rules   Rules
	window  time.Duration
	buckets *lru.Cache[string, *rate.Limiter]
}

func NewMemoryLimiter(rules Rules, window time.Duration, maxEntries int) (*MemoryLimiter, error) {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	buckets, err := lru.New[string, *rate.Limiter](maxEntries)
	if err != nil {
		return nil, err
	}
	return &MemoryLimiter{
		rules:   rules,
		window:  normalizeWindow(window),
		buckets: buckets,
	}, nil
}

func (m *MemoryLimiter) Allow(_ context.Context, rule upload.Rule, fingerprint string) (bool, error) {
	limit := m.rules[rule]
	if limit <= 0 {
		return true, nil
	}

	key := string(rule) + "|" + fingerprint

	m.mu.Lock()
	bucket, ok := m.buckets.Get(key)
	if !ok {
		bucket = rate.NewLimiter(rate.Every(m.window/time.Duration(limit)), limit)
		m.buckets.Add(key, bucket)
	}
	m.mu.Unlock()

	return bucket.Allow(), nil
}
