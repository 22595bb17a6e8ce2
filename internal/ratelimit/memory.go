package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// MemoryLimiter is a fixed-window limiter local to the process, used when no
// Redis is configured.
type MemoryLimiter struct {
	Prefix string

	mu       sync.Mutex
	store    limiter.Store
	limiters map[string]*limiter.Limiter
}

// NewMemoryLimiter constructs a limiter backed by the ulule in-memory store.
func NewMemoryLimiter(prefix string) *MemoryLimiter {
	return &MemoryLimiter{
		Prefix:   prefix,
		store:    memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: prefix, CleanUpInterval: time.Minute}),
		limiters: map[string]*limiter.Limiter{},
	}
}

// Allow implements Limiter.
func (l *MemoryLimiter) Allow(ctx context.Context, key string, window time.Duration, max int) (bool, int, time.Time, error) {
	if max <= 0 || window <= 0 {
		return true, max, time.Now().Add(window), nil
	}
	lctx, err := l.limiterFor(window, max).Get(ctx, key)
	if err != nil {
		return false, 0, time.Now().Add(window), err
	}
	return !lctx.Reached, int(lctx.Remaining), time.Unix(lctx.Reset, 0), nil
}

func (l *MemoryLimiter) limiterFor(window time.Duration, max int) *limiter.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := fmt.Sprintf("%s/%d", window, max)
	if lim, ok := l.limiters[id]; ok {
		return lim
	}
	lim := limiter.New(l.store, limiter.Rate{Period: window, Limit: int64(max)})
	l.limiters[id] = lim
	return lim
}
