package common

import (
	"context"
	"math/rand"
	"sync/atomic"
	"time"
)

// acLimiterStrictPercentage mirrors the teacher's cacheLimiterStrictLimitPercentage:
// the last slice of the budget is reserved headroom, not handed out under
// the strict limit.
var acLimiterStrictPercentage = float32(0.75)

// CacheLimiter bounds how much of a logical resource (here: estimated AC
// automaton memory) may be reserved at once. The teacher uses this
// abstraction (common/cacheLimiter.go) to bound in-flight transfer RAM; here
// it bounds in-flight *planned* AC memory when num_threads > 1 so that
// concurrently-running batches don't collectively blow the memory ceiling
// the Batch Planner computed them against.
type CacheLimiter interface {
	TryAdd(count int64, useRelaxedLimit bool) (added bool)
	WaitUntilAdd(ctx context.Context, count int64, useRelaxedLimit func() bool) error
	Remove(count int64)
	Limit() int64
	StrictLimit() int64
}

type cacheLimiter struct {
	value int64
	limit int64
}

func NewCacheLimiter(limit int64) CacheLimiter {
	return &cacheLimiter{limit: limit}
}

func (c *cacheLimiter) TryAdd(count int64, useRelaxedLimit bool) (added bool) {
	lim := c.limit
	if !useRelaxedLimit {
		lim = c.StrictLimit()
	}

	if atomic.AddInt64(&c.value, count) <= lim {
		return true
	}
	atomic.AddInt64(&c.value, -count)
	return false
}

func (c *cacheLimiter) WaitUntilAdd(ctx context.Context, count int64, useRelaxedLimit func() bool) error {
	for {
		if c.TryAdd(count, useRelaxedLimit()) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(2 * float32(time.Second) * rand.Float32())):
			// randomized wait avoids every blocked worker retrying in lockstep
		}
	}
}

func (c *cacheLimiter) Remove(count int64) {
	atomic.AddInt64(&c.value, -count)
}

func (c *cacheLimiter) Limit() int64 { return c.limit }

func (c *cacheLimiter) StrictLimit() int64 {
	return int64(float32(c.limit) * acLimiterStrictPercentage)
}
