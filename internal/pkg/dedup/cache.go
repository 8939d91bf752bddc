package dedup

import (
	"context"
	"sync"
	"time"
)

// Cache filters duplicate webhook deliveries of the same update id.
// Seen records the id and reports whether it had already been recorded
// within the retention window.
type Cache interface {
	Seen(ctx context.Context, updateID int64) bool
	// Forget releases an id recorded by Seen so a redelivery is processed
	// again, used when handling failed after the id was recorded.
	Forget(ctx context.Context, updateID int64)
}

const (
	defaultRetention     = 20 * time.Minute
	defaultSweepInterval = 5 * time.Minute
)

type memoryCache struct {
	mu        sync.Mutex
	seen      map[int64]time.Time
	retention time.Duration
	sweepMin  time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewMemoryCache returns an in-process cache with a 20-minute retention
// window. Eviction is opportunistic: it piggybacks on Seen calls and runs
// at most once per 5 minutes.
func NewMemoryCache() Cache {
	return &memoryCache{
		seen:      make(map[int64]time.Time),
		retention: defaultRetention,
		sweepMin:  defaultSweepInterval,
		now:       time.Now,
	}
}

func (c *memoryCache) Seen(_ context.Context, updateID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.sweepLocked(now)

	if _, ok := c.seen[updateID]; ok {
		return true
	}
	c.seen[updateID] = now
	return false
}

func (c *memoryCache) Forget(_ context.Context, updateID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.seen, updateID)
}

func (c *memoryCache) sweepLocked(now time.Time) {
	if now.Sub(c.lastSweep) < c.sweepMin {
		return
	}
	c.lastSweep = now
	for id, arrived := range c.seen {
		if now.Sub(arrived) > c.retention {
			delete(c.seen, id)
		}
	}
}
