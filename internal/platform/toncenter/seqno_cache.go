package toncenter

import (
	"sync"
	"time"
)

// seqnoCache holds the last observed masterchain seqno together with the time
// it was fetched. A refresh is due once the value is older than ttl; failed
// refreshes leave observedAt untouched so the next call retries immediately.
type seqnoCache struct {
	mu         sync.Mutex
	value      int64
	observedAt time.Time
	ttl        time.Duration

	now func() time.Time
}

func newSeqnoCache(ttl time.Duration) *seqnoCache {
	return &seqnoCache{
		ttl: ttl,
		now: time.Now,
	}
}

// get returns the cached value and whether it is still fresh enough to use
// without an upstream call.
func (c *seqnoCache) get() (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.observedAt.IsZero() || c.now().Sub(c.observedAt) >= c.ttl {
		return c.value, false
	}
	return c.value, true
}

// put records a successfully fetched seqno. The stored value never goes
// backwards: a lagging upstream reply cannot overwrite a newer one. Returns
// the value actually kept.
func (c *seqnoCache) put(v int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v > c.value {
		c.value = v
	}
	c.observedAt = c.now()
	return c.value
}

// stale returns the last known value regardless of age, zero if never set.
func (c *seqnoCache) stale() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}
