package cache

import (
	"sync"
	"time"
)

type ttlEntry struct {
	value []byte
	exp   time.Time
}

func (e ttlEntry) live(now time.Time) bool {
	return e.exp.IsZero() || now.Before(e.exp)
}

// TTLCache is an in-process BytesCache for single-instance deployments
// where redis is not configured. Expired entries are evicted lazily on Get.
type TTLCache struct {
	mu      sync.RWMutex
	entries map[string]ttlEntry
}

func NewTTLCache() *TTLCache {
	return &TTLCache{entries: make(map[string]ttlEntry)}
}

func (c *TTLCache) GetBytes(key string) ([]byte, bool, error) {
	now := time.Now()

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.live(now) {
		c.mu.Lock()
		if e, ok = c.entries[key]; ok && !e.live(now) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false, nil
	}
	return e.value, true, nil
}

// SetBytes stores value under key; ttl <= 0 means no expiry.
func (c *TTLCache) SetBytes(key string, value []byte, ttl time.Duration) error {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = ttlEntry{value: value, exp: exp}
	c.mu.Unlock()
	return nil
}
