// internal/resolver/cache.go
//
// TTL cache for custom-domain lookups.
//
// Context
// -------
// Every inbound request for a custom domain would otherwise cost a store
// round-trip.  The cache absorbs that on the hot path with two kinds of
// entries: positive (host → siteID) and negative (host known unmapped),
// the latter on a shorter TTL so unmapped hosts cannot hammer the store
// yet newly bound domains start routing quickly.
//
// Staleness is bounded by TTL expiry rather than invalidation pushes; the
// binding engine additionally calls Invalidate on unlink, remove, and
// reassign so a routing change never outlives the entry that cached it.
//
// Notes
// -----
// • Concurrency-safe; one RWMutex, reads dominate.
// • `now` is swappable so tests can step time instead of sleeping.
package resolver

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Eviction defaults.  The cap bounds what a scan of unmapped hosts can
// grow the negative side of the cache to.
const (
	MaxEntries    = 8192
	EvictInterval = time.Minute
)

type cacheEntry struct {
	siteID string
	miss   bool
	exp    time.Time
}

// HostCache maps request hosts to resolved site IDs with TTL expiry.
type HostCache struct {
	mu         sync.RWMutex
	data       map[string]cacheEntry
	ttl        time.Duration
	negTTL     time.Duration
	maxEntries int
	now        func() time.Time
}

// NewHostCache returns a ready cache.  negTTL should be shorter than ttl.
func NewHostCache(ttl, negTTL time.Duration) *HostCache {
	return &HostCache{
		data:       make(map[string]cacheEntry),
		ttl:        ttl,
		negTTL:     negTTL,
		maxEntries: MaxEntries,
		now:        time.Now,
	}
}

// Get returns (siteID, miss, ok).  ok is true only for a fresh entry; a
// found-but-expired entry is treated by the resolver as absent.  miss marks
// a fresh negative entry, whose siteID is empty.
func (c *HostCache) Get(host string) (siteID string, miss bool, ok bool) {
	c.mu.RLock()
	ent, found := c.data[host]
	c.mu.RUnlock()
	if !found || c.now().After(ent.exp) {
		return "", false, false
	}
	return ent.siteID, ent.miss, true
}

// Put stores a positive mapping.
func (c *HostCache) Put(host, siteID string) {
	c.mu.Lock()
	c.makeRoomLocked()
	c.data[host] = cacheEntry{siteID: siteID, exp: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// PutMiss stores a negative entry on the shorter TTL.
func (c *HostCache) PutMiss(host string) {
	c.mu.Lock()
	c.makeRoomLocked()
	c.data[host] = cacheEntry{miss: true, exp: c.now().Add(c.negTTL)}
	c.mu.Unlock()
}

// makeRoomLocked keeps the map under maxEntries before an insert.  Expired
// entries go first; if the map is still full the soonest-to-expire entries
// go next, which lands on the short-TTL negative side before any positive
// mapping.  Caller holds c.mu.
func (c *HostCache) makeRoomLocked() {
	if c.maxEntries <= 0 || len(c.data) < c.maxEntries {
		return
	}
	now := c.now()
	for h, ent := range c.data {
		if now.After(ent.exp) {
			delete(c.data, h)
		}
	}
	over := len(c.data) - c.maxEntries + 1
	if over <= 0 {
		return
	}
	type kv struct {
		host string
		exp  time.Time
	}
	all := make([]kv, 0, len(c.data))
	for h, ent := range c.data {
		all = append(all, kv{host: h, exp: ent.exp})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].exp.Before(all[j].exp) })
	for i := 0; i < over; i++ {
		delete(c.data, all[i].host)
	}
}

// Sweep drops expired entries.  EvictLoop calls this on a ticker so
// negative entries for one-off hosts do not linger until insert pressure
// forces them out.
func (c *HostCache) Sweep() {
	c.mu.Lock()
	now := c.now()
	for h, ent := range c.data {
		if now.After(ent.exp) {
			delete(c.data, h)
		}
	}
	c.mu.Unlock()
}

// EvictLoop sweeps every interval until ctx is done.  Run it as a
// goroutine from the process bootstrap.
func (c *HostCache) EvictLoop(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.Sweep()
		}
	}
}

// Invalidate drops one host.  Wired into the binding engine so routing
// changes take effect immediately instead of waiting out the TTL.
func (c *HostCache) Invalidate(host string) {
	c.mu.Lock()
	delete(c.data, host)
	c.mu.Unlock()
}

// Len reports live entries, counting expired ones until their next sweep.
func (c *HostCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
