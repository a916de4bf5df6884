// Package rangecache memoizes the known min/max observation timestamps per
// network/region/facility key so boundary-sensitive queries do not hit the
// store on every request.
package rangecache

import (
	"container/list"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	// DefaultTTL is how long a cached range stays valid. Availability
	// boundaries move slowly; 15 minutes keeps them near-fresh without
	// hammering the store.
	DefaultTTL = 15 * time.Minute

	// DefaultCapacity bounds the cache; one entry per distinct code set.
	DefaultCapacity = 100
)

// Range is the earliest/latest observation available for a cache key.
type Range struct {
	Start time.Time
	End   time.Time
}

// Provider is the upstream boundary query. I/O failures surface to the
// caller unchanged; the cache performs no retries.
type Provider interface {
	ObservationRange(ctx context.Context, networks, facilities []string) (Range, error)
}

// Key is the canonical form of a code set: deduplicated, upper-cased,
// sorted, comma-joined. Order and case of the input never matter.
type Key string

// NewKey canonicalizes a set of network and facility codes.
func NewKey(codes ...string) Key {
	seen := make(map[string]struct{}, len(codes))
	kept := make([]string, 0, len(codes))
	for _, c := range codes {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		kept = append(kept, c)
	}
	sort.Strings(kept)
	return Key(strings.Join(kept, ","))
}

type entry struct {
	key        Key
	rng        Range
	insertedAt time.Time
}

// Cache is a bounded, TTL-expiring map over the boundary query. Safe for
// concurrent use; concurrent misses for one key collapse into a single
// upstream call.
type Cache struct {
	provider Provider
	capacity int
	ttl      time.Duration

	mu      sync.Mutex
	entries map[Key]*list.Element
	order   *list.List

	group singleflight.Group
	nowFn func() time.Time
}

// New creates a cache over provider. Non-positive capacity or ttl fall back
// to the defaults.
func New(provider Provider, capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		provider: provider,
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[Key]*list.Element),
		order:    list.New(),
		nowFn:    time.Now,
	}
}

// Get returns the availability range for the given code sets, fetching from
// the provider on a miss or an expired entry.
func (c *Cache) Get(ctx context.Context, networks, facilities []string) (Range, error) {
	key := NewKey(append(append([]string{}, networks...), facilities...)...)

	if rng, ok := c.lookup(key); ok {
		return rng, nil
	}

	v, err, _ := c.group.Do(string(key), func() (interface{}, error) {
		// Another caller may have filled the entry while this one waited
		// on the flight.
		if rng, ok := c.lookup(key); ok {
			return rng, nil
		}
		rng, err := c.provider.ObservationRange(ctx, networks, facilities)
		if err != nil {
			return Range{}, fmt.Errorf("boundary query for %q: %w", key, err)
		}
		c.put(key, rng)
		return rng, nil
	})
	if err != nil {
		return Range{}, err
	}
	return v.(Range), nil
}

// lookup returns a fresh entry if present. Expired entries are left in place
// for LRU eviction rather than removed eagerly.
func (c *Cache) lookup(key Key) (Range, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return Range{}, false
	}
	e := elem.Value.(*entry)
	if c.nowFn().Sub(e.insertedAt) >= c.ttl {
		return Range{}, false
	}
	c.order.MoveToFront(elem)
	return e.rng, true
}

// put inserts an entry, evicting the least recently used when full. Entries
// are immutable once inserted; a re-insert replaces wholesale.
func (c *Cache) put(key Key, rng Range) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.order.MoveToFront(elem)
		elem.Value = &entry{key: key, rng: rng, insertedAt: c.nowFn()}
		return
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			delete(c.entries, oldest.Value.(*entry).key)
			c.order.Remove(oldest)
		}
	}

	c.entries[key] = c.order.PushFront(&entry{key: key, rng: rng, insertedAt: c.nowFn()})
}

// Len reports the current entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
