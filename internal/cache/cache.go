// Package cache provides the bounded, time-expiring memoizers used on the
// search path. Entries expire a fixed TTL after insertion regardless of access;
// once the total entry count exceeds capacity the least-recently-used entry
// across all shards is evicted. GetOrCompute runs at most one computation per
// key at a time and hands its result to every waiter.
package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"
)

// Recorder receives hit/miss/eviction notifications, typically Prometheus counters.
type Recorder interface {
	CacheHit(name string)
	CacheMiss(name string)
	CacheEviction(name string)
}

// Options configures a Cache. Capacity <= 0 disables size eviction and
// TTL <= 0 disables expiry.
type Options struct {
	Name     string
	Capacity int
	TTL      time.Duration
	Shards   int
	Recorder Recorder
	Now      func() time.Time
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Entries   int   `json:"entries"`
	Capacity  int   `json:"capacity"`
}

// Cache is a string-keyed LRU+TTL cache split into independently locked shards.
// Capacity bounds the entry count of the whole cache, not of each shard.
type Cache[V any] struct {
	name     string
	capacity int
	ttl      time.Duration
	now      func() time.Time
	recorder Recorder
	shards   []*shard[V]

	size atomic.Int64
	// clock orders accesses across shards for LRU victim selection.
	clock atomic.Uint64
	// generation advances on every RemoveIf and Purge; computations started
	// under an older generation are returned but not stored.
	generation atomic.Uint64
	evictMu    sync.Mutex

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

type shard[V any] struct {
	mu    sync.Mutex
	items map[string]*list.Element
	lru   *list.List
	group singleflight.Group
}

type entry[V any] struct {
	key      string
	value    V
	storedAt time.Time
	used     uint64
}

// New creates a cache.
func New[V any](opts Options) *Cache[V] {
	shards := opts.Shards
	if shards <= 0 {
		shards = 1
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	c := &Cache[V]{
		name:     opts.Name,
		capacity: opts.Capacity,
		ttl:      opts.TTL,
		now:      now,
		recorder: opts.Recorder,
		shards:   make([]*shard[V], shards),
	}
	for i := range c.shards {
		c.shards[i] = &shard[V]{
			items: make(map[string]*list.Element),
			lru:   list.New(),
		}
	}
	return c
}

func (c *Cache[V]) shardFor(key string) *shard[V] {
	if len(c.shards) == 1 {
		return c.shards[0]
	}
	return c.shards[xxhash.Sum64String(key)%uint64(len(c.shards))]
}

func (c *Cache[V]) get(key string) (V, bool) {
	v, ok := c.lookup(c.shardFor(key), key)
	if ok {
		c.hit()
	} else {
		c.miss()
	}
	return v, ok
}

func (c *Cache[V]) set(key string, value V) {
	c.store(c.shardFor(key), key, value, c.generation.Load())
}

// GetOrCompute returns the cached value for key, or runs compute, stores its
// result and returns it. Concurrent callers for the same missing key share one
// compute call. The boolean reports whether the value came from the cache.
// Errors from compute are returned to every waiter and nothing is stored.
// A result whose computation overlapped a RemoveIf or Purge is not stored.
func (c *Cache[V]) GetOrCompute(key string, compute func() (V, error)) (V, bool, error) {
	s := c.shardFor(key)
	if v, ok := c.lookup(s, key); ok {
		c.hit()
		return v, true, nil
	}
	c.miss()
	val, err, _ := s.group.Do(key, func() (interface{}, error) {
		if v, ok := c.lookup(s, key); ok {
			return v, nil
		}
		gen := c.generation.Load()
		v, err := compute()
		if err != nil {
			return nil, err
		}
		c.store(s, key, v, gen)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, false, err
	}
	return val.(V), false, nil
}

// RemoveIf drops every entry whose key satisfies match and returns how many
// were removed.
func (c *Cache[V]) RemoveIf(match func(key string) bool) int {
	c.generation.Add(1)
	removed := 0
	for _, s := range c.shards {
		s.mu.Lock()
		for key, el := range s.items {
			if match(key) {
				c.remove(s, el)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

// Purge drops every entry.
func (c *Cache[V]) Purge() {
	c.generation.Add(1)
	for _, s := range c.shards {
		s.mu.Lock()
		c.size.Add(-int64(s.lru.Len()))
		s.items = make(map[string]*list.Element)
		s.lru.Init()
		s.mu.Unlock()
	}
}

// Len counts stored entries, including expired ones not yet reclaimed.
func (c *Cache[V]) Len() int {
	return int(c.size.Load())
}

// Stats returns the current counters.
func (c *Cache[V]) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Entries:   c.Len(),
		Capacity:  c.capacity,
	}
}

func (c *Cache[V]) lookup(s *shard[V], key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	ent := el.Value.(*entry[V])
	if c.expired(ent) {
		c.remove(s, el)
		var zero V
		return zero, false
	}
	ent.used = c.clock.Add(1)
	s.lru.MoveToFront(el)
	return ent.value, true
}

func (c *Cache[V]) store(s *shard[V], key string, value V, gen uint64) {
	s.mu.Lock()
	if c.generation.Load() != gen {
		s.mu.Unlock()
		return
	}
	now := c.now()
	used := c.clock.Add(1)
	if el, ok := s.items[key]; ok {
		ent := el.Value.(*entry[V])
		ent.value = value
		ent.storedAt = now
		ent.used = used
		s.lru.MoveToFront(el)
		s.mu.Unlock()
		return
	}
	s.items[key] = s.lru.PushFront(&entry[V]{key: key, value: value, storedAt: now, used: used})
	s.mu.Unlock()
	c.size.Add(1)
	c.evict()
}

// evict removes least-recently-used entries until the cache is within
// capacity. Each shard's list is ordered by use, so the global victim is the
// back entry with the smallest use stamp.
func (c *Cache[V]) evict() {
	if c.capacity <= 0 || c.size.Load() <= int64(c.capacity) {
		return
	}
	c.evictMu.Lock()
	defer c.evictMu.Unlock()
	for c.size.Load() > int64(c.capacity) {
		var (
			victim *shard[V]
			oldest uint64
		)
		for _, s := range c.shards {
			s.mu.Lock()
			if back := s.lru.Back(); back != nil {
				if used := back.Value.(*entry[V]).used; victim == nil || used < oldest {
					victim, oldest = s, used
				}
			}
			s.mu.Unlock()
		}
		if victim == nil {
			return
		}
		victim.mu.Lock()
		if back := victim.lru.Back(); back != nil {
			c.remove(victim, back)
			c.evictions.Add(1)
			if c.recorder != nil {
				c.recorder.CacheEviction(c.name)
			}
		}
		victim.mu.Unlock()
	}
}

func (c *Cache[V]) expired(ent *entry[V]) bool {
	return c.ttl > 0 && c.now().Sub(ent.storedAt) >= c.ttl
}

func (c *Cache[V]) hit() {
	c.hits.Add(1)
	if c.recorder != nil {
		c.recorder.CacheHit(c.name)
	}
}

func (c *Cache[V]) miss() {
	c.misses.Add(1)
	if c.recorder != nil {
		c.recorder.CacheMiss(c.name)
	}
}

// remove unlinks el from s. The caller holds s.mu.
func (c *Cache[V]) remove(s *shard[V], el *list.Element) {
	s.lru.Remove(el)
	delete(s.items, el.Value.(*entry[V]).key)
	c.size.Add(-1)
}
