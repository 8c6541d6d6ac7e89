// Package cache provides the result cache for the adjustment pipeline: a
// sharded, byte-budgeted LRU memoizing pass outputs per tile.
//
// Invalidation is implicit through key composition. A key covers the image
// identity, the hash of the adjustment-stack prefix feeding its pass, the
// tile, and the pass. Changing any single adjustment changes the prefix
// hash of every pass at or after it, while earlier passes keep their keys
// and stay hits. The only explicit invalidation is FlushImage, used when
// the active source image or folder changes.
package cache

import (
	"hash/fnv"
	"sync"
	"sync/atomic"
)

// Default configuration constants.
const (
	// shardCount is the number of shards for reduced lock contention.
	// Must be a power of 2 for fast modulo via bitwise AND.
	shardCount = 16

	// shardMask is used for fast shard selection.
	shardMask = shardCount - 1

	// DefaultBudget is the default total memory budget in bytes.
	DefaultBudget = 512 << 20
)

// Key identifies one pass output for one tile of one image.
type Key struct {
	// ImageID is the source image identity.
	ImageID string

	// StackHash is the chained hash of the adjustment-stack prefix up to
	// and including the pass's group.
	StackHash uint64

	// TileID is the tile index within the grid.
	TileID int

	// PassID is the pass index within the compiled pass list.
	PassID int
}

// hash mixes all key fields with FNV-1a for shard selection.
func (k Key) hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(k.ImageID)) // fnv.Write never returns an error
	var buf [24]byte
	putUint64(buf[0:8], k.StackHash)
	putUint64(buf[8:16], uint64(k.TileID))
	putUint64(buf[16:24], uint64(k.PassID))
	_, _ = h.Write(buf[:])
	return h.Sum64()
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

// Sized is implemented by cached values that can report their memory
// footprint. The cache accounts entries against its byte budget using it.
type Sized interface {
	ByteSize() int
}

// Cache is a thread-safe, sharded LRU result cache with a byte budget.
//
// Features:
//   - 16 shards for reduced lock contention
//   - LRU eviction once the byte budget is exceeded
//   - content-length verification on every hit
//   - atomic statistics for monitoring
type Cache[V Sized] struct {
	shards [shardCount]*shard[V]
	budget int64 // per-shard byte budget

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// shard is a single shard of the cache with its own lock.
type shard[V Sized] struct {
	mu      sync.Mutex
	entries map[Key]*entry[V]
	lru     *lruList[Key]
	bytes   int64
}

// entry holds a cached value, its LRU node, and the content length recorded
// at Put time. The length is re-checked on Get; a mismatch means the entry
// was corrupted and is treated as a miss.
type entry[V Sized] struct {
	value  V
	length int
	node   *lruNode[Key]
}

// New creates a result cache with the given total byte budget.
// A budget <= 0 uses DefaultBudget.
func New[V Sized](budget int64) *Cache[V] {
	if budget <= 0 {
		budget = DefaultBudget
	}

	c := &Cache[V]{budget: budget / shardCount}
	for i := range c.shards {
		c.shards[i] = &shard[V]{
			entries: make(map[Key]*entry[V]),
			lru:     &lruList[Key]{},
		}
	}
	return c
}

// getShard returns the shard for a given key.
func (c *Cache[V]) getShard(key Key) *shard[V] {
	return c.shards[key.hash()&shardMask]
}

// Get retrieves a cached pass output.
// Returns (value, true) on an exact key match whose stored length still
// matches the value's current length; any mismatch evicts the entry and
// reports a miss.
func (c *Cache[V]) Get(key Key) (V, bool) {
	s := c.getShard(key)

	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		c.misses.Add(1)
		var zero V
		return zero, false
	}

	if e.value.ByteSize() != e.length {
		// Should be unreachable given the hash contract; treat as a miss
		// and recompute rather than serve a corrupt buffer.
		s.lru.Remove(e.node)
		delete(s.entries, key)
		s.bytes -= int64(e.length)
		s.mu.Unlock()
		c.evictions.Add(1)
		c.misses.Add(1)
		var zero V
		return zero, false
	}

	s.lru.MoveToFront(e.node)
	value := e.value
	s.mu.Unlock()

	c.hits.Add(1)
	return value, true
}

// Put stores a pass output. If the shard exceeds its byte budget after
// insertion, least-recently-used entries are evicted.
//
// The value is stored as-is (not copied). Callers must not modify it after
// caching; the executor clones buffers it intends to keep writing to.
func (c *Cache[V]) Put(key Key, value V) {
	s := c.getShard(key)
	size := int64(value.ByteSize())

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entries[key]; ok {
		s.bytes += size - int64(existing.length)
		existing.value = value
		existing.length = value.ByteSize()
		s.lru.MoveToFront(existing.node)
		c.evictOver(s)
		return
	}

	node := s.lru.PushFront(key)
	s.entries[key] = &entry[V]{
		value:  value,
		length: value.ByteSize(),
		node:   node,
	}
	s.bytes += size
	c.evictOver(s)
}

// evictOver drops LRU entries until the shard is back under budget.
// Caller must hold s.mu.
func (c *Cache[V]) evictOver(s *shard[V]) {
	for s.bytes > c.budget && s.lru.Len() > 1 {
		oldest, ok := s.lru.RemoveOldest()
		if !ok {
			return
		}
		if e, ok := s.entries[oldest]; ok {
			s.bytes -= int64(e.length)
			delete(s.entries, oldest)
			c.evictions.Add(1)
		}
	}
}

// FlushImage removes every entry belonging to the given image.
// Called on image or folder switches, when stale per-image entries have no
// future reuse value.
func (c *Cache[V]) FlushImage(imageID string) {
	for _, s := range c.shards {
		s.mu.Lock()
		for key, e := range s.entries {
			if key.ImageID == imageID {
				s.lru.Remove(e.node)
				s.bytes -= int64(e.length)
				delete(s.entries, key)
				c.evictions.Add(1)
			}
		}
		s.mu.Unlock()
	}
}

// Clear removes all entries from the cache.
func (c *Cache[V]) Clear() {
	for _, s := range c.shards {
		s.mu.Lock()
		s.entries = make(map[Key]*entry[V])
		s.lru.Clear()
		s.bytes = 0
		s.mu.Unlock()
	}
}

// Len returns the total number of entries across all shards.
func (c *Cache[V]) Len() int {
	total := 0
	for _, s := range c.shards {
		s.mu.Lock()
		total += len(s.entries)
		s.mu.Unlock()
	}
	return total
}

// Bytes returns the total bytes currently held across all shards.
func (c *Cache[V]) Bytes() int64 {
	var total int64
	for _, s := range c.shards {
		s.mu.Lock()
		total += s.bytes
		s.mu.Unlock()
	}
	return total
}

// Budget returns the total byte budget.
func (c *Cache[V]) Budget() int64 {
	return c.budget * shardCount
}

// Stats holds point-in-time cache statistics.
type Stats struct {
	Len       int
	Bytes     int64
	Budget    int64
	Hits      uint64
	Misses    uint64
	HitRate   float64
	Evictions uint64
}

// Stats returns current cache statistics.
func (c *Cache[V]) Stats() Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return Stats{
		Len:       c.Len(),
		Bytes:     c.Bytes(),
		Budget:    c.Budget(),
		Hits:      hits,
		Misses:    misses,
		HitRate:   hitRate,
		Evictions: c.evictions.Load(),
	}
}

// ResetStats resets all statistics counters to zero.
func (c *Cache[V]) ResetStats() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.evictions.Store(0)
}
