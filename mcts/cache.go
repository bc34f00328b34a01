package mcts

import (
	"sync"
)

// CacheMode selects whether, and how, a Position Cache participates in a
// search (§3, §6 "cache_mode").
type CacheMode uint8

const (
	// CacheOff disables the cache entirely: lookups always miss, inserts
	// are no-ops.
	CacheOff CacheMode = iota
	// CacheReadOnly serves lookups but never records new evaluations.
	CacheReadOnly
	// CacheReadWrite serves lookups and records new evaluations.
	CacheReadWrite
)

// CacheEntry is a cached NN evaluation, keyed by zobrist hash.
type CacheEntry struct {
	Value      float32
	WDL        [3]float32
	MovesLeft  float32
	Policy     []float32 // dense, indexed the same way the evaluator's raw policy is
}

const cacheShardCount = 64

// shard is a bounded, approximately-FIFO map. Eviction walks a ring of
// the most recently inserted keys rather than tracking true access
// recency, per §4.2 ("a striped ring per shard is acceptable; strict LRU
// is not required").
type shard struct {
	mu   sync.RWMutex
	m    map[uint64]CacheEntry
	ring []uint64
	head int
	cap  int
}

func newShard(capacity int) *shard {
	return &shard{
		m:    make(map[uint64]CacheEntry, capacity),
		ring: make([]uint64, 0, capacity),
		cap:  capacity,
	}
}

func (sh *shard) lookup(hash uint64) (CacheEntry, bool) {
	sh.mu.RLock()
	e, ok := sh.m[hash]
	sh.mu.RUnlock()
	return e, ok
}

func (sh *shard) insert(hash uint64, e CacheEntry) {
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, exists := sh.m[hash]; exists {
		sh.m[hash] = e
		return
	}

	if len(sh.ring) < sh.cap {
		sh.ring = append(sh.ring, hash)
		sh.m[hash] = e
		return
	}

	evict := sh.ring[sh.head]
	delete(sh.m, evict)
	sh.ring[sh.head] = hash
	sh.head = (sh.head + 1) % sh.cap
	sh.m[hash] = e
}

func (sh *shard) len() int {
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return len(sh.m)
}

// PositionCache is a concurrent, bounded mapping from zobrist hash to a
// cached NN evaluation (§3, §4.2). It is internally sharded so that reads
// from many selector goroutines do not serialize on one lock, and writes
// from different shards never contend.
//
// A cache may also be "mined" by a peer Tree: the peer reads through
// PeerLookup but never evicts or inserts into entries it doesn't own
// (§4.2, §4.10).
type PositionCache struct {
	mode   CacheMode
	shards [cacheShardCount]*shard

	peerMu sync.RWMutex
	peer   *PositionCache
}

// NewPositionCache creates a cache in the given mode with roughly
// capacity entries spread evenly across shards.
func NewPositionCache(mode CacheMode, capacity int) *PositionCache {
	c := &PositionCache{mode: mode}
	perShard := capacity / cacheShardCount
	if perShard < 1 {
		perShard = 1
	}
	for i := range c.shards {
		c.shards[i] = newShard(perShard)
	}
	return c
}

// Mode returns the cache's current mode.
func (c *PositionCache) Mode() CacheMode { return c.mode }

// SetMode changes the cache's mode (e.g. disabling writes mid-session).
func (c *PositionCache) SetMode(mode CacheMode) { c.mode = mode }

func (c *PositionCache) shardFor(hash uint64) *shard {
	return c.shards[hash%cacheShardCount]
}

// Lookup consults this cache, and then — if bound — a peer cache, for
// hash. It never writes.
func (c *PositionCache) Lookup(hash uint64) (CacheEntry, bool) {
	if e, ok := c.OwnLookup(hash); ok {
		return e, true
	}
	return c.PeerLookup(hash)
}

// OwnLookup consults only this cache's own shards, ignoring any bound
// peer. Used by the Cache evaluator stage (§4.4 item 2).
func (c *PositionCache) OwnLookup(hash uint64) (CacheEntry, bool) {
	if c.mode == CacheOff {
		return CacheEntry{}, false
	}
	return c.shardFor(hash).lookup(hash)
}

// PeerLookup consults only a bound peer's cache. Used by the Peer-tree
// reuse evaluator stage (§4.4 item 5).
func (c *PositionCache) PeerLookup(hash uint64) (CacheEntry, bool) {
	c.peerMu.RLock()
	peer := c.peer
	c.peerMu.RUnlock()
	if peer == nil {
		return CacheEntry{}, false
	}
	return peer.shardFor(hash).lookup(hash)
}

// Insert records an evaluation, if the cache mode allows writes.
func (c *PositionCache) Insert(hash uint64, e CacheEntry) {
	if c.mode != CacheReadWrite {
		return
	}
	c.shardFor(hash).insert(hash, e)
}

// BindPeer authorizes reads against another cache (§4.10 peer reuse).
// Binding severs the peer's own peer reference first, preventing a chain
// of ever-older contexts from pinning memory transitively (design notes).
func (c *PositionCache) BindPeer(peer *PositionCache) {
	if peer != nil {
		peer.ClearPeer()
	}
	c.peerMu.Lock()
	c.peer = peer
	c.peerMu.Unlock()
}

// ClearPeer severs this cache's peer back-reference.
func (c *PositionCache) ClearPeer() {
	c.peerMu.Lock()
	c.peer = nil
	c.peerMu.Unlock()
}

// Len returns the approximate total number of entries across all shards.
func (c *PositionCache) Len() int {
	total := 0
	for _, sh := range c.shards {
		total += sh.len()
	}
	return total
}
