package mcts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPositionCacheReadWrite(t *testing.T) {
	c := NewPositionCache(CacheReadWrite, 64)
	_, ok := c.OwnLookup(42)
	assert.False(t, ok)

	c.Insert(42, CacheEntry{Value: 0.5})
	e, ok := c.OwnLookup(42)
	assert.True(t, ok)
	assert.Equal(t, float32(0.5), e.Value)
}

func TestPositionCacheReadOnlyNeverWrites(t *testing.T) {
	c := NewPositionCache(CacheReadOnly, 64)
	c.Insert(1, CacheEntry{Value: 1})
	_, ok := c.OwnLookup(1)
	assert.False(t, ok)
}

func TestPositionCacheOffAlwaysMisses(t *testing.T) {
	c := NewPositionCache(CacheOff, 64)
	c.Insert(1, CacheEntry{Value: 1})
	_, ok := c.OwnLookup(1)
	assert.False(t, ok)
}

func TestPositionCacheEviction(t *testing.T) {
	c := NewPositionCache(CacheReadWrite, cacheShardCount) // 1 slot/shard
	sh := c.shardFor(1)
	for i := uint64(0); i < 5; i++ {
		key := 1 + i*cacheShardCount // all map to the same shard
		c.Insert(key, CacheEntry{Value: float32(i)})
	}
	assert.LessOrEqual(t, sh.len(), 1)
}

func TestPositionCachePeerLookupAndClear(t *testing.T) {
	owner := NewPositionCache(CacheReadWrite, 64)
	owner.Insert(7, CacheEntry{Value: 0.25})

	reader := NewPositionCache(CacheReadOnly, 64)
	reader.BindPeer(owner)

	e, ok := reader.PeerLookup(7)
	assert.True(t, ok)
	assert.Equal(t, float32(0.25), e.Value)

	_, ok = reader.OwnLookup(7)
	assert.False(t, ok, "peer entries must not leak into OwnLookup")

	reader.ClearPeer()
	_, ok = reader.PeerLookup(7)
	assert.False(t, ok)
}

func TestPositionCacheBindPeerSeversTransitiveChain(t *testing.T) {
	a := NewPositionCache(CacheReadWrite, 64)
	b := NewPositionCache(CacheReadWrite, 64)
	c := NewPositionCache(CacheReadWrite, 64)

	b.BindPeer(a)
	c.BindPeer(b)

	// Binding b as c's peer must have severed b's own peer (a), so a
	// reader through c only ever reaches b, never transitively to a.
	_, ok := b.PeerLookup(1)
	assert.False(t, ok)
}
