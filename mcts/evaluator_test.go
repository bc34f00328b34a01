package mcts

import (
	"testing"

	"github.com/kestrelchess/corezero/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluatorChainClassifyTerminal(t *testing.T) {
	pos, err := game.NewPositionFromFEN("6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1")
	require.NoError(t, err)

	store := NewNodeStore(1<<10, 1<<12)
	cache := NewPositionCache(CacheReadWrite, 256)
	tree, err := NewTree(store, cache, pos)
	require.NoError(t, err)
	chain := NewEvaluatorChain(tree)

	mateMove := findMateMove(t, pos)
	mated := pos.Apply(mateMove)

	outcome := chain.Classify(mated, mated.Hash())
	require.True(t, outcome.ready)
	assert.False(t, outcome.needsNN)
	assert.Equal(t, Checkmate, outcome.result.Terminal)
}

func TestEvaluatorChainClassifyCacheHit(t *testing.T) {
	pos := game.NewPosition()
	store := NewNodeStore(1<<10, 1<<12)
	cache := NewPositionCache(CacheReadWrite, 256)
	tree, err := NewTree(store, cache, pos)
	require.NoError(t, err)
	chain := NewEvaluatorChain(tree)

	cache.Insert(pos.Hash(), CacheEntry{Value: 0.42})

	outcome := chain.Classify(pos, pos.Hash())
	require.True(t, outcome.ready)
	assert.Equal(t, float32(0.42), outcome.result.Value)
}

func TestEvaluatorChainDefersToNNWhenUnclassified(t *testing.T) {
	pos := game.NewPosition()
	store := NewNodeStore(1<<10, 1<<12)
	cache := NewPositionCache(CacheOff, 256)
	tree, err := NewTree(store, cache, pos)
	require.NoError(t, err)
	chain := NewEvaluatorChain(tree)

	outcome := chain.Classify(pos, pos.Hash())
	assert.False(t, outcome.ready)
	assert.True(t, outcome.needsNN)
}

func TestEvaluatorChainClassifyPeerTree(t *testing.T) {
	pos := game.NewPosition()
	store := NewNodeStore(1<<10, 1<<12)
	cache := NewPositionCache(CacheReadOnly, 256)
	tree, err := NewTree(store, cache, pos)
	require.NoError(t, err)

	peerCache := NewPositionCache(CacheReadWrite, 256)
	peerCache.Insert(pos.Hash(), CacheEntry{Value: 0.77})
	tree.cache.BindPeer(peerCache)

	chain := NewEvaluatorChain(tree)
	outcome := chain.Classify(pos, pos.Hash())
	require.True(t, outcome.ready)
	assert.Equal(t, float32(0.77), outcome.result.Value)
}
