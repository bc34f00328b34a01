package mcts

import (
	"context"
	"testing"

	"github.com/kestrelchess/corezero/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeReRootUnexploredMoveStartsFresh(t *testing.T) {
	pos := game.NewPosition()
	store := NewNodeStore(1<<12, 1<<14)
	cache := NewPositionCache(CacheReadWrite, 256)
	tree, err := NewTree(store, cache, pos)
	require.NoError(t, err)

	legal := pos.LegalMoves()
	require.NotEmpty(t, legal)
	originalRoot := tree.Root()

	fraction, err := tree.ReRoot([]game.Move{legal[0]})
	require.NoError(t, err)
	assert.Zero(t, fraction)
	assert.NotEqual(t, originalRoot, tree.Root())
}

func TestTreeReRootAfterSearchReusesVisitedSubtree(t *testing.T) {
	pos := game.NewPosition()
	store := NewNodeStore(1<<14, 1<<16)
	cache := NewPositionCache(CacheReadWrite, 1<<10)
	tree, err := NewTree(store, cache, pos)
	require.NoError(t, err)

	flow := NewFlow(tree, flatEvaluator{}, nil, FlowConfig{Overlapped: false, BatchSize: 8}, DefaultSelectorConfig())
	batches := 0
	err = flow.RunBatches(context.Background(), func() bool {
		batches++
		return batches > 20
	}, func() {})
	require.NoError(t, err)

	root := store.Node(tree.Root())
	require.True(t, root.HasChildren())
	slots := store.ChildSlots(root.ChildrenStart(), root.NumPolicyMoves())

	var mostVisited int32
	var bestN uint32
	for _, slot := range slots {
		if slot.Child.Valid() && store.Node(slot.Child).Visits() > bestN {
			bestN = store.Node(slot.Child).Visits()
			mostVisited = slot.Move
		}
	}
	require.Greater(t, bestN, uint32(0))

	fraction, err := tree.ReRoot([]game.Move{game.Move(mostVisited)})
	require.NoError(t, err)
	assert.Greater(t, fraction, 0.0)
	assert.Equal(t, bestN, store.Node(tree.Root()).Visits())
}
