package mcts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeStoreAllocNode(t *testing.T) {
	s := NewNodeStore(4, 8)
	assert.Equal(t, 0, s.Size())

	idx1, err := s.AllocNode()
	require.NoError(t, err)
	assert.True(t, idx1.Valid())

	idx2, err := s.AllocNode()
	require.NoError(t, err)
	assert.NotEqual(t, idx1, idx2)
	assert.Equal(t, 2, s.Size())
}

func TestNodeStoreExhaustion(t *testing.T) {
	s := NewNodeStore(2, 4)
	_, err := s.AllocNode()
	require.NoError(t, err)
	_, err = s.AllocNode()
	require.ErrorIs(t, err, ErrStoreExhausted)
}

func TestNodeStoreFreeListReuse(t *testing.T) {
	s := NewNodeStore(3, 4)
	idx1, err := s.AllocNode()
	require.NoError(t, err)
	idx2, err := s.AllocNode()
	require.NoError(t, err)

	s.Node(idx1).n.Add(5)
	s.Free(idx1)

	reused, err := s.AllocNode()
	require.NoError(t, err)
	assert.Equal(t, idx1, reused)
	assert.Equal(t, uint32(0), s.Node(reused).Visits(), "freed node must come back zeroed")
	_ = idx2
}

func TestNodeStoreAllocChildren(t *testing.T) {
	s := NewNodeStore(4, 8)
	start, err := s.AllocChildren(3)
	require.NoError(t, err)
	slots := s.ChildSlots(start, 3)
	assert.Len(t, slots, 3)

	_, err = s.AllocChildren(10)
	require.ErrorIs(t, err, ErrStoreExhausted)
}
