package mcts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLimitManagerAllocateMoveNodes(t *testing.T) {
	m := DefaultLimitManager{BaseFraction: 0.1, ThinkHarderMax: 2}
	gameLimit := SearchLimit{Kind: NodesForAllMoves, Nodes: 1000}

	calm := m.AllocateMove(gameLimit, 0, 0)
	volatile := m.AllocateMove(gameLimit, 0, 1)

	assert.Equal(t, NodesPerMove, calm.Kind)
	assert.Greater(t, volatile.Nodes, calm.Nodes, "higher Q volatility should allocate more nodes")
}

func TestDefaultLimitManagerShouldStopNodes(t *testing.T) {
	m := DefaultLimitManager{}
	limit := SearchLimit{Kind: NodesPerMove, Nodes: 100}
	assert.False(t, m.ShouldStop(limit, time.Now(), 50))
	assert.True(t, m.ShouldStop(limit, time.Now(), 100))
}

func TestDefaultLimitManagerShouldStopSeconds(t *testing.T) {
	m := DefaultLimitManager{}
	limit := SearchLimit{Kind: SecondsPerMove, Seconds: 0.01}
	started := time.Now().Add(-20 * time.Millisecond)
	assert.True(t, m.ShouldStop(limit, started, 0))
}
