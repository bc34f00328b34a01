package mcts

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNodeApplyVisitAccumulates(t *testing.T) {
	var n Node
	n.addInflight(0)
	n.applyVisit(0, 1, 0.1, 0.2, 30)
	n.applyVisit(0, -1, 0.3, 0.1, 32)

	assert.Equal(t, uint32(2), n.Visits())
	assert.InDelta(t, 0, n.Q(), 1e-6)
	assert.InDelta(t, 0.4, n.WDraw(), 1e-6)
	assert.InDelta(t, 0.3, n.WLoss(), 1e-6)
	assert.InDelta(t, 31, n.MAvg(), 1e-6)
}

func TestNodeApplyVisitConcurrent(t *testing.T) {
	var n Node
	var wg sync.WaitGroup
	const goroutines = 50
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n.addInflight(0)
			n.applyVisit(0, 1, 0, 0, 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, uint32(goroutines), n.Visits())
	assert.InDelta(t, 1, n.Q(), 1e-6)
	assert.Equal(t, uint32(0), n.InflightVisits(0))
}
