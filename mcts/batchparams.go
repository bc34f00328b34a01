package mcts

import "sync"

// BatchParamsManager sizes target_batch_size when smart_size_batches is
// enabled (§6 "smart_size_batches"). A fixed batch size set by the caller
// is used until at least one real sample has been recorded; after that,
// Size returns the running average of the recorded batch sizes. Recorded
// latencies only gate that switch (their average must be positive) and
// do not change the size; since a recorded batch is never larger than
// the size requested for it, the size never rises above the fixed one.
type BatchParamsManager struct {
	mu        sync.Mutex
	fixed     int
	smartSize bool

	samples    int
	avgLatency float64
	avgSize    float64
}

// NewBatchParamsManager creates a manager with a fixed starting size.
// When smartSize is false, Size always returns fixed.
func NewBatchParamsManager(fixed int, smartSize bool) *BatchParamsManager {
	return &BatchParamsManager{fixed: fixed, smartSize: smartSize}
}

// Record folds one batch's observed (size, latency) into the running
// average (§4.5 "Batch Params Manager").
func (b *BatchParamsManager) Record(size int, latencySeconds float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples++
	n := float64(b.samples)
	b.avgLatency += (latencySeconds - b.avgLatency) / n
	b.avgSize += (float64(size) - b.avgSize) / n
}

// Size returns the batch size to request next. Without smart sizing, or
// before any sample has been recorded, it returns the fixed size.
func (b *BatchParamsManager) Size() int {
	if !b.smartSize {
		return b.fixed
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.samples == 0 || b.avgLatency <= 0 {
		return b.fixed
	}
	// Use the running average of the batch sizes recorded so far.
	target := int(b.avgSize + 0.5)
	if target < 1 {
		target = b.fixed
	}
	return target
}
