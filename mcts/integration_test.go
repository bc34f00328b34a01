package mcts

import (
	"context"
	"testing"

	"github.com/kestrelchess/corezero/game"
	"github.com/stretchr/testify/require"
)

// flatEvaluator is a minimal Evaluator: value 0, uniform policy. Good
// enough to drive the tree since true terminal detection happens in the
// EvaluatorChain's terminal stage, independent of what the evaluator
// says, per §4.4 item 1.
type flatEvaluator struct{}

func (flatEvaluator) Infer(positions []game.State) ([]NNResult, error) {
	out := make([]NNResult, len(positions))
	for i, p := range positions {
		policy := make([]float32, p.ActionSpace())
		legal := p.LegalMoves()
		if len(legal) > 0 {
			pr := 1 / float32(len(legal))
			for _, mv := range legal {
				policy[mv] = pr
			}
		}
		out[i] = NNResult{Value: 0, WDL: [3]float32{0.34, 0.32, 0.34}, MovesLeft: 10, Policy: policy}
	}
	return out, nil
}
func (flatEvaluator) Warmup() error                  { return nil }
func (flatEvaluator) CalcStatistics() EvaluatorStats { return EvaluatorStats{} }
func (flatEvaluator) Identity() EvaluatorIdentity    { return EvaluatorIdentity{NetworkID: "flat"} }

// TestSelectBatchFindsForcedMate runs enough search batches from a
// known mate-in-1 position that the most-visited root child must be the
// mating move (spec §8, scenario "forced mate-in-1").
func TestSelectBatchFindsForcedMate(t *testing.T) {
	// White to move, Ra1-a8 is mate.
	pos, err := game.NewPositionFromFEN("6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1")
	require.NoError(t, err)

	store := NewNodeStore(1<<14, 1<<16)
	cache := NewPositionCache(CacheReadWrite, 1<<12)
	tree, err := NewTree(store, cache, pos)
	require.NoError(t, err)

	flow := NewFlow(tree, flatEvaluator{}, nil, FlowConfig{Overlapped: false, BatchSize: 8}, DefaultSelectorConfig())

	batches := 0
	err = flow.RunBatches(context.Background(), func() bool {
		batches++
		return batches > 60
	}, func() {})
	require.NoError(t, err)

	root := store.Node(tree.Root())
	require.True(t, root.HasChildren())
	slots := store.ChildSlots(root.ChildrenStart(), root.NumPolicyMoves())

	mateMove := findMateMove(t, pos)

	var bestMove int32
	var bestN uint32
	for _, slot := range slots {
		if !slot.Child.Valid() {
			continue
		}
		n := store.Node(slot.Child).Visits()
		if n > bestN {
			bestN = n
			bestMove = slot.Move
		}
	}

	require.Equal(t, int32(mateMove), bestMove, "expected the only mating move to be the most-visited root move")
}

// findMateMove returns the single legal move from pos that delivers
// checkmate, failing the test if there isn't exactly one.
func findMateMove(t *testing.T, pos game.State) game.Move {
	t.Helper()
	var found game.Move
	count := 0
	for _, mv := range pos.LegalMoves() {
		next := pos.Apply(mv)
		ended, outcome := next.Terminal()
		if ended && outcome != game.Draw {
			found = mv
			count++
		}
	}
	require.Equal(t, 1, count, "expected exactly one mating move in this position")
	return found
}
