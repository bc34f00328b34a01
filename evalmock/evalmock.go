// Package evalmock provides a deterministic, dependency-free Evaluator
// for exercising the search core without a real neural network: uniform
// policy over legal moves, value 0, used by cmd/selfplay, cmd/dumptree
// and the corezero package's session tests (spec §8 "testable
// properties"). The mcts package's own tests use their own flat
// evaluator, since importing this package from them would be a cycle.
package evalmock

import (
	"github.com/kestrelchess/corezero/game"
	"github.com/kestrelchess/corezero/mcts"
)

// Evaluator always returns value 0, a flat WDL, and a uniform policy
// over each position's legal moves.
type Evaluator struct {
	id mcts.EvaluatorIdentity
}

// New creates a mock evaluator identified by name, so two sessions
// sharing a name compare equal for peer-reuse authorization.
func New(name string) *Evaluator {
	return &Evaluator{id: mcts.EvaluatorIdentity{NetworkID: name, DataType: "mock", InputEncoding: "dense"}}
}

// Infer implements mcts.Evaluator.
func (e *Evaluator) Infer(positions []game.State) ([]mcts.NNResult, error) {
	out := make([]mcts.NNResult, len(positions))
	for i, pos := range positions {
		policy := make([]float32, pos.ActionSpace())
		legal := pos.LegalMoves()
		if len(legal) > 0 {
			p := 1 / float32(len(legal))
			for _, mv := range legal {
				policy[mv] = p
			}
		}
		out[i] = mcts.NNResult{
			Value:     0,
			WDL:       [3]float32{0.34, 0.32, 0.34},
			MovesLeft: 40,
			Policy:    policy,
		}
	}
	return out, nil
}

// Warmup implements mcts.Evaluator.
func (e *Evaluator) Warmup() error { return nil }

// CalcStatistics implements mcts.Evaluator.
func (e *Evaluator) CalcStatistics() mcts.EvaluatorStats {
	return mcts.EvaluatorStats{}
}

// Identity implements mcts.Evaluator.
func (e *Evaluator) Identity() mcts.EvaluatorIdentity { return e.id }
