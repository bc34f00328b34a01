package mcts

import (
	"context"
	"time"

	"github.com/kestrelchess/corezero/game"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// FlowConfig controls how a Flow drives selector/evaluator/applier lanes
// (§6 "flow_direct_overlapped").
type FlowConfig struct {
	// Overlapped runs two selector/applier lanes concurrently, each
	// hiding the other's NN round-trip behind virtual loss. When false,
	// a single lane runs select -> evaluate -> apply serially.
	Overlapped bool
	BatchSize  int

	// SmartSizeBatches hands batch sizing to a BatchParamsManager that
	// tracks the average size of the batches sent to the evaluator
	// instead of always requesting BatchSize (§6 "smart_size_batches").
	SmartSizeBatches bool
}

// DefaultFlowConfig returns reasonable defaults.
func DefaultFlowConfig() FlowConfig {
	return FlowConfig{Overlapped: true, BatchSize: 32}
}

// Flow is the Search Flow (§4.5/§4.7): it owns one or two (selector,
// applier) lane pairs sharing a Tree and an Evaluator, and runs batches
// until told to stop.
type Flow struct {
	tree      *Tree
	chain     *EvaluatorChain
	primary   Evaluator
	secondary Evaluator
	cfg       FlowConfig
	selCfg    SelectorConfig
	params    *BatchParamsManager
}

// NewFlow builds a Flow. secondary may be nil (no second-opinion
// evaluator configured).
func NewFlow(tree *Tree, primary, secondary Evaluator, cfg FlowConfig, selCfg SelectorConfig) *Flow {
	return &Flow{
		tree:      tree,
		chain:     NewEvaluatorChain(tree),
		primary:   primary,
		secondary: secondary,
		cfg:       cfg,
		selCfg:    selCfg,
		params:    NewBatchParamsManager(cfg.BatchSize, cfg.SmartSizeBatches),
	}
}

// RunBatches drives the flow until shouldStop returns true or ctx is
// canceled, calling onBatch after each completed batch so callers (the
// Search Manager) can poll limits and dispatch progress. An
// EvaluatorFailure from either lane cancels the other and is returned
// wrapped (§7 "EvaluatorFailure").
func (f *Flow) RunBatches(ctx context.Context, shouldStop func() bool, onBatch func()) error {
	if !f.cfg.Overlapped {
		for !shouldStop() {
			if err := ctx.Err(); err != nil {
				if err == context.Canceled {
					return nil
				}
				return err
			}
			if err := f.runLane(ctx, 0); err != nil {
				return err
			}
			onBatch()
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for lane := 0; lane < Lanes; lane++ {
		lane := lane
		g.Go(func() error {
			for !shouldStop() {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				if err := f.runLane(gctx, lane); err != nil {
					return err
				}
				onBatch()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil && errors.Cause(err) != context.Canceled {
		return err
	}
	return nil
}

// Preload runs depth serial select -> classify -> (NN) -> apply cycles on
// lane 0 before normal batched search begins (§6 "root_preload_depth").
// Each cycle is an ordinary batch of the current batch size, so the root
// and the children these batches select are expanded and visited before
// any lane starts racing on virtual loss. It does not make sure that
// every root child is expanded, and depth counts batches, not plies.
func (f *Flow) Preload(ctx context.Context, depth int) error {
	for i := 0; i < depth; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := f.runLane(ctx, 0); err != nil {
			return err
		}
	}
	return nil
}

// runLane runs one select -> classify -> (NN) -> apply cycle for lane.
func (f *Flow) runLane(ctx context.Context, lane int) error {
	seed := f.tree.root.seed(lane)
	sel := NewSelector(f.tree, f.selCfg, lane, seed)
	leaves, err := sel.SelectBatch(f.params.Size())
	if err != nil {
		return err
	}
	if len(leaves) == 0 {
		return nil
	}

	applier := NewApplier(f.tree)

	pending := make([]Leaf, 0, len(leaves))
	pendingStates := make([]game.State, 0, len(leaves))
	for _, leaf := range leaves {
		outcome := f.chain.Classify(leaf.State, leaf.Hash)
		if outcome.ready {
			if err := applier.Apply(leaf, outcome.result); err != nil {
				return err
			}
			continue
		}
		pending = append(pending, leaf)
		pendingStates = append(pendingStates, leaf.State)
	}

	if len(pending) == 0 {
		return nil
	}

	start := time.Now()
	results, err := f.primary.Infer(pendingStates)
	if err != nil {
		rollbackVirtualLoss(f.tree.store, pending)
		return errors.Wrap(ErrEvaluatorFailure, err.Error())
	}
	f.params.Record(len(pendingStates), time.Since(start).Seconds())
	if len(results) != len(pending) {
		rollbackVirtualLoss(f.tree.store, pending)
		return errors.Wrap(ErrEvaluatorFailure, "evaluator returned a mismatched result count")
	}

	var secondaryResults []NNResult
	if f.secondary != nil {
		secondaryResults, err = f.secondary.Infer(pendingStates)
		if err != nil {
			// Secondary is advisory only: its failure never fails the
			// batch, it just means no second opinion this round.
			secondaryResults = nil
		}
	}

	for i, leaf := range pending {
		leaf := leaf
		state := leaf.State
		ended, outcome := state.Terminal()
		result := nnResultToEval(results[i], state, ended, outcome)
		if secondaryResults != nil {
			result.SecondaryValue = secondaryResults[i].Value
		}
		if err := applier.Apply(leaf, result); err != nil {
			return err
		}
	}
	return nil
}

// nnResultToEval converts a raw evaluator result into an EvalResult,
// filling in legal-move/prior masking (§4.6 item 1) or terminal handling
// if the position turned out to be terminal after all (a leaf can be
// terminal without the chain's cheaper terminal check catching it first
// only if that check is skipped; kept here defensively since Classify
// always runs terminal detection first in the current wiring).
func nnResultToEval(r NNResult, state game.State, ended bool, outcome game.Outcome) EvalResult {
	if ended {
		var v float32
		var term Terminal
		switch outcome {
		case game.Draw:
			v, term = 0, Draw
		default:
			v, term = -1, Checkmate
		}
		return EvalResult{Value: v, Terminal: term}
	}

	legal := state.LegalMoves()
	priors := make([]float32, len(legal))
	for i, mv := range legal {
		if int(mv) < len(r.Policy) {
			priors[i] = r.Policy[mv]
		}
	}
	renormalize(priors)
	return EvalResult{
		Value:      r.Value,
		WDL:        r.WDL,
		MovesLeft:  r.MovesLeft,
		LegalMoves: legal,
		Priors:     priors,
	}
}

// seed derives a selector RNG seed from a root node index and lane so
// root noise differs between lanes but is reproducible for a given root.
func (idx NodeIndex) seed(lane int) uint64 {
	return uint64(idx)*2 + uint64(lane) + 1
}

// rollbackVirtualLoss undoes addInflight along every leaf's path, for
// leaves whose evaluator call failed and that will therefore never reach
// the Batch Applier's backup step (§7 "EvaluatorFailure").
func rollbackVirtualLoss(store *NodeStore, leaves []Leaf) {
	for _, leaf := range leaves {
		for _, idx := range leaf.Path {
			store.Node(idx).removeInflight(leaf.Lane)
		}
	}
}
