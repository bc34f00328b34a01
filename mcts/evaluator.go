package mcts

import "github.com/kestrelchess/corezero/game"

// EvaluatorIdentity names the network/config a peer-reuse check compares
// (§4.10 "Peer reuse compatibility": same network id, data type, input
// encoding).
type EvaluatorIdentity struct {
	NetworkID     string
	DataType      string
	InputEncoding string
}

// Equal reports whether two identities are compatible for peer reuse.
func (id EvaluatorIdentity) Equal(other EvaluatorIdentity) bool {
	return id == other
}

// NNResult is one position's worth of evaluator output (§6 "Evaluator
// contract"): a value, a WDL triple, a moves-left estimate, and a dense
// policy vector indexed by the game's move encoding.
type NNResult struct {
	Value     float32
	WDL       [3]float32
	MovesLeft float32
	Policy    []float32
}

// EvaluatorStats is what CalcStatistics reports: the evaluator's
// throughput/latency history (§4.5). The Batch Params Manager does not
// read it; it records its own per-batch samples.
type EvaluatorStats struct {
	BatchesServed    uint64
	AverageBatchSize float32
	AverageLatencyMS float32
}

// Evaluator is the NN evaluator contract (§6). It is an external
// collaborator: the core never evaluates positions itself, it only calls
// this interface with a batch of positions and reads back policy/value/
// WDL/moves-left.
type Evaluator interface {
	// Infer evaluates a batch of positions in one call.
	Infer(positions []game.State) ([]NNResult, error)
	// Warmup lets the evaluator pre-size internal buffers/pipelines.
	Warmup() error
	// CalcStatistics reports throughput/latency history.
	CalcStatistics() EvaluatorStats
	// Identity names this evaluator for peer-reuse compatibility checks.
	Identity() EvaluatorIdentity
}

// EvalResult is what the Leaf Evaluator chain produces for one leaf,
// ready for the Batch Applier to consume (§4.4, §4.6).
type EvalResult struct {
	Value          float32
	SecondaryValue float32
	WDL            [3]float32
	MovesLeft      float32
	Terminal       Terminal

	// TranspositionOf is set when the Transposition or Peer-tree-reuse
	// stage claimed the leaf: the leaf borrows this node's statistics
	// instead of allocating its own children (§4.6 item 3).
	TranspositionOf NodeIndex

	// LegalMoves/Priors describe the children to expand. Priors is
	// already renormalized over LegalMoves (§4.6 item 1, §8 round-trip
	// property). Unused when TranspositionOf is set or the leaf is
	// terminal.
	LegalMoves []game.Move
	Priors     []float32
}

// leafOutcome is what Classify returns: either a ready EvalResult, or a
// signal that the leaf still needs a primary-NN evaluation.
type leafOutcome struct {
	result     EvalResult
	needsNN    bool
	ready      bool
}

// EvaluatorChain is the ordered, finite list of evaluator kinds from
// §4.4: terminal, cache, transposition, own-tree reuse, peer-tree reuse,
// then (deferred) NN primary. It halts at the first stage that claims
// the leaf. NN secondary is not a classification stage: it is an
// optional enrichment applied after the primary batch returns (see
// Flow.runLane), because its value is advisory only and never changes
// which leaf was claimed (open question in spec §9: whether V_secondary
// should influence PUCT is left unresolved upstream, so this core leaves
// it purely advisory, matching the documented default).
type EvaluatorChain struct {
	tree *Tree
}

// NewEvaluatorChain builds the chain for a tree.
func NewEvaluatorChain(tree *Tree) *EvaluatorChain {
	return &EvaluatorChain{tree: tree}
}

// Classify runs state through the ordered stages. hash is state's zobrist
// hash (callers already compute it for the transposition map key).
func (c *EvaluatorChain) Classify(state game.State, hash uint64) leafOutcome {
	if out, ok := c.classifyTerminal(state); ok {
		return out
	}
	if out, ok := c.classifyCache(state, hash); ok {
		return out
	}
	if out, ok := c.classifyTransposition(hash); ok {
		return out
	}
	// Own-tree reuse (§4.4 item 4): the retained subtree carried across
	// a re-root is already indexed in c.tree's transposition map (re-
	// rooting never rebuilds that map), so classifyTransposition already
	// serves continuation lookups against the prior search's nodes.
	// There is no separate index to consult here.
	if out, ok := c.classifyPeerTree(state, hash); ok {
		return out
	}
	return leafOutcome{needsNN: true}
}

func (c *EvaluatorChain) classifyTerminal(state game.State) (leafOutcome, bool) {
	ended, outcome := state.Terminal()
	if !ended {
		return leafOutcome{}, false
	}
	var value float32
	var term Terminal
	switch outcome {
	case game.Draw:
		value, term = 0, Draw
	case game.WhiteWins:
		value, term = terminalValue(state, true), Checkmate
	case game.BlackWins:
		value, term = terminalValue(state, false), Checkmate
	}
	if len(state.LegalMoves()) == 0 && outcome != game.Draw {
		// Mate, not stalemate-by-convention; outcome already reflects
		// the winner. A drawn outcome with no legal moves is stalemate.
	}
	if outcome == game.Draw && len(state.LegalMoves()) == 0 {
		term = Stalemate
	}
	return leafOutcome{ready: true, result: EvalResult{Value: value, Terminal: term}}, true
}

// terminalValue returns the value from the side-to-move's perspective
// given which color actually won.
func terminalValue(state game.State, whiteWon bool) float32 {
	if state.WhiteToMove() == whiteWon {
		// can't happen: the side to move just got mated, so the side to
		// move never equals the winner. Kept for completeness/clarity.
		return 1
	}
	return -1
}

func (c *EvaluatorChain) classifyCache(state game.State, hash uint64) (leafOutcome, bool) {
	e, ok := c.tree.cache.OwnLookup(hash)
	if !ok {
		return leafOutcome{}, false
	}
	return cacheHitOutcome(state, e), true
}

func (c *EvaluatorChain) classifyPeerTree(state game.State, hash uint64) (leafOutcome, bool) {
	e, ok := c.tree.cache.PeerLookup(hash)
	if !ok {
		return leafOutcome{}, false
	}
	return cacheHitOutcome(state, e), true
}

// cacheHitOutcome rebuilds LegalMoves/Priors for a cache/peer-tree hit
// from the leaf's actual legal moves and the cached dense policy,
// renormalized the same way a fresh NN result is (nnResultToEval in
// flow.go): the cache only stores the dense policy vector, not a
// position-specific legal-move-filtered one, so every hit must redo this
// masking step rather than expand with zero children.
func cacheHitOutcome(state game.State, e CacheEntry) leafOutcome {
	legal := state.LegalMoves()
	priors := make([]float32, len(legal))
	for i, mv := range legal {
		if int(mv) < len(e.Policy) {
			priors[i] = e.Policy[mv]
		}
	}
	renormalize(priors)
	return leafOutcome{ready: true, result: EvalResult{
		Value:      e.Value,
		WDL:        e.WDL,
		MovesLeft:  e.MovesLeft,
		LegalMoves: legal,
		Priors:     priors,
	}}
}

func (c *EvaluatorChain) classifyTransposition(hash uint64) (leafOutcome, bool) {
	idx, ok := c.tree.lookupTransposition(hash)
	if !ok {
		return leafOutcome{}, false
	}
	node := c.tree.store.Node(idx)
	if node.Visits() == 0 {
		return leafOutcome{}, false
	}
	return leafOutcome{ready: true, result: EvalResult{
		Value:           node.Q(),
		TranspositionOf: idx,
	}}, true
}
