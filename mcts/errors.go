package mcts

import "github.com/pkg/errors"

// ErrStoreExhausted is raised when the node or child pool is full. The
// current search must abort; the tree up to this point remains
// consistent and the caller may enlarge the pool and retry (§7).
var ErrStoreExhausted = errors.New("mcts: node store exhausted")

// ErrEvaluatorFailure wraps an error returned by the evaluator during a
// batch submission. The in-flight batch is discarded and its virtual
// losses rolled back before this error is surfaced (§7).
var ErrEvaluatorFailure = errors.New("mcts: evaluator failure")

// ErrInconsistentLeaf is a fatal consistency error: selection reached a
// non-terminal node with no legal children (§4.5 edge cases).
var ErrInconsistentLeaf = errors.New("mcts: non-terminal leaf has no legal children")
