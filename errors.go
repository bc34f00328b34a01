package corezero

import "github.com/pkg/errors"

// Session-level sentinel errors (§7). Errors from the mcts package
// (StoreExhausted, EvaluatorFailure) propagate unwrapped through
// Session.Search/SearchContinue; these four are specific to the
// session/continuation layer.
var (
	// ErrNotReusable names the case where a continuation move sequence
	// leaves too little of the retained tree to reuse. SearchContinue
	// does not return it: in that case it replaces the tree with a fresh
	// one and searches from there.
	ErrNotReusable = errors.New("corezero: continuation not reusable")

	// ErrInconsistentContinuation is returned when the supplied move
	// sequence disagrees with the position the session last searched
	// from (e.g. a move in the sequence is illegal in that position).
	ErrInconsistentContinuation = errors.New("corezero: continuation moves inconsistent with prior search")

	// ErrTerminalAtRoot is returned by Search/SearchContinue when the
	// starting position is already terminal: there is no move to search
	// for.
	ErrTerminalAtRoot = errors.New("corezero: root position is already terminal")

	// ErrPeerNotAuthorized is returned by BindPeer when the session's
	// Config does not authorize peer-tree reuse, or the peer's evaluator
	// identity does not match this session's (§4.10).
	ErrPeerNotAuthorized = errors.New("corezero: peer-tree reuse not authorized")
)
