// Package game defines the move-generation contract the search core
// depends on (spec §6 "Position / move-gen contract") and a reference
// implementation backed by github.com/notnil/chess. The core never
// imports a concrete game; it only ever sees the State interface.
package game

// Move is a legal move, encoded the same way the evaluator's policy
// vector is indexed (spec §6: "a stable order matching the policy
// indexing"). The reference implementation in this package encodes a
// move's (from, to, promotion) triple as a dense int32 action-space index
// (see encoding.go); a real front end
// would instead use the evaluator's fixed move encoding (e.g. 1858-way).
type Move int32

// Outcome reports the result of a finished game.
type Outcome uint8

const (
	// NotEnded means the game has not concluded.
	NotEnded Outcome = iota
	WhiteWins
	BlackWins
	Draw
)

// State is the contract the search core requires of a position plus its
// history. Implementations must provide legal-move enumeration in a
// stable order, make/unmake, draw detection (50-move and repetition using
// history supplied at search start), terminal detection, and a 64-bit
// position hash.
type State interface {
	// ActionSpace returns the size of the move encoding (the width of
	// the evaluator's dense policy vector).
	ActionSpace() int

	// Hash returns the 64-bit zobrist-style position key. It must be a
	// pure function of the position, including side to move, castling
	// rights, en-passant target and repetition count (spec §3).
	Hash() uint64

	// WhiteToMove reports which side is to move. true = white/maximizing side
	// for whatever convention the caller fixes; the core never
	// interprets it beyond flipping sign across plies.
	WhiteToMove() bool

	// MoveNumber returns the ply count reached so far.
	MoveNumber() int

	// LegalMoves returns every legal move from this position, in the
	// stable order the policy vector is indexed by.
	LegalMoves() []Move

	// IsLegal reports whether m is a legal move from this position.
	IsLegal(m Move) bool

	// Apply plays m and returns the resulting state. It must not mutate
	// the receiver; callers (in particular the Leaf Selector, which
	// explores many lines concurrently) rely on State being effectively
	// immutable once Apply has returned a new value. Clone+mutate is an
	// acceptable implementation strategy.
	Apply(m Move) State

	// Terminal classifies whether the game has ended at this position:
	// checkmate, stalemate, draw by the 50-move rule or threefold
	// repetition (using the history supplied at search start), or
	// not-ended.
	Terminal() (ended bool, outcome Outcome)

	// Clone returns an independent copy.
	Clone() State
}
