package mcts

import (
	"math"
	"time"
)

// LimitKind selects which kind of bound a SearchLimit carries (§4.8
// "per-move budget"). Exactly one of SearchLimit's Nodes/Seconds fields
// is meaningful, selected by Kind.
type LimitKind uint8

const (
	// NodesPerMove stops once the node store has grown by Nodes nodes
	// during this move's search. Nodes taken back from the store's free
	// list (freed by a re-root) are not counted.
	NodesPerMove LimitKind = iota
	// SecondsPerMove stops after Seconds have elapsed for this move.
	SecondsPerMove
	// NodesForAllMoves and SecondsForAllGame are game-level budgets the
	// Limit Manager apportions across moves (§4.8 "game clock").
	NodesForAllMoves
	SecondsForAllGame
)

// SearchLimit describes a stopping condition.
type SearchLimit struct {
	Kind    LimitKind
	Nodes   int
	Seconds float64
	// Increment is a per-move time bonus added to the game clock after
	// each move completes (e.g. Fischer increment), used only with
	// SecondsForAllGame.
	Increment float64
}

// LimitManager apportions a game-level budget across individual moves
// and decides when a single move's search should stop (§4.8 "Limit
// Manager").
type LimitManager interface {
	// AllocateMove is called once at the start of a move's search. It
	// returns the node/time budget for this specific move, given the
	// game-level limit and how many moves have been played so far.
	AllocateMove(gameLimit SearchLimit, movesPlayed int, qVolatility float32) SearchLimit

	// ShouldStop is polled by the Search Manager during search. started
	// is when this move's search began; nodesSoFar is how much the node
	// store has grown since then.
	ShouldStop(moveLimit SearchLimit, started time.Time, nodesSoFar int) bool
}

// DefaultLimitManager implements a logistic time-allocation curve
// scaled by how volatile the root's best-move Q has been recently: a
// root that keeps changing its mind gets more time ("think harder"),
// per §4.8.
type DefaultLimitManager struct {
	// BaseFraction is the fraction of the remaining game budget given to
	// an "ordinary" move before the think-harder multiplier is applied.
	BaseFraction float64
	// ThinkHarderMax bounds how much qVolatility can multiply the base
	// allocation (e.g. 1.0 to 3.0x).
	ThinkHarderMax float64
}

// DefaultLimitManagerConfig returns reasonable defaults.
func DefaultLimitManagerConfig() DefaultLimitManager {
	return DefaultLimitManager{BaseFraction: 0.05, ThinkHarderMax: 2.5}
}

// AllocateMove implements LimitManager.
func (m DefaultLimitManager) AllocateMove(gameLimit SearchLimit, movesPlayed int, qVolatility float32) SearchLimit {
	switch gameLimit.Kind {
	case NodesForAllMoves:
		n := int(float64(gameLimit.Nodes) * m.thinkHarderFraction(qVolatility))
		if n < 1 {
			n = 1
		}
		return SearchLimit{Kind: NodesPerMove, Nodes: n}
	case SecondsForAllGame:
		s := gameLimit.Seconds*m.thinkHarderFraction(qVolatility) + gameLimit.Increment
		return SearchLimit{Kind: SecondsPerMove, Seconds: s}
	default:
		return gameLimit
	}
}

// thinkHarderFraction scales BaseFraction up toward ThinkHarderMax as
// qVolatility (a 0..1 measure of how much the root's best move has been
// flip-flopping) increases, via a logistic curve centered at 0.5.
func (m DefaultLimitManager) thinkHarderFraction(qVolatility float32) float64 {
	x := float64(qVolatility)
	logistic := 1 / (1 + math.Exp(-8*(x-0.5)))
	mult := 1 + logistic*(m.ThinkHarderMax-1)
	return m.BaseFraction * mult
}

// ShouldStop implements LimitManager.
func (m DefaultLimitManager) ShouldStop(moveLimit SearchLimit, started time.Time, nodesSoFar int) bool {
	switch moveLimit.Kind {
	case NodesPerMove:
		return nodesSoFar >= moveLimit.Nodes
	case SecondsPerMove:
		return time.Since(started).Seconds() >= moveLimit.Seconds
	default:
		return false
	}
}
