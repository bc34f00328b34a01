package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPositionLegalMoves(t *testing.T) {
	pos := NewPosition()
	moves := pos.LegalMoves()
	assert.Len(t, moves, 20, "the standard opening position has 20 legal moves")
	assert.True(t, pos.WhiteToMove())
	assert.Equal(t, 0, pos.MoveNumber())
}

func TestApplyDoesNotMutateReceiver(t *testing.T) {
	pos := NewPosition()
	before := pos.LegalMoves()

	next := pos.Apply(before[0])

	assert.Equal(t, before, pos.LegalMoves(), "Apply must not mutate the receiver")
	assert.NotEqual(t, pos.Hash(), next.Hash())
}

func TestTerminalStalemate(t *testing.T) {
	// A textbook stalemate: black king has no moves and is not in check.
	pos, err := NewPositionFromFEN("7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	require.NoError(t, err)

	ended, outcome := pos.Terminal()
	require.True(t, ended)
	assert.Equal(t, Draw, outcome)
	assert.Empty(t, pos.LegalMoves())
}

func TestTerminalCheckmate(t *testing.T) {
	pos, err := NewPositionFromFEN("6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1")
	require.NoError(t, err)

	legal := pos.LegalMoves()
	var mateSeen bool
	for _, mv := range legal {
		next := pos.Apply(mv)
		ended, outcome := next.Terminal()
		if ended && outcome == WhiteWins {
			mateSeen = true
		}
	}
	assert.True(t, mateSeen, "Ra1-a8 should deliver checkmate")
}

func TestHashStableAcrossClone(t *testing.T) {
	pos := NewPosition()
	clone := pos.Clone()
	assert.Equal(t, pos.Hash(), clone.Hash())
}

func TestNewPositionWithHistoryReplaysMoves(t *testing.T) {
	pos, err := NewPositionWithHistory("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", []string{"e2e4", "e7e5"})
	require.NoError(t, err)
	assert.True(t, pos.WhiteToMove())
	assert.Equal(t, 2, pos.MoveNumber())
}
