package game

import (
	"encoding/binary"

	"github.com/notnil/chess"
	"github.com/pkg/errors"
)

// Position is the reference State implementation, backed by
// github.com/notnil/chess. It is what the core's tests and the
// cmd/selfplay demo run against; production deployments of this core
// supply their own State wired to a faster move generator plus the
// evaluator's real move encoding, per spec §6.
type Position struct {
	g *chess.Game
}

// NewPosition returns the standard starting position.
func NewPosition() *Position {
	return &Position{g: chess.NewGame(chess.UseNotation(chess.UCINotation{}))}
}

// NewPositionFromFEN returns the position described by fen, with no move
// history (repetition detection starts fresh from this point).
func NewPositionFromFEN(fen string) (*Position, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &Position{g: chess.NewGame(opt, chess.UseNotation(chess.UCINotation{}))}, nil
}

// NewPositionWithHistory returns the position reached from fen after
// replaying priorMoves (UCI strings), so that repetition/50-move
// detection accounts for the supplied history, per spec §6 "draw
// detection ... with supplied history".
func NewPositionWithHistory(fen string, priorMoves []string) (*Position, error) {
	p, err := NewPositionFromFEN(fen)
	if err != nil {
		return nil, err
	}
	for _, mv := range priorMoves {
		if err := p.g.MoveStr(mv); err != nil {
			return nil, errors.Wrapf(err, "replaying history move %q", mv)
		}
	}
	return p, nil
}

// ActionSpace returns the width of the dense move encoding.
func (p *Position) ActionSpace() int { return ActionSpaceSize }

// Hash folds notnil/chess's 16-byte position hash (which already mixes
// side-to-move, castling rights and en-passant target) down to the
// core's 64-bit zobrist key via XOR of the two halves, then mixes in how
// many earlier positions of the game history repeat this one, so the key
// also reflects the repetition count.
func (p *Position) Hash() uint64 {
	h := p.g.Position().Hash()
	lo := binary.LittleEndian.Uint64(h[0:8])
	hi := binary.LittleEndian.Uint64(h[8:16])
	var reps uint64
	history := p.g.Positions()
	for i := 0; i+1 < len(history); i++ {
		if history[i].Hash() == h {
			reps++
		}
	}
	return lo ^ hi ^ reps*0x9E3779B97F4A7C15
}

// WhiteToMove reports whether white is to move.
func (p *Position) WhiteToMove() bool {
	return p.g.Position().Turn() == chess.White
}

// MoveNumber returns the ply count reached so far.
func (p *Position) MoveNumber() int {
	return len(p.g.Moves())
}

// LegalMoves returns every legal move, encoded, in notnil/chess's
// ValidMoves order (stable for a given position).
func (p *Position) LegalMoves() []Move {
	valid := p.g.ValidMoves()
	moves := make([]Move, len(valid))
	for i, m := range valid {
		moves[i] = encodeMove(m)
	}
	return moves
}

// IsLegal reports whether m is a legal move from this position.
func (p *Position) IsLegal(m Move) bool {
	for _, vm := range p.g.ValidMoves() {
		if encodeMove(vm) == m {
			return true
		}
	}
	return false
}

// Apply plays m and returns the resulting position. The receiver is left
// untouched; notnil/chess's Clone gives us the copy-on-write semantics
// State requires.
func (p *Position) Apply(m Move) State {
	var chosen *chess.Move
	for _, vm := range p.g.ValidMoves() {
		if encodeMove(vm) == m {
			chosen = vm
			break
		}
	}
	if chosen == nil {
		panic("game: Apply called with an illegal move")
	}
	next := p.g.Clone()
	if err := next.Move(chosen); err != nil {
		panic(errors.Wrap(err, "game: legal move rejected by notnil/chess"))
	}
	return &Position{g: next}
}

// Terminal classifies whether the game has ended.
func (p *Position) Terminal() (ended bool, outcome Outcome) {
	switch p.g.Outcome() {
	case chess.NoOutcome:
		return false, NotEnded
	case chess.WhiteWon:
		return true, WhiteWins
	case chess.BlackWon:
		return true, BlackWins
	default:
		return true, Draw
	}
}

// Clone returns an independent copy.
func (p *Position) Clone() State {
	return &Position{g: p.g.Clone()}
}

// Board returns the underlying notnil/chess board, for display purposes
// (e.g. cmd/selfplay's progress printing). It is not part of the State
// contract.
func (p *Position) Board() *chess.Board {
	return p.g.Position().Board()
}
