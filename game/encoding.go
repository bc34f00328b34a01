package game

import "github.com/notnil/chess"

// promoSlots enumerates the promotion pieces a pawn move can carry,
// including "no promotion", in a fixed order so the encoding is stable.
var promoSlots = [...]chess.PieceType{
	chess.NoPieceType,
	chess.Queen,
	chess.Rook,
	chess.Bishop,
	chess.Knight,
}

// ActionSpaceSize is the width of this package's reference move
// encoding: 64 origin squares * 64 destination squares * 5 promotion
// slots. It is a simplified stand-in for a production engine's move
// encoding (e.g. lc0's 1858-way space); what the core requires is only
// that the encoding be dense, stable, and invertible, which this is.
const ActionSpaceSize = 64 * 64 * len(promoSlots)

func promoIndex(p chess.PieceType) int {
	for i, s := range promoSlots {
		if s == p {
			return i
		}
	}
	return 0
}

// encodeMove maps a notnil/chess move to this package's dense Move index.
func encodeMove(m *chess.Move) Move {
	idx := int(m.S1())*64*len(promoSlots) + int(m.S2())*len(promoSlots) + promoIndex(m.Promo())
	return Move(idx)
}
