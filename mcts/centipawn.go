package mcts

import "github.com/chewxy/math32"

// CentipawnFromQ maps a [-1, 1] Q value onto a conventional centipawn
// score for UCI-style reporting (§4.8 "score_cp"). The constants are the
// standard tan-based WDL-to-centipawn conversion used across
// AlphaZero-style engines; they are fixed rather than fit per evaluator,
// since nothing in this core's contract supplies the data to refit them.
func CentipawnFromQ(q float32) int {
	if q > 0.999 {
		q = 0.999
	}
	if q < -0.999 {
		q = -0.999
	}
	return int(math32.Round(111.714640912 * math32.Tan(1.5620688421*q)))
}
