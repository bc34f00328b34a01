package corezero

import (
	"fmt"

	"github.com/kestrelchess/corezero/mcts"
)

// FormatUCIInfo renders a Progress snapshot as a UCI "info" line, the
// shape most chess GUIs and command-line harnesses expect. It prints
// nodes, nps, time, a centipawn score and the best root move as the pv;
// Progress carries no search depth, WDL or longer principal variation,
// so none of those are printed.
func FormatUCIInfo(p mcts.Progress) string {
	return fmt.Sprintf("info nodes %d nps %.0f time %d score cp %d pv %d",
		p.Nodes, p.NPS, p.ElapsedMS, mcts.CentipawnFromQ(p.BestQ), p.BestMove)
}
