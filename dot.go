package corezero

import (
	"fmt"

	"github.com/awalterschulze/gographviz"
	"github.com/kestrelchess/corezero/mcts"
)

// WriteDOT renders a tree's nodes, down to maxDepth plies from the root,
// as a Graphviz DOT graph. It is a diagnostic: the teacher's go.mod
// already carried gographviz for exactly this kind of search-tree
// visualization, unused in that repo; this wires it to an actual tree.
func WriteDOT(tree *mcts.Tree, maxDepth int) (string, error) {
	g := gographviz.NewGraph()
	if err := g.SetName("search"); err != nil {
		return "", err
	}
	if err := g.SetDir(true); err != nil {
		return "", err
	}

	var walk func(idx mcts.NodeIndex, depth int)
	walk = func(idx mcts.NodeIndex, depth int) {
		node := tree.Store().Node(idx)
		name := fmt.Sprintf("n%d", idx)
		label := fmt.Sprintf("\"N=%d Q=%.3f move=%d\"", node.Visits(), node.Q(), node.Move())
		_ = g.AddNode("search", name, map[string]string{"label": label})

		if depth >= maxDepth || !node.HasChildren() {
			return
		}
		slots := tree.Store().ChildSlots(node.ChildrenStart(), node.NumPolicyMoves())
		for _, slot := range slots {
			if !slot.Child.Valid() {
				continue
			}
			childName := fmt.Sprintf("n%d", slot.Child)
			_ = g.AddEdge(name, childName, true, map[string]string{"label": fmt.Sprintf("%d", slot.Move)})
			walk(slot.Child, depth+1)
		}
	}
	walk(tree.Root(), 0)

	return g.String(), nil
}
