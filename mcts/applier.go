package mcts

// Applier is the Batch Applier (§4.6): it turns a batch of classified
// leaves into tree mutations — allocating children for newly expanded
// leaves, linking transposition hits, and backing up values along every
// leaf's ancestor path.
type Applier struct {
	tree *Tree
}

// NewApplier creates an applier for tree.
func NewApplier(tree *Tree) *Applier {
	return &Applier{tree: tree}
}

// Apply applies one leaf's evaluation result. leafIdx is the last entry
// of leaf.Path (the node the descent stopped at).
func (a *Applier) Apply(leaf Leaf, result EvalResult) error {
	leafIdx := leaf.Path[len(leaf.Path)-1]
	node := a.tree.store.Node(leafIdx)

	switch {
	case result.TranspositionOf.Valid():
		node.linkTransposition(result.TranspositionOf)
	case node.HasChildren() || node.TerminalState().IsTerminal():
		// An earlier leaf already expanded this node (a batch can select
		// the same leaf more than once, and terminal nodes are revisited);
		// only the backup below applies.
	case result.Terminal.IsTerminal():
		node.expand(result.Value, result.Terminal, NilChild, 0, leaf.Hash)
	default:
		if err := a.expandLeaf(leafIdx, node, leaf, result); err != nil {
			return err
		}
	}

	a.backup(leaf.Path, leaf.Lane, result)
	return nil
}

// expandLeaf allocates child slots for a freshly evaluated, non-terminal
// leaf, writing renormalized priors over its legal moves (§4.6 item 1).
func (a *Applier) expandLeaf(leafIdx NodeIndex, node *Node, leaf Leaf, result EvalResult) error {
	numMoves := len(result.LegalMoves)
	var start ChildIndex
	var err error
	if numMoves > 0 {
		start, err = a.tree.store.AllocChildren(numMoves)
		if err != nil {
			return err
		}
		slots := a.tree.store.ChildSlots(start, numMoves)
		priors := append([]float32(nil), result.Priors...)
		renormalize(priors)
		for i, mv := range result.LegalMoves {
			slots[i] = ChildSlot{Move: int32(mv), Prior: priors[i], Child: NilIndex}
		}
	}

	node.expand(result.Value, NonTerminal, start, numMoves, leaf.Hash)
	if result.SecondaryValue != 0 {
		node.setSecondaryValue(result.SecondaryValue)
	}
	a.tree.recordTransposition(leaf.Hash, leafIdx)
	if a.tree.cache.Mode() == CacheReadWrite {
		dense := make([]float32, leaf.State.ActionSpace())
		for i, mv := range result.LegalMoves {
			if int(mv) < len(dense) {
				dense[mv] = result.Priors[i]
			}
		}
		a.tree.cache.Insert(leaf.Hash, CacheEntry{
			Value:     result.Value,
			WDL:       result.WDL,
			MovesLeft: result.MovesLeft,
			Policy:    dense,
		})
	}
	return nil
}

// backup walks path from leaf to root, applying one visit at each node.
// The value flips sign every ply because each node's Q is from the
// perspective of the side to move at that node, and consecutive plies
// alternate sides (§4.6 item 2). WDL win/loss similarly swap.
func (a *Applier) backup(path []NodeIndex, lane int, result EvalResult) {
	value := result.Value
	win, draw, loss := result.WDL[0], result.WDL[1], result.WDL[2]
	mval := result.MovesLeft

	for i := len(path) - 1; i >= 0; i-- {
		node := a.tree.store.Node(path[i])
		node.applyVisit(lane, value, draw, loss, mval)
		value = -value
		win, loss = loss, win
		mval = mval + 1
	}
	_ = win
}
