package mcts

import (
	"github.com/chewxy/math32"
	"github.com/kestrelchess/corezero/game"
	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distmv"
)

// SelectorConfig tunes the PUCT descent (§4.5, §6). Library defaults
// follow the usual AlphaZero-style constants; callers that know their
// evaluator's calibration should override CPuct and FPUValue.
type SelectorConfig struct {
	CPuct            float32
	FPUValue         float32
	DirichletAlpha   float64
	DirichletEpsilon float64
	RootPreloadDepth int
}

// DefaultSelectorConfig returns reasonable PUCT/noise defaults.
func DefaultSelectorConfig() SelectorConfig {
	return SelectorConfig{
		CPuct:            2.5,
		FPUValue:         -1,
		DirichletAlpha:   0.3,
		DirichletEpsilon: 0.25,
		RootPreloadDepth: 0,
	}
}

// Leaf is one descent's result: the ancestor path from root to the leaf
// (inclusive), the game state reached, and its hash. Lane records which
// selector lane produced it, so the Batch Applier decrements the correct
// in-flight counter.
type Leaf struct {
	Path  []NodeIndex
	State game.State
	Hash  uint64
	Lane  int
}

// Selector performs PUCT descents from a tree's root to collect a batch
// of leaves (§4.5 "Leaf Selector"). A selector is single-goroutine; two
// may run concurrently against the same tree in different lanes, each
// incrementing its own in-flight counter so neither lane starves the
// other's view of virtual loss.
type Selector struct {
	tree *Tree
	cfg  SelectorConfig
	lane int
	rng  *rand.Rand
}

// NewSelector creates a selector for lane (0 or 1) against tree.
func NewSelector(tree *Tree, cfg SelectorConfig, lane int, seed uint64) *Selector {
	src := rand.NewSource(seed)
	return &Selector{tree: tree, cfg: cfg, lane: lane, rng: rand.New(src)}
}

// SelectBatch performs up to n independent descents from root, each
// adding virtual loss along its path, and returns the resulting leaves.
// A descent that lands on an already-terminal node still counts toward
// the batch: it carries no further NN work, but it must still flow
// through the Batch Applier to back up its fixed value (§4.4 "terminal
// nodes are re-backed-up on every subsequent visit without calling the
// evaluator again").
func (s *Selector) SelectBatch(n int) ([]Leaf, error) {
	leaves := make([]Leaf, 0, n)
	for i := 0; i < n; i++ {
		leaf, err := s.descend()
		if err != nil {
			return leaves, err
		}
		leaves = append(leaves, leaf)
	}
	return leaves, nil
}

func (s *Selector) descend() (Leaf, error) {
	store := s.tree.store
	cur := s.tree.root
	state := s.tree.rootState
	path := []NodeIndex{cur}

	store.Node(cur).addInflight(s.lane)

	first := true
	for {
		node := store.Node(cur)
		if node.TerminalState().IsTerminal() {
			break
		}
		if !node.HasChildren() {
			break
		}

		child, move, slotIdx, isNew := s.selectChild(cur, node, first)
		first = false
		if isNew {
			idx, err := store.AllocNode()
			if err != nil {
				return Leaf{}, err
			}
			child = idx
			slots := store.ChildSlots(node.ChildrenStart(), node.NumPolicyMoves())
			slots[slotIdx].Child = child
			// AllocNode hands back a zeroed node; the parent link, slot
			// offset, move and prior must be set here, at allocation,
			// since this is the only place that knows them (store.go:60).
			store.Node(child).initLink(cur, slotIdx, move, slots[slotIdx].Prior)
		}
		if !state.IsLegal(game.Move(move)) {
			return Leaf{}, errors.WithStack(ErrInconsistentLeaf)
		}
		state = state.Apply(game.Move(move))
		cur = child
		path = append(path, cur)
		store.Node(cur).addInflight(s.lane)
	}

	return Leaf{Path: path, State: state, Hash: state.Hash(), Lane: s.lane}, nil
}

// selectChild picks the highest-PUCT-score child slot of node, applying
// root Dirichlet noise on the very first slot visited from the root of
// this descent (§4.5 "root exploration noise"). It returns the resolved
// child index (NilIndex if the slot has never been visited), the move,
// the slot's position, and whether the child still needs allocating.
func (s *Selector) selectChild(parent NodeIndex, node *Node, atRoot bool) (child NodeIndex, move int32, slotIdx int, isNew bool) {
	slots := s.tree.store.ChildSlots(node.ChildrenStart(), node.NumPolicyMoves())

	var noise []float64
	if atRoot && parent == s.tree.root && s.cfg.DirichletEpsilon > 0 {
		noise = s.rootNoise(len(slots))
	}

	sumN := math32.Sqrt(float32(node.TotalVisits()))
	best := -1
	var bestScore, bestPrior float32
	for i := range slots {
		prior := slots[i].Prior
		if noise != nil {
			prior = prior*float32(1-s.cfg.DirichletEpsilon) + float32(noise[i])*float32(s.cfg.DirichletEpsilon)
		}

		var q float32 = s.cfg.FPUValue
		var total uint32
		if slots[i].Child.Valid() {
			c := s.tree.store.Node(slots[i].Child)
			q = -c.Q() // child's Q is from the opponent's perspective
			total = c.TotalVisits()
		}

		score := q + s.cfg.CPuct*prior*sumN/(1+float32(total))
		// Ties break toward higher prior, then lower slot index (§4.5
		// "PUCT tie-break").
		if best == -1 || score > bestScore || (score == bestScore && prior > bestPrior) {
			best = i
			bestScore = score
			bestPrior = prior
		}
	}

	return slots[best].Child, slots[best].Move, best, !slots[best].Child.Valid()
}

// rootNoise draws a Dirichlet(alpha, ..., alpha) sample of width n.
func (s *Selector) rootNoise(n int) []float64 {
	alpha := make([]float64, n)
	for i := range alpha {
		alpha[i] = s.cfg.DirichletAlpha
	}
	dir, ok := distmv.NewDirichlet(alpha, s.rng)
	if !ok {
		return nil
	}
	return dir.Rand(nil)
}
