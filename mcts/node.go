package mcts

import (
	"fmt"
	"sync/atomic"

	"github.com/chewxy/math32"
)

// Terminal classifies a position that ends the game.
type Terminal uint8

// Terminal states a node can carry, per the data model in §3.
const (
	NonTerminal Terminal = iota
	Checkmate
	Draw
	Stalemate
)

// String implements fmt.Stringer.
func (t Terminal) String() string {
	switch t {
	case NonTerminal:
		return "NonTerminal"
	case Checkmate:
		return "Checkmate"
	case Draw:
		return "Draw"
	case Stalemate:
		return "Stalemate"
	}
	return "UNKNOWN"
}

// IsTerminal reports whether t is anything other than NonTerminal.
func (t Terminal) IsTerminal() bool { return t != NonTerminal }

// Lanes is the number of concurrent selector lanes the design supports
// (§4.5 "dual-selector overlap"). It is fixed at 2 because every hot node
// field keyed by lane is sized statically to avoid a slice indirection
// per node.
const Lanes = 2

// ChildSlot is a (move, prior, child) tuple. Child slots for one node
// occupy the contiguous range [children_start, children_start+num) in the
// shared child pool.
type ChildSlot struct {
	Move  int32
	Prior float32
	Child NodeIndex
}

// Node is a single in-tree position. Fields that the Leaf Selector and
// Batch Applier mutate concurrently during search (N, the per-lane
// in-flight counters, W and the WDL/M sums) are atomics, per §4.1 and the
// concurrency primitives design note. Everything else is written once,
// at expansion time, and is read-only thereafter.
type Node struct {
	n         atomic.Uint32
	nInflight [Lanes]atomic.Uint32

	// W, WDraw, WLoss and MSum are float32 accumulators. Go has no atomic
	// float32; they are stored as their bit pattern in atomic.Uint32s and
	// mutated with a compare-and-swap retry loop (see addFloat32).
	wBits     atomic.Uint32
	wDrawBits atomic.Uint32
	wLossBits atomic.Uint32
	mSumBits  atomic.Uint32

	// Structural fields, written once when the parent expands this slot
	// (or, for the root, when the tree is created) and read-only after.
	move              int32
	p                 float32
	v                 float32
	vSecondary        float32
	terminal          Terminal
	numPolicyMoves    uint16
	childrenStart     ChildIndex
	parentIndex       NodeIndex
	indexInParent     uint16
	transpositionLink NodeIndex
	zobristHash       uint64
}

// Format implements fmt.Formatter for compact debug printing.
func (n *Node) Format(s fmt.State, c rune) {
	fmt.Fprintf(s, "{Move:%v N:%v Q:%.4f P:%.4f terminal:%v}",
		n.move, n.Visits(), n.Q(), n.Prior(), n.terminal)
}

// Visits returns N, the number of completed (backed-up) visits.
func (n *Node) Visits() uint32 { return n.n.Load() }

// InflightVisits returns the in-flight (virtual loss) count for lane.
func (n *Node) InflightVisits(lane int) uint32 { return n.nInflight[lane].Load() }

// TotalVisits returns completed plus in-flight visits across both lanes,
// i.e. sum_N from the PUCT formula in §4.5.
func (n *Node) TotalVisits() uint32 {
	return n.Visits() + n.nInflight[0].Load() + n.nInflight[1].Load()
}

// W returns the raw backed-up value sum.
func (n *Node) W() float32 { return loadFloat32(&n.wBits) }

// WDraw returns the backed-up draw-probability sum.
func (n *Node) WDraw() float32 { return loadFloat32(&n.wDrawBits) }

// WLoss returns the backed-up loss-probability sum.
func (n *Node) WLoss() float32 { return loadFloat32(&n.wLossBits) }

// MSum returns the backed-up moves-left sum.
func (n *Node) MSum() float32 { return loadFloat32(&n.mSumBits) }

// Q returns W/N, or 0 when the node has not been visited (§3 "derived
// quantities").
func (n *Node) Q() float32 {
	visits := n.Visits()
	if visits == 0 {
		return 0
	}
	return n.W() / float32(visits)
}

// WDL returns the (win, draw, loss) averages derived from the backed-up
// sums, or (0,0,0) before any visit.
func (n *Node) WDL() (win, draw, loss float32) {
	visits := n.Visits()
	if visits == 0 {
		return 0, 0, 0
	}
	f := float32(visits)
	l := n.WLoss() / f
	d := n.WDraw() / f
	return 1 - d - l, d, l
}

// MAvg returns M_sum/N, the average predicted moves-left.
func (n *Node) MAvg() float32 {
	visits := n.Visits()
	if visits == 0 {
		return 0
	}
	return n.MSum() / float32(visits)
}

// Prior returns P(s,a), the parent-policy prior for this node's move.
func (n *Node) Prior() float32 { return n.p }

// Move returns the move, in the neural-network action-space encoding,
// that leads from the parent to this node.
func (n *Node) Move() int32 { return n.move }

// Value returns the raw NN value recorded at this node (V).
func (n *Node) Value() float32 { return n.v }

// SecondaryValue returns V_secondary, the advisory second-opinion value.
func (n *Node) SecondaryValue() float32 { return n.vSecondary }

// TerminalState returns the node's terminal classification.
func (n *Node) TerminalState() Terminal { return n.terminal }

// NumPolicyMoves returns the number of legal child slots.
func (n *Node) NumPolicyMoves() int { return int(n.numPolicyMoves) }

// HasChildren reports whether this node has been expanded.
func (n *Node) HasChildren() bool { return n.numPolicyMoves > 0 }

// ChildrenStart returns the index of the first child slot.
func (n *Node) ChildrenStart() ChildIndex { return n.childrenStart }

// ParentIndex returns the back-link to the parent node.
func (n *Node) ParentIndex() NodeIndex { return n.parentIndex }

// IndexInParent returns this node's slot offset within the parent's
// child range, satisfying the invariant
// parent.children[index_in_parent].child_index == self.
func (n *Node) IndexInParent() int { return int(n.indexInParent) }

// TranspositionLink returns the node this one borrows statistics from,
// or NilIndex if this node is not transposition-linked.
func (n *Node) TranspositionLink() NodeIndex { return n.transpositionLink }

// ZobristHash returns the 64-bit position key.
func (n *Node) ZobristHash() uint64 { return n.zobristHash }

// expand writes a node's value/terminal/children fields exactly once, at
// the point the Batch Applier decides this leaf becomes a real tree node
// (§4.6 item 1). The parent link, slot offset, move and prior are set
// earlier, by initLink, at allocation time, and are left untouched here.
// Calling expand twice on the same node is a bug in the caller; nothing
// here guards against it. The Batch Applier is the only caller, and it
// skips nodes that are already expanded or terminal.
func (n *Node) expand(value float32, terminal Terminal, childrenStart ChildIndex, numChildren int, hash uint64) {
	n.v = value
	n.terminal = terminal
	n.childrenStart = childrenStart
	n.numPolicyMoves = uint16(numChildren)
	n.zobristHash = hash
}

// initLink writes a freshly allocated child's back-link, slot offset,
// move and prior at the moment the Leaf Selector allocates it — before
// the node has been expanded, possibly long before, since a node can sit
// unexpanded as the current batch's leaf for a while (§4.1 "parent link,
// move, prior, hash must be set by the caller of AllocNode"). expand
// later fills in the value/terminal/children fields but must not
// overwrite these: the parent only learns its child's structure once,
// at allocation, not at expansion.
func (n *Node) initLink(parent NodeIndex, indexInParent int, move int32, prior float32) {
	n.parentIndex = parent
	n.indexInParent = uint16(indexInParent)
	n.move = move
	n.p = prior
}

// linkTransposition marks this node as borrowing another node's
// statistics instead of holding its own children (§4.6 item 3).
func (n *Node) linkTransposition(target NodeIndex) {
	n.transpositionLink = target
}

// setSecondaryValue records the advisory second-opinion value for this
// node, once the primary batch's secondary evaluator (if any) returns.
func (n *Node) setSecondaryValue(v float32) {
	n.vSecondary = v
}

// applyVisit backs up one completed visit: N += 1, W/WDraw/WLoss/MSum +=
// the signed contributions, decrement the lane's in-flight counter.
// Called by the Batch Applier while walking a leaf's ancestor chain.
func (n *Node) applyVisit(lane int, value, wdraw, wloss, mval float32) {
	n.n.Add(1)
	addFloat32(&n.wBits, value)
	addFloat32(&n.wDrawBits, wdraw)
	addFloat32(&n.wLossBits, wloss)
	addFloat32(&n.mSumBits, mval)
	decrementSaturating(&n.nInflight[lane])
}

// addInflight increments the lane's virtual-loss counter during descent.
func (n *Node) addInflight(lane int) { n.nInflight[lane].Add(1) }

// removeInflight reverses addInflight without completing a visit, used to
// roll back virtual loss when a batch's evaluator call fails and its
// leaves will never reach the Batch Applier (§7 "EvaluatorFailure...
// virtual losses are rolled back").
func (n *Node) removeInflight(lane int) { decrementSaturating(&n.nInflight[lane]) }

// loadFloat32 reads a float32 stored as a bit pattern.
func loadFloat32(a *atomic.Uint32) float32 {
	return math32.Float32frombits(a.Load())
}

// addFloat32 atomically adds delta to the float32 stored as a bit
// pattern in a, via compare-and-swap retry (Go has no atomic float add).
func addFloat32(a *atomic.Uint32, delta float32) {
	for {
		old := a.Load()
		newV := math32.Float32frombits(old) + delta
		if a.CompareAndSwap(old, math32.Float32bits(newV)) {
			return
		}
	}
}

// decrementSaturating decrements a, floored at 0. Virtual-loss bookkeeping
// should never underflow in correct use, but floor rather than wrap so a
// caller bug surfaces as a stuck-at-zero invariant check instead of a
// colossal unsigned visit count.
func decrementSaturating(a *atomic.Uint32) {
	for {
		old := a.Load()
		if old == 0 {
			return
		}
		if a.CompareAndSwap(old, old-1) {
			return
		}
	}
}
