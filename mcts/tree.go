package mcts

import (
	"sync"

	"github.com/kestrelchess/corezero/game"
	"github.com/pkg/errors"
)

// Tree owns one search's node arena, its position cache, and the
// transposition index that lets the Leaf Evaluator chain recognize a
// position it has already scored (spec §3, §4.1, §4.4).
type Tree struct {
	store *NodeStore
	cache *PositionCache

	root      NodeIndex
	rootState game.State

	transMu    sync.RWMutex
	trans      map[uint64]NodeIndex

	peerMu sync.RWMutex
	peer   *Tree
}

// NewTree creates a tree rooted at state, backed by store and cache.
// store and cache must outlive the tree.
func NewTree(store *NodeStore, cache *PositionCache, state game.State) (*Tree, error) {
	t := &Tree{
		store:     store,
		cache:     cache,
		rootState: state,
		trans:     make(map[uint64]NodeIndex, store.Capacity()),
	}
	idx, err := store.AllocNode()
	if err != nil {
		return nil, err
	}
	t.root = idx
	t.recordTransposition(state.Hash(), idx)
	return t, nil
}

// Root returns the current root node index.
func (t *Tree) Root() NodeIndex { return t.root }

// RootState returns the game state the current root represents.
func (t *Tree) RootState() game.State { return t.rootState }

// Store returns the backing node arena.
func (t *Tree) Store() *NodeStore { return t.store }

// Cache returns the backing position cache.
func (t *Tree) Cache() *PositionCache { return t.cache }

func (t *Tree) lookupTransposition(hash uint64) (NodeIndex, bool) {
	t.transMu.RLock()
	idx, ok := t.trans[hash]
	t.transMu.RUnlock()
	return idx, ok
}

func (t *Tree) recordTransposition(hash uint64, idx NodeIndex) {
	t.transMu.Lock()
	t.trans[hash] = idx
	t.transMu.Unlock()
}

// BindPeer authorizes this tree's evaluator chain to read through to
// peer's position cache (§4.10 "peer-tree reuse"). Callers are
// responsible for checking EvaluatorIdentity compatibility first; Tree
// itself does not know which evaluator produced peer's entries.
func (t *Tree) BindPeer(peer *Tree) {
	t.peerMu.Lock()
	t.peer = peer
	t.peerMu.Unlock()
	if peer != nil {
		t.cache.BindPeer(peer.cache)
	} else {
		t.cache.ClearPeer()
	}
}

// ClearSharedContext severs this tree's peer reference, so that a later
// search against this tree never reads a stale peer's cache (§4.10
// "never chain transitively").
func (t *Tree) ClearSharedContext() {
	t.BindPeer(nil)
}

// ReRoot walks the tree down through moves, discarding everything outside
// the path, and makes the node reached the new root (spec §4.9 "tree
// reuse"). It returns the new root's visit count as a fraction of the
// old root's (0 when the move was never explored), which callers compare
// against
// THRESHOLD_FRACTION_NODES_REUSABLE to decide whether reuse was worth it.
//
// ReRoot never rebuilds the transposition map: nodes that survive the
// re-root stay indexed under their existing hash, which is what lets the
// Transposition evaluator stage (§4.4 item 3) double as "own-tree reuse"
// (§4.4 item 4) for continuation searches.
func (t *Tree) ReRoot(moves []game.Move) (reusedFraction float64, err error) {
	oldRootVisits := t.store.Node(t.root).Visits()

	cur := t.root
	state := t.rootState
	for _, mv := range moves {
		if !state.IsLegal(mv) {
			return 0, errors.WithStack(ErrInconsistentLeaf)
		}
		next, found := t.findChild(cur, mv)
		if !found {
			// The move was never explored: no subtree to reuse, start a
			// fresh node for the new root.
			idx, allocErr := t.store.AllocNode()
			if allocErr != nil {
				return 0, allocErr
			}
			cur = idx
			state = state.Apply(mv)
			t.root = cur
			t.rootState = state
			t.recordTransposition(state.Hash(), cur)
			return 0, nil
		}
		cur = next
		state = state.Apply(mv)
	}

	survived := t.store.Node(cur).Visits()
	if oldRootVisits > 0 {
		reusedFraction = float64(survived) / float64(oldRootVisits)
	}

	t.detachSiblingsOf(cur)
	t.store.Node(cur).parentIndex = NilIndex
	t.root = cur
	t.rootState = state
	t.recordTransposition(state.Hash(), cur)
	return reusedFraction, nil
}

// findChild returns the child of parent reached by playing mv, if that
// child has been expanded.
func (t *Tree) findChild(parent NodeIndex, mv game.Move) (NodeIndex, bool) {
	node := t.store.Node(parent)
	if !node.HasChildren() {
		return NilIndex, false
	}
	slots := t.store.ChildSlots(node.ChildrenStart(), int(node.NumPolicyMoves()))
	for _, slot := range slots {
		if slot.Move == int32(mv) && slot.Child.Valid() {
			return slot.Child, true
		}
	}
	return NilIndex, false
}

// detachSiblingsOf frees every subtree reachable from the old root that
// is not keep's own retained subtree, i.e. every sibling hanging off the
// ancestor chain from the old root down to keep, and the stale ancestors
// themselves (they sit "above" the new root and are no longer
// reachable). keep's own subtree is left untouched. Freed node indices
// return to the store's free list (§4.1 "re-rooted or detached subtrees
// return their nodes to the pool").
func (t *Tree) detachSiblingsOf(keep NodeIndex) {
	// Walk up from keep, collecting its ancestors back to the old root.
	// keep itself is never in this list: its subtree must survive intact.
	path := map[NodeIndex]bool{keep: true}
	var ancestors []NodeIndex
	for idx := keep; ; {
		node := t.store.Node(idx)
		parent := node.ParentIndex()
		if !parent.Valid() {
			break
		}
		path[parent] = true
		ancestors = append(ancestors, parent)
		idx = parent
	}

	var freeSubtree func(idx NodeIndex)
	freeSubtree = func(idx NodeIndex) {
		if !idx.Valid() {
			return
		}
		node := t.store.Node(idx)
		if node.HasChildren() {
			slots := t.store.ChildSlots(node.ChildrenStart(), int(node.NumPolicyMoves()))
			for _, slot := range slots {
				freeSubtree(slot.Child)
			}
		}
		t.store.Free(idx)
	}

	for _, idx := range ancestors {
		node := t.store.Node(idx)
		if node.HasChildren() {
			slots := t.store.ChildSlots(node.ChildrenStart(), int(node.NumPolicyMoves()))
			for _, slot := range slots {
				if slot.Child.Valid() && !path[slot.Child] {
					freeSubtree(slot.Child)
				}
			}
		}
		// The ancestor itself sits above the new root and is now
		// unreachable; return it to the pool too.
		t.store.Free(idx)
	}
}
