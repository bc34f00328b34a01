package mcts

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

// NodeStore is a pre-allocated, index-addressed pool of Nodes plus a
// second pool of ChildSlots, per §4.1. Nodes are identified by a 32-bit
// NodeIndex; index 0 is reserved as "null". Allocation is bump-pointer
// with an optional free list reused across re-roots.
//
// AllocNode and AllocChildren are O(1) and thread-safe: both extend an
// atomic bump counter, and AllocNode also takes the free-list mutex
// briefly on every call to check for a freed index first.
type NodeStore struct {
	nodes    []Node
	children []ChildSlot

	nextNode atomic.Uint32
	nextChild atomic.Uint32

	freeMu   sync.Mutex
	freeList []NodeIndex
}

// NewNodeStore allocates a store sized to hold up to maxNodes nodes and
// maxChildren child slots. Index/slot 0 in each pool is reserved as the
// null sentinel, so capacity maxNodes yields maxNodes-1 usable nodes.
func NewNodeStore(maxNodes, maxChildren int) *NodeStore {
	s := &NodeStore{
		nodes:    make([]Node, maxNodes),
		children: make([]ChildSlot, maxChildren),
	}
	// burn index/slot 0 so NilIndex/NilChild are never handed out.
	s.nextNode.Store(1)
	s.nextChild.Store(1)
	return s
}

// Node returns a pointer to the node at idx. Structural fields are safe
// to read without synchronization once the node has been initialized by
// expansion; hot fields (N, in-flight, W, sums) are accessed through the
// Node's own atomic accessors.
func (s *NodeStore) Node(idx NodeIndex) *Node {
	return &s.nodes[idx]
}

// ChildSlots returns the slice of child slots belonging to a node with
// the given start index and count.
func (s *NodeStore) ChildSlots(start ChildIndex, count int) []ChildSlot {
	return s.children[start : int(start)+count]
}

// AllocNode reserves one node index, preferring a freed index from a
// prior re-root over extending the bump pointer. The returned node is
// zero-valued; the caller is responsible for initializing it (parent
// link, move, prior, hash) before it is visible to other goroutines.
func (s *NodeStore) AllocNode() (NodeIndex, error) {
	s.freeMu.Lock()
	if n := len(s.freeList); n > 0 {
		idx := s.freeList[n-1]
		s.freeList = s.freeList[:n-1]
		s.freeMu.Unlock()
		s.nodes[idx] = Node{}
		return idx, nil
	}
	s.freeMu.Unlock()

	idx := s.nextNode.Add(1) - 1
	if int(idx) >= len(s.nodes) {
		return NilIndex, errors.WithStack(ErrStoreExhausted)
	}
	return NodeIndex(idx), nil
}

// AllocChildren reserves a contiguous range of count child slots and
// returns the start index.
func (s *NodeStore) AllocChildren(count int) (ChildIndex, error) {
	if count == 0 {
		return NilChild, nil
	}
	start := s.nextChild.Add(uint32(count)) - uint32(count)
	if int(start)+count > len(s.children) {
		return NilChild, errors.WithStack(ErrStoreExhausted)
	}
	return ChildIndex(start), nil
}

// Free returns idx to the free list, making it eligible for reuse by a
// later AllocNode. Only called for nodes detached by Tree.ReRoot, between
// searches; never called on a node still reachable from a live root.
func (s *NodeStore) Free(idx NodeIndex) {
	s.freeMu.Lock()
	s.freeList = append(s.freeList, idx)
	s.freeMu.Unlock()
}

// Size returns the number of node slots handed out so far (including
// freed-but-not-reused ones), used by the Limit Manager's tree-size
// heuristics and by diagnostics.
func (s *NodeStore) Size() int {
	return int(s.nextNode.Load()) - 1
}

// Capacity returns the maximum number of usable nodes.
func (s *NodeStore) Capacity() int {
	return len(s.nodes) - 1
}
