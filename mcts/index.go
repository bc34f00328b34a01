package mcts

// NodeIndex is a handle into a NodeStore's node arena. It is a non-owning
// reference: the arena owns every Node, and a NodeIndex is only ever
// dereferenced through Tree/NodeStore accessors, never held across a
// re-root of the tree that detached it.
//
// Index 0 is reserved to mean "no node" (NilIndex), matching the Node
// Store's bump-pointer allocation which hands out index 0 to nothing.
type NodeIndex uint32

// NilIndex is the reserved "null" node handle.
const NilIndex NodeIndex = 0

// Valid reports whether idx refers to a real node.
func (idx NodeIndex) Valid() bool { return idx != NilIndex }

// ChildIndex addresses a single slot in the shared child-slot pool.
type ChildIndex uint32

// NilChild is the reserved "no child slot" handle.
const NilChild ChildIndex = 0
