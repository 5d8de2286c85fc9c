package node

import (
	"github.com/flier/art64/internal/debug"
	"github.com/flier/art64/pkg/arena"
	"github.com/flier/art64/pkg/xunsafe/layout"
)

// Node4 is the smallest node variant, holding up to 4 entries in two
// parallel arrays kept in ascending key order. Every fresh inner node
// starts life as a Node4, as does every fresh leaf whose first run is at
// most 4 keys long (see MakeProperNode); growth promotes it to a wider
// variant.
type Node4 struct {
	Base

	Keys     [4]byte
	Children [4]Slot
}

var _ Node = (*Node4)(nil)

// NewNode4 allocates a zeroed Node4 from a.
func NewNode4(a arena.Allocator) *Node4 { return arena.New(a, Node4{}) }

func (n *Node4) Type() Type    { return TypeNode4 }
func (n *Node4) Ref() Ref      { return NewRef(TypeNode4, n) }
func (n *Node4) Capacity() int { return 4 }
func (n *Node4) Full() bool    { return n.Count == n.Capacity() }
func (n *Node4) MemSize() int  { return layout.Of[Node4]().Size }

// FindChild returns the slot holding the child (or value) for b, or nil
// if no entry exists for b yet.
func (n *Node4) FindChild(b byte) *Slot {
	for i := 0; i < n.Count; i++ {
		if n.Keys[i] == b {
			return &n.Children[i]
		}
	}
	return nil
}

// AddChild inserts a new entry for b in sorted position. The caller must
// ensure b is not already present and that the node has spare capacity.
func (n *Node4) AddChild(b byte, child Ref) {
	debug.Assert(!n.Full(), "node4: add into a full node")

	i := 0
	for ; i < n.Count; i++ {
		if b < n.Keys[i] {
			break
		}
	}

	copy(n.Keys[i+1:n.Count+1], n.Keys[i:n.Count])
	copy(n.Children[i+1:n.Count+1], n.Children[i:n.Count])

	n.Keys[i] = b
	n.Children[i] = SlotFromRef(child)
	n.Count++
}

// Grow migrates every entry into a freshly allocated Node16. The old
// node is left intact; it's the caller's job to release it.
func (n *Node4) Grow(a arena.Allocator) Node {
	dst := NewNode16(a)
	dst.Base = n.Base
	copy(dst.Keys[:], n.Keys[:n.Count])
	copy(dst.Children[:], n.Children[:n.Count])
	return dst
}

func (n *Node4) EachChild(fn func(b byte, child Ref)) {
	for i := 0; i < n.Count; i++ {
		fn(n.Keys[i], n.Children[i].Ref())
	}
}

// InsertRunSafe writes [start, start+length) into this node's leaf-run
// directory. The caller must ensure the node already has capacity for
// the post-merge entry count.
func (n *Node4) InsertRunSafe(start byte, length int, value Value) {
	n.Count = mergeSortedRun(n.Keys[:], n.Children[:], n.Count, int(start), length, value)
}

func (n *Node4) QueryRun(start byte, length int, out []Value) {
	queryDenseRun(n.Keys[:], n.Children[:], n.Count, start, length, out)
}

func (n *Node4) Release(a arena.Allocator) { arena.Free(a, n) }
