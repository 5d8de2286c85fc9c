package node

import (
	"github.com/flier/art64/internal/debug"
	"github.com/flier/art64/pkg/arena"
	"github.com/flier/art64/pkg/arena/art/simd"
	"github.com/flier/art64/pkg/xunsafe/layout"
)

// Node16 widens Node4's layout to 16 entries. Lookups over its key array
// go through simd.FindKeyIndex, which runs the equality test as a pair of
// word-parallel passes instead of a plain byte-by-byte scan; insert
// positions come from simd.FindInsertPosition, a scalar scan.
type Node16 struct {
	Base

	Keys     [16]byte
	Children [16]Slot
}

var _ Node = (*Node16)(nil)

// NewNode16 allocates a zeroed Node16 from a.
func NewNode16(a arena.Allocator) *Node16 { return arena.New(a, Node16{}) }

func (n *Node16) Type() Type    { return TypeNode16 }
func (n *Node16) Ref() Ref      { return NewRef(TypeNode16, n) }
func (n *Node16) Capacity() int { return 16 }
func (n *Node16) Full() bool    { return n.Count == n.Capacity() }
func (n *Node16) MemSize() int  { return layout.Of[Node16]().Size }

func (n *Node16) FindChild(b byte) *Slot {
	i := simd.FindKeyIndex(&n.Keys, n.Count, b)
	if i < 0 {
		return nil
	}
	return &n.Children[i]
}

// AddChild inserts a new entry for b in sorted position. The caller must
// ensure b is not already present and that the node has spare capacity.
func (n *Node16) AddChild(b byte, child Ref) {
	debug.Assert(!n.Full(), "node16: add into a full node")

	i := simd.FindInsertPosition(&n.Keys, n.Count, b)

	copy(n.Keys[i+1:n.Count+1], n.Keys[i:n.Count])
	copy(n.Children[i+1:n.Count+1], n.Children[i:n.Count])

	n.Keys[i] = b
	n.Children[i] = SlotFromRef(child)
	n.Count++
}

// Grow migrates every entry into a freshly allocated Node48, remapping
// the dense key array into Node48's sparse 1-based slot index.
func (n *Node16) Grow(a arena.Allocator) Node {
	dst := NewNode48(a)
	dst.Base = n.Base
	for i := 0; i < n.Count; i++ {
		dst.Keys[n.Keys[i]] = byte(i + 1)
		dst.Children[i] = n.Children[i]
	}
	return dst
}

func (n *Node16) EachChild(fn func(b byte, child Ref)) {
	for i := 0; i < n.Count; i++ {
		fn(n.Keys[i], n.Children[i].Ref())
	}
}

func (n *Node16) InsertRunSafe(start byte, length int, value Value) {
	n.Count = mergeSortedRun(n.Keys[:], n.Children[:], n.Count, int(start), length, value)
}

func (n *Node16) QueryRun(start byte, length int, out []Value) {
	queryDenseRun(n.Keys[:], n.Children[:], n.Count, start, length, out)
}

func (n *Node16) Release(a arena.Allocator) { arena.Free(a, n) }
