package node

import (
	"github.com/flier/art64/internal/debug"
	"github.com/flier/art64/pkg/arena"
	"github.com/flier/art64/pkg/xunsafe/layout"
)

// Node256 is the widest variant: every byte addresses its entry
// directly, so it needs no key array at all. It never grows further and
// AddChild never has to shift anything.
type Node256 struct {
	Base

	Children [256]Slot
}

var _ Node = (*Node256)(nil)

// NewNode256 allocates a zeroed Node256 from a.
func NewNode256(a arena.Allocator) *Node256 { return arena.New(a, Node256{}) }

func (n *Node256) Type() Type    { return TypeNode256 }
func (n *Node256) Ref() Ref      { return NewRef(TypeNode256, n) }
func (n *Node256) Capacity() int { return 256 }
func (n *Node256) Full() bool    { return false }
func (n *Node256) MemSize() int  { return layout.Of[Node256]().Size }

func (n *Node256) FindChild(b byte) *Slot {
	if n.Children[b].Empty() {
		return nil
	}
	return &n.Children[b]
}

// AddChild assigns b's entry directly; it can never fail for lack of
// capacity. The caller must ensure b is not already present.
func (n *Node256) AddChild(b byte, child Ref) {
	n.Children[b] = SlotFromRef(child)
	n.Count++
}

// Grow is unreachable: Node256 never runs out of room to grow into.
func (n *Node256) Grow(arena.Allocator) Node {
	debug.Assert(false, "node256: grow is unreachable")
	return n
}

func (n *Node256) EachChild(fn func(b byte, child Ref)) {
	for b := 0; b < 256; b++ {
		if !n.Children[b].Empty() {
			fn(byte(b), n.Children[b].Ref())
		}
	}
}

func (n *Node256) InsertRunSafe(start byte, length int, value Value) {
	slot := SlotFromValue(value)
	s := int(start)
	for i := 0; i < length; i++ {
		idx := s + i
		if n.Children[idx].Empty() {
			n.Count++
		}
		n.Children[idx] = slot
	}
}

func (n *Node256) QueryRun(start byte, length int, out []Value) {
	s := int(start)
	for i := 0; i < length; i++ {
		out[i] = n.Children[s+i].Value()
	}
}

func (n *Node256) Release(a arena.Allocator) { arena.Free(a, n) }
