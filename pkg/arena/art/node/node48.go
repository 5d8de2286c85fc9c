package node

import (
	"github.com/flier/art64/internal/debug"
	"github.com/flier/art64/pkg/arena"
	"github.com/flier/art64/pkg/xunsafe/layout"
)

// Node48 indexes up to 48 entries through a 256-byte sparse map: Keys[b]
// holds the 1-based position of b's entry in Children, or 0 if b is
// absent. Positions are recycled by scanning Children for a free (zero)
// slot, rather than tracked explicitly.
type Node48 struct {
	Base

	Keys     [256]byte
	Children [48]Slot
}

var _ Node = (*Node48)(nil)

// NewNode48 allocates a zeroed Node48 from a.
func NewNode48(a arena.Allocator) *Node48 { return arena.New(a, Node48{}) }

func (n *Node48) Type() Type    { return TypeNode48 }
func (n *Node48) Ref() Ref      { return NewRef(TypeNode48, n) }
func (n *Node48) Capacity() int { return 48 }
func (n *Node48) Full() bool    { return n.Count == n.Capacity() }
func (n *Node48) MemSize() int  { return layout.Of[Node48]().Size }

func (n *Node48) FindChild(b byte) *Slot {
	idx := n.Keys[b]
	if idx == 0 {
		return nil
	}
	return &n.Children[idx-1]
}

func (n *Node48) freeSlot() int {
	pos := 0
	for n.Children[pos] != 0 {
		pos++
	}
	return pos
}

// AddChild claims the first free position in Children for b. The caller
// must ensure b is not already present and that the node has spare
// capacity.
func (n *Node48) AddChild(b byte, child Ref) {
	debug.Assert(!n.Full(), "node48: add into a full node")

	pos := n.freeSlot()
	n.Keys[b] = byte(pos + 1)
	n.Children[pos] = SlotFromRef(child)
	n.Count++
}

// Grow migrates every entry into a freshly allocated Node256, which can
// address every byte directly and so needs no sparse index.
func (n *Node48) Grow(a arena.Allocator) Node {
	dst := NewNode256(a)
	dst.Base = n.Base
	for b := 0; b < 256; b++ {
		if idx := n.Keys[b]; idx != 0 {
			dst.Children[b] = n.Children[idx-1]
		}
	}
	return dst
}

func (n *Node48) EachChild(fn func(b byte, child Ref)) {
	for b := 0; b < 256; b++ {
		if idx := n.Keys[b]; idx != 0 {
			fn(byte(b), n.Children[idx-1].Ref())
		}
	}
}

// InsertRunSafe writes [start, start+length) into this node's leaf-run
// directory, overwriting entries already present and claiming a free
// position for each new one. The caller must ensure the node already has
// capacity for the post-merge entry count.
func (n *Node48) InsertRunSafe(start byte, length int, value Value) {
	slot := SlotFromValue(value)
	pos := 0

	for i := 0; i < length; i++ {
		b := byte(int(start) + i)

		if idx := n.Keys[b]; idx != 0 {
			n.Children[idx-1] = slot
			continue
		}

		for n.Children[pos] != 0 {
			pos++
		}
		n.Keys[b] = byte(pos + 1)
		n.Children[pos] = slot
		pos++
		n.Count++
	}
}

func (n *Node48) QueryRun(start byte, length int, out []Value) {
	s := int(start)
	for i := 0; i < length; i++ {
		if idx := n.Keys[byte(s+i)]; idx != 0 {
			out[i] = n.Children[idx-1].Value()
		}
	}
}

func (n *Node48) Release(a arena.Allocator) { arena.Free(a, n) }
