// Package node implements the directory structures of an adaptive radix
// tree specialized for fixed-width 64-bit keys: the four node variants
// (Node4, Node16, Node48, Node256), the tagged-pointer Ref that names a
// node and its variant, and the Slot union that a node's array entries
// are read through.
//
// Every node variant is used in two modes, selected by Base.Leaf:
//
//   - Inner mode (depth 0..6): Children hold Refs to child nodes, and the
//     node participates in ordinary radix-tree descent via FindChild and
//     AddChild.
//   - Leaf mode (depth 7): Children hold opaque Values directly, and the
//     node participates in leaf-run directory operations via InsertRunSafe
//     and QueryRun.
//
// Both modes share the same struct layout; nothing about a Node4 changes
// between the two except how its slots are interpreted, which matches the
// representation this package was ported from.
package node

import (
	"unsafe"

	"github.com/flier/art64/internal/debug"
	"github.com/flier/art64/pkg/arena"
	"github.com/flier/art64/pkg/xunsafe"
)

// Type identifies which of the four node variants a Ref points at.
type Type uintptr

const (
	// TypeNone marks an empty Ref; it never names a live node.
	TypeNone Type = iota
	TypeNode4
	TypeNode16
	TypeNode48
	TypeNode256
)

func (t Type) String() string {
	switch t {
	case TypeNode4:
		return "Node4"
	case TypeNode16:
		return "Node16"
	case TypeNode48:
		return "Node48"
	case TypeNode256:
		return "Node256"
	default:
		return "None"
	}
}

// Capacity returns the number of child slots the variant provides.
func (t Type) Capacity() int {
	switch t {
	case TypeNode4:
		return 4
	case TypeNode16:
		return 16
	case TypeNode48:
		return 48
	case TypeNode256:
		return 256
	default:
		return 0
	}
}

// Value is the opaque, pointer-sized payload associated with a key. It is
// never interpreted by this package; callers may stash a real pointer, a
// small integer, or any other 64-bit token in it.
type Value uint64

// Slot is one entry of a node's child array. Depending on the owning
// node's Base.Leaf flag, a Slot holds either a Ref (inner mode) or a Value
// (leaf mode); the zero Slot means "empty" under both interpretations.
type Slot uint64

// SlotFromRef packs a child reference into a Slot.
func SlotFromRef(r Ref) Slot { return Slot(r) }

// SlotFromValue packs an opaque value into a Slot.
func SlotFromValue(v Value) Slot { return Slot(v) }

// Empty reports whether the slot holds neither a child nor a value.
func (s Slot) Empty() bool { return s == 0 }

// Ref reads this slot as a child reference. Only meaningful when the
// owning node is not a leaf.
func (s Slot) Ref() Ref { return Ref(s) }

// Value reads this slot as an opaque value. Only meaningful when the
// owning node is a leaf.
func (s Slot) Value() Value { return Value(s) }

// AsRef reinterprets the address of this slot as a *Ref, so a caller can
// mutate the slot in place (e.g. while recursing down an inner node)
// without copying it out and writing it back.
func (s *Slot) AsRef() *Ref { return (*Ref)(unsafe.Pointer(s)) }

// refTypeMask carves out the low bits of a node pointer to store its
// Type; every node struct is at least arena.Align-aligned, so these bits
// are otherwise always zero.
const refTypeMask = uintptr(arena.Align - 1)

// Ref is a tagged pointer to one of the four node variants: the pointer
// itself occupies the high bits, and the low bits name its Type.
type Ref uintptr

// NewRef packs a pointer to a node of a known Type into a Ref.
func NewRef[N any](t Type, p *N) Ref {
	addr := uintptr(xunsafe.AddrOf(p))
	debug.Assert(addr&refTypeMask == 0, "node: misaligned node pointer %#x", addr)
	return Ref(addr | (uintptr(t) & refTypeMask))
}

// Empty reports whether r names no node.
func (r Ref) Empty() bool { return r == 0 }

// Type returns the variant that r names.
func (r Ref) Type() Type { return Type(uintptr(r) & refTypeMask) }

func (r Ref) ptr() unsafe.Pointer {
	return unsafe.Pointer(uintptr(r) &^ refTypeMask)
}

// AsNode dereferences r as its concrete variant, returning it through the
// Node interface. Panics if r is empty or carries an unrecognized Type.
func (r Ref) AsNode() Node {
	switch r.Type() {
	case TypeNode4:
		return (*Node4)(r.ptr())
	case TypeNode16:
		return (*Node16)(r.ptr())
	case TypeNode48:
		return (*Node48)(r.ptr())
	case TypeNode256:
		return (*Node256)(r.ptr())
	default:
		debug.Assert(false, "node: dereferencing a ref of type %s", r.Type())
		return nil
	}
}

// Base holds the state common to all four node variants: the compressed
// path segment leading to this node, whether it stores values rather than
// child references, and the number of occupied slots.
type Base struct {
	Prefix    [7]byte
	PrefixLen uint8
	Leaf      bool
	Count     int
}

// PrefixBytes returns the live portion of the compressed path.
func (b *Base) PrefixBytes() []byte { return b.Prefix[:b.PrefixLen] }

// SetPrefix copies p, which must be at most 7 bytes, into the prefix. p
// may alias the node's own Prefix array (as happens when a prefix is
// split), so the copy goes through a temporary.
func (b *Base) SetPrefix(p []byte) {
	debug.Assert(len(p) <= len(b.Prefix), "node: prefix too long: %d bytes", len(p))

	var tmp [7]byte
	n := copy(tmp[:], p)
	b.PrefixLen = uint8(n)
	copy(b.Prefix[:], tmp[:n])
}

// IsLeaf reports whether this node's slots hold Values instead of Refs.
func (b *Base) IsLeaf() bool { return b.Leaf }

// SetLeaf switches the node between inner and leaf interpretation.
func (b *Base) SetLeaf(leaf bool) { b.Leaf = leaf }

// NumChildren returns the number of occupied slots.
func (b *Base) NumChildren() int { return b.Count }

// Node is the common interface implemented by Node4, Node16, Node48, and
// Node256. Most of its methods are promoted automatically from the
// embedded Base; each variant implements the rest according to its own
// storage layout.
type Node interface {
	Type() Type
	Ref() Ref
	Capacity() int
	Full() bool
	MemSize() int

	IsLeaf() bool
	SetLeaf(bool)
	PrefixBytes() []byte
	SetPrefix([]byte)
	NumChildren() int

	// FindChild and AddChild implement inner-node (radix descent)
	// semantics. AddChild assumes b is not already present and that the
	// node has spare capacity; callers that can't guarantee the latter
	// should call Grow first.
	FindChild(b byte) *Slot
	AddChild(b byte, child Ref)
	Grow(a arena.Allocator) Node
	EachChild(fn func(b byte, child Ref))

	// InsertRunSafe and QueryRun implement leaf-run directory semantics,
	// operating on a contiguous run of up to 256 keys that share this
	// node's 7-byte prefix. InsertRunSafe assumes the node already has
	// capacity for the run; use GrowLeafForRun to grow beforehand.
	InsertRunSafe(start byte, length int, value Value)
	QueryRun(start byte, length int, out []Value)

	Release(a arena.Allocator)
}

// MakeProperNode allocates the smallest variant whose capacity is at
// least length, mirroring the "proper node" sizing used when a fresh leaf
// run is first created.
func MakeProperNode(a arena.Allocator, length int) Node {
	switch {
	case length <= 4:
		return NewNode4(a)
	case length <= 16:
		return NewNode16(a)
	case length <= 48:
		return NewNode48(a)
	default:
		return NewNode256(a)
	}
}
