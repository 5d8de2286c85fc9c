// Package art implements an Adaptive Radix Tree specialized for
// fixed-width 64-bit unsigned integer keys and opaque, pointer-sized
// values. It supports point insertion and lookup, range insertion and
// query over runs of up to 256 consecutive keys sharing a 7-byte prefix,
// and binary serialization of the whole tree.
package art

import (
	"github.com/flier/art64/internal/debug"
	"github.com/flier/art64/pkg/arena"
	"github.com/flier/art64/pkg/arena/art/node"
	"github.com/flier/art64/pkg/arena/art/tree"
)

// Value is the opaque, pointer-sized payload associated with a key.
type Value = node.Value

// Tree is an Adaptive Radix Tree over 64-bit keys. The zero Tree is not
// ready to use; construct one with New.
type Tree struct {
	alloc *arena.Recycled
	root  node.Ref
	used  uint64
	size  uint64
}

// New returns an empty tree, backed by a Recycled allocator so that the
// node churn range-insert-driven growth causes can be reused rather than
// left dead until Destroy.
func New() *Tree {
	a := &arena.Recycled{}
	root := node.NewNode4(a)

	return &Tree{
		alloc: a,
		root:  root.Ref(),
		used:  uint64(root.MemSize()),
	}
}

// Insert stores value at key, overwriting any value already there.
func (t *Tree) Insert(key uint64, value Value) {
	tree.Insert(t.alloc, &t.root, tree.Encode(key), 1, value, &t.used, &t.size)
}

// Search returns the value stored at key, and whether one exists.
func (t *Tree) Search(key uint64) (Value, bool) {
	return tree.Search(t.root, tree.Encode(key))
}

// RangeInsert stores value at every key in [start, start+length), which
// must all share the same 7-byte prefix: start%256+length must not
// exceed 256. Violating this precondition is a contract failure, not a
// recoverable error, and is reported via debug.Assert.
func (t *Tree) RangeInsert(start uint64, length int, value Value) {
	debug.Assert(length > 0 && int(start%256)+length <= 256,
		"art: range insert must stay within a single 256-key run: start=%d length=%d", start, length)

	tree.Insert(t.alloc, &t.root, tree.Encode(start), length, value, &t.used, &t.size)
}

// RangeQuery returns the length values stored at [start, start+length),
// which must satisfy the same prefix constraint as RangeInsert. Keys with
// no stored value come back as the zero Value, indistinguishable from an
// explicitly stored null.
func (t *Tree) RangeQuery(start uint64, length int) []Value {
	debug.Assert(length > 0 && int(start%256)+length <= 256,
		"art: range query must stay within a single 256-key run: start=%d length=%d", start, length)

	return tree.RangeQuery(t.root, tree.Encode(start), length)
}

// MemoryUsage returns a running total of bytes allocated for this tree's
// nodes.
func (t *Tree) MemoryUsage() uint64 { return t.used }

// Size returns the number of distinct keys currently stored.
func (t *Tree) Size() uint64 { return t.size }

// Destroy releases every node back to the tree's allocator. The tree is
// left empty and safe to reuse afterward (it allocates a fresh root on
// the next mutation), but is otherwise not meant to be touched again.
func (t *Tree) Destroy() {
	tree.Destroy(t.alloc, t.root, &t.used)
	t.root = 0
	t.size = 0
}

// Serialize flattens the tree into a buffer that Deserialize can later
// read back. The returned slice is owned by the caller.
func (t *Tree) Serialize() ([]byte, error) {
	return tree.Serialize(t.root)
}

// Deserialize replaces an empty tree's contents with the tree encoded in
// buf, as produced by Serialize. Calling it on a non-empty tree is a
// contract failure.
func (t *Tree) Deserialize(buf []byte) error {
	debug.Assert(t.root.Empty(), "art: deserialize requires an empty tree")

	root, used, err := tree.Deserialize(t.alloc, buf)
	if err != nil {
		return err
	}

	t.root = root
	t.used = used
	t.size = tree.CountKeys(root)

	return nil
}

// Delete is not supported: this structure has no delete operation, the
// same gap the implementation it was adapted from leaves open.
func (t *Tree) Delete(key uint64) error {
	return debug.Unsupported()
}
