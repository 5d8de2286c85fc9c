package tree

import (
	"github.com/flier/art64/pkg/arena"
	"github.com/flier/art64/pkg/arena/art/node"
)

// Insert writes value at key (when length is 1) or at every key in
// [key, key+length) that shares key's first 7 bytes (when length is
// greater than 1, as RangeInsert uses it). used and size are updated in
// place to track memory consumption and the number of distinct keys
// stored, including any growth this call triggers.
func Insert(a arena.Allocator, root *node.Ref, key Key, length int, value node.Value, used, size *uint64) {
	insert(a, root, key, length, value, 0, used, size)
}

// insert recurses down to the depth-7 leaf that owns key, splitting a
// node's prefix if key diverges from it first, and growing any node that
// runs out of room along the way. ref always points at the slot being
// mutated, whether that's the tree's root or a specific child slot deep
// in the structure, so a split or grow at any depth is published by
// writing through it rather than by returning a new reference up the
// call stack.
func insert(a arena.Allocator, ref *node.Ref, key Key, length int, value node.Value, depth int, used, size *uint64) {
	if ref.Empty() {
		if depth > 0 {
			*ref = newLeafNode(a, key, length, value, depth, used, size)
			return
		}

		// An empty root (as Destroy leaves it) gets the same inner Node4
		// that New starts with, so no leaf ever carries a 7-byte prefix.
		root := node.NewNode4(a)
		*used += uint64(root.MemSize())
		*ref = root.Ref()
	}

	n := ref.AsNode()

	if depth < 7 {
		if pl := len(n.PrefixBytes()); pl > 0 {
			p := checkPrefix(n, key, depth)
			if p == pl {
				depth += pl
			} else {
				splitPrefix(a, ref, n, key, length, value, depth, p, used, size)
				return
			}
		}
	}

	if depth == 7 {
		insertLeafRun(a, ref, key[7], length, value, used, size)
		return
	}

	b := key[depth]

	if s := n.FindChild(b); s != nil {
		insert(a, s.AsRef(), key, length, value, depth+1, used, size)
		return
	}

	child := newLeafNode(a, key, length, value, depth+1, used, size)
	addChild(a, ref, b, child, used)
}

// newLeafNode allocates a fresh, properly sized leaf for a run of
// length keys starting at key, gives it the prefix key[depth:7) (empty
// if depth is already 7), and writes the run into it.
func newLeafNode(a arena.Allocator, key Key, length int, value node.Value, depth int, used, size *uint64) node.Ref {
	n := node.MakeProperNode(a, length)
	*used += uint64(n.MemSize())

	if depth < 7 {
		n.SetPrefix(key[depth:7])
	}
	n.SetLeaf(true)

	ref := n.Ref()
	insertLeafRun(a, &ref, key[7], length, value, used, size)
	return ref
}

// splitPrefix handles the case where key diverges from n's prefix after
// p matching bytes: n is demoted to the subtree under the byte that
// follows the matched prefix, a new Node4 takes n's old place holding the
// matched prefix, and a fresh leaf for key is added as its other child.
func splitPrefix(a arena.Allocator, ref *node.Ref, n node.Node, key Key, length int, value node.Value, depth, p int, used, size *uint64) {
	oldPrefix := n.PrefixBytes()
	divergingByte := oldPrefix[p]

	parent := node.NewNode4(a)
	*used += uint64(parent.MemSize())
	parent.SetPrefix(oldPrefix[:p])

	n.SetPrefix(oldPrefix[p+1:])

	leaf := newLeafNode(a, key, length, value, depth+p+1, used, size)

	parent.AddChild(key[depth+p], leaf)
	parent.AddChild(divergingByte, n.Ref())

	*ref = parent.Ref()
}

// addChild adds child under byte b in the node ref points at, growing
// that node first if it's already full, and publishing any replacement
// node back through ref.
func addChild(a arena.Allocator, ref *node.Ref, b byte, child node.Ref, used *uint64) {
	n := ref.AsNode()

	if n.Full() {
		oldSize := n.MemSize()
		grown := n.Grow(a)
		n.Release(a)
		*used += uint64(grown.MemSize() - oldSize)
		*ref = grown.Ref()
		n = grown
	}

	n.AddChild(b, child)
}

// insertLeafRun writes [start, start+length) into the leaf ref points
// at, growing it first if its capacity can't hold the merged entry
// count, and publishing any replacement node back through ref. size is
// advanced by however many of the run's slots were previously unfilled.
func insertLeafRun(a arena.Allocator, ref *node.Ref, start byte, length int, value node.Value, used, size *uint64) {
	n := ref.AsNode()
	before := n.NumChildren()

	if total := before + length; n.Type() != node.TypeNode256 && total > n.Capacity() {
		oldSize := n.MemSize()
		grown := node.GrowLeafForRun(a, n, total)
		n.Release(a)
		*used += uint64(grown.MemSize() - oldSize)
		*ref = grown.Ref()
		n = grown
	}

	n.InsertRunSafe(start, length, value)
	*size += uint64(n.NumChildren() - before)
}
