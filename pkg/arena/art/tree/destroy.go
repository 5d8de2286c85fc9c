package tree

import (
	"github.com/flier/art64/pkg/arena"
	"github.com/flier/art64/pkg/arena/art/node"
)

// Destroy releases every node reachable from root back to a, decrementing
// used by each node's size as it goes.
func Destroy(a arena.Allocator, root node.Ref, used *uint64) {
	destroyNode(a, root, used)
}

func destroyNode(a arena.Allocator, ref node.Ref, used *uint64) {
	if ref.Empty() {
		return
	}

	n := ref.AsNode()

	if !n.IsLeaf() {
		n.EachChild(func(_ byte, child node.Ref) {
			destroyNode(a, child, used)
		})
	}

	*used -= uint64(n.MemSize())
	n.Release(a)
}

// CountKeys walks the tree rooted at root and counts the number of
// distinct keys stored under it, by summing the occupied slot count of
// every leaf it reaches. This is used to rebuild the tree's key count
// after Deserialize, since the wire format doesn't carry it directly.
func CountKeys(root node.Ref) uint64 {
	if root.Empty() {
		return 0
	}
	return countKeys(root.AsNode())
}

func countKeys(n node.Node) uint64 {
	if n.IsLeaf() {
		return uint64(n.NumChildren())
	}

	var total uint64
	n.EachChild(func(_ byte, child node.Ref) {
		total += countKeys(child.AsNode())
	})
	return total
}
