package tree

import (
	"github.com/flier/art64/internal/debug"
	"github.com/flier/art64/pkg/arena/art/node"
)

// Search walks from root looking for key, returning its value and true
// if an entry for it exists. Point lookups never need the leaf-run
// directory operations: a depth-7 leaf's FindChild works exactly like
// any inner node's, since the slot it returns is simply reinterpreted as
// a value instead of a child reference.
func Search(root node.Ref, key Key) (node.Value, bool) {
	ref := root
	depth := 0

	for depth < 8 {
		if ref.Empty() {
			return 0, false
		}

		n := ref.AsNode()

		if pl := len(n.PrefixBytes()); pl > 0 {
			if checkPrefix(n, key, depth) != pl {
				return 0, false
			}
			depth += pl
		}

		s := n.FindChild(key[depth])
		if s == nil {
			return 0, false
		}

		if n.IsLeaf() {
			return s.Value(), true
		}

		ref = s.Ref()
		depth++
	}

	return 0, false
}

// RangeQuery walks from root the same way Search does, but once it
// reaches the depth-7 leaf covering start's prefix, it asks the leaf for
// every value in [start, start+length) at once via QueryRun rather than
// one FindChild per key. Positions with no stored entry (including the
// entire result, if the run's leaf doesn't exist) come back as the zero
// Value, indistinguishable from an explicitly stored null.
func RangeQuery(root node.Ref, start Key, length int) []node.Value {
	out := make([]node.Value, length)

	ref := root
	depth := 0

	for depth < 8 {
		if ref.Empty() {
			return out
		}

		n := ref.AsNode()

		if pl := len(n.PrefixBytes()); pl > 0 {
			if checkPrefix(n, start, depth) != pl {
				return out
			}
			depth += pl
		}

		if n.IsLeaf() {
			debug.Assert(depth == 7, "tree: leaf reached at depth %d, want 7", depth)
			n.QueryRun(start[7], length, out)
			return out
		}

		s := n.FindChild(start[depth])
		if s == nil {
			return out
		}

		ref = s.Ref()
		depth++
	}

	return out
}
