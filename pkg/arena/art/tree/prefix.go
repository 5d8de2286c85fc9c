package tree

import "github.com/flier/art64/pkg/arena/art/node"

// prefixCapLen is the number of prefix bytes checkPrefix actually
// compares, regardless of how long the node's prefix is. A node's prefix
// can be up to 7 bytes, but the structure it was ported from only ever
// compares the first 6. For a 7-byte prefix checkPrefix therefore
// returns at most 6, which callers treat as a mismatch; the walker never
// builds such a prefix, because the root is always an inner node and
// every other node sits at depth 1 or deeper.
const prefixCapLen = 6

// checkPrefix compares n's prefix against key starting at depth, up to
// min(6, len(prefix)) bytes, and returns how many bytes matched. A result
// equal to the full prefix length means the prefix matched exactly (as
// far as this function checks); anything less is the position of the
// first mismatching byte.
func checkPrefix(n node.Node, key Key, depth int) int {
	prefix := n.PrefixBytes()

	limit := len(prefix)
	if limit > prefixCapLen {
		limit = prefixCapLen
	}

	i := 0
	for ; i < limit; i++ {
		if key[depth+i] != prefix[i] {
			return i
		}
	}
	return i
}
