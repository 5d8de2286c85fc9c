package node

import (
	"github.com/flier/art64/internal/debug"
	"github.com/flier/art64/pkg/arena"
)

// mergeSortedRun writes [start, start+length) into a sorted, dense
// key/child pair of slices (as used by Node4 and Node16 in both their
// inner and leaf modes), growing or overwriting the overlapping region in
// place. keys and children must have capacity for the post-merge count.
//
// The merge handles four regimes, told apart by whether any existing
// entry lies below start and whether any lies above the run's last key:
// the run covers every existing entry, the run lands between entries on
// both sides (shift-middle), the run has entries only above it
// (shift-front), or the run has entries only below it (append-after).
// Entries already covered by the run are overwritten in place rather
// than duplicated.
func mergeSortedRun(keys []byte, children []Slot, count int, start, length int, value Value) int {
	end := start + length - 1

	startIndex := -1
	for i := 0; i < count; i++ {
		if int(keys[i]) >= start {
			break
		}
		startIndex = i
	}

	endIndex := -1
	for j := count - 1; j >= 0; j-- {
		if int(keys[j]) <= end {
			break
		}
		endIndex = j
	}

	slot := SlotFromValue(value)

	switch {
	case startIndex == -1 && endIndex == -1:
		// No existing entry falls outside [start, end]: the run replaces
		// everything the node currently holds.
		for i := 0; i < length; i++ {
			keys[i] = byte(start + i)
			children[i] = slot
		}
		return length

	case startIndex != -1 && endIndex != -1:
		// The run lands strictly between two existing entries; shift the
		// tail right to make room, then write the run in between.
		moveLen := length - (endIndex - startIndex - 1)
		debug.Assert(moveLen >= 0, "node: leaf run merge produced a negative shift")
		copy(keys[endIndex+moveLen:count+moveLen], keys[endIndex:count])
		copy(children[endIndex+moveLen:count+moveLen], children[endIndex:count])
		for i := 0; i < length; i++ {
			keys[startIndex+1+i] = byte(start + i)
			children[startIndex+1+i] = slot
		}
		return count + moveLen

	case startIndex == -1:
		// The run covers everything up to endIndex; shift the remaining
		// tail right and write the run at the front.
		moveLen := length - endIndex
		debug.Assert(moveLen >= 0, "node: leaf run merge produced a negative shift")
		copy(keys[endIndex+moveLen:count+moveLen], keys[endIndex:count])
		copy(children[endIndex+moveLen:count+moveLen], children[endIndex:count])
		for i := 0; i < length; i++ {
			keys[i] = byte(start + i)
			children[i] = slot
		}
		return count + moveLen

	default:
		// endIndex == -1: the run covers everything from startIndex+1 to
		// the end; nothing needs to shift.
		for i := 0; i < length; i++ {
			keys[startIndex+1+i] = byte(start + i)
			children[startIndex+1+i] = slot
		}
		return startIndex + 1 + length
	}
}

// queryDenseRun answers a leaf-run query against a sorted, dense
// key/child pair of slices (Node4 and Node16): it walks the existing
// entries once and writes each entry whose key falls inside
// [start, start+length) into its position in out. Positions in out with
// no matching entry keep their zero value, which is indistinguishable
// from a stored null.
func queryDenseRun(keys []byte, children []Slot, count int, start byte, length int, out []Value) {
	for i := 0; i < count; i++ {
		off := int(keys[i]) - int(start)
		if off >= 0 && off < length {
			out[off] = children[i].Value()
		}
	}
}

// GrowLeafForRun returns the smallest variant able to hold total occupied
// slots, with every existing byte->value mapping in n carried over. It
// never shrinks: n must already be a leaf node whose capacity is smaller
// than total. The caller is responsible for releasing the old node and
// updating any memory accounting once the swap is published.
func GrowLeafForRun(a arena.Allocator, n Node, total int) Node {
	switch {
	case total > 48:
		return growLeafToNode256(a, n)
	case total > 16:
		return growLeafToNode48(a, n)
	default:
		return growLeafToNode16(a, n)
	}
}

func growLeafToNode16(a arena.Allocator, n Node) Node {
	src, ok := n.(*Node4)
	debug.Assert(ok, "node: leaf growth to node16 requires a node4 source, got %s", n.Type())

	dst := NewNode16(a)
	dst.Base = src.Base
	copy(dst.Keys[:], src.Keys[:src.Count])
	copy(dst.Children[:], src.Children[:src.Count])
	return dst
}

func growLeafToNode48(a arena.Allocator, n Node) Node {
	dst := NewNode48(a)

	switch src := n.(type) {
	case *Node4:
		dst.Base = src.Base
		for i := 0; i < src.Count; i++ {
			dst.Keys[src.Keys[i]] = byte(i + 1)
			dst.Children[i] = src.Children[i]
		}
	case *Node16:
		dst.Base = src.Base
		for i := 0; i < src.Count; i++ {
			dst.Keys[src.Keys[i]] = byte(i + 1)
			dst.Children[i] = src.Children[i]
		}
	default:
		debug.Assert(false, "node: leaf growth to node48 requires a node4 or node16 source, got %s", n.Type())
	}

	return dst
}

func growLeafToNode256(a arena.Allocator, n Node) Node {
	dst := NewNode256(a)

	switch src := n.(type) {
	case *Node4:
		dst.Base = src.Base
		for i := 0; i < src.Count; i++ {
			dst.Children[src.Keys[i]] = src.Children[i]
		}
	case *Node16:
		dst.Base = src.Base
		for i := 0; i < src.Count; i++ {
			dst.Children[src.Keys[i]] = src.Children[i]
		}
	case *Node48:
		dst.Base = src.Base
		for b := 0; b < 256; b++ {
			if idx := src.Keys[b]; idx != 0 {
				dst.Children[b] = src.Children[idx-1]
			}
		}
	default:
		debug.Assert(false, "node: leaf growth to node256 requires a node4, node16, or node48 source, got %s", n.Type())
	}

	return dst
}
