package tree

import (
	"encoding/binary"

	"github.com/flier/art64/pkg/arena"
	"github.com/flier/art64/pkg/arena/art/node"
)

// reader walks buf forward as records are parsed, reporting a
// *errTruncated instead of panicking when a record runs past the end of
// the buffer. A buffer that fails to parse leaves any nodes already
// allocated from a dangling but otherwise untouched; callers that care
// should discard a and start over rather than trying to patch up a
// partially loaded tree.
type reader struct {
	buf []byte
	pos int
}

func (r *reader) take(n int) ([]byte, error) {
	if r.pos+n > len(r.buf) {
		return nil, &errTruncated{want: r.pos + n, have: len(r.buf)}
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Deserialize parses buf, written by Serialize, into a fresh tree
// allocated from a. It returns the new root and the total byte size of
// the nodes it allocated, suitable for seeding a tree's memory-usage
// counter.
func Deserialize(a arena.Allocator, buf []byte) (node.Ref, uint64, error) {
	if len(buf) == 0 {
		return 0, 0, nil
	}

	r := &reader{buf: buf}

	root, rootNode, _, err := readNode(a, r)
	if err != nil {
		return 0, 0, err
	}

	used := uint64(rootNode.MemSize())

	type pending struct {
		ref    node.Ref
		n      node.Node
		bitmap []byte
	}
	queue := []pending{{root, rootNode, nil}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.n.IsLeaf() {
			continue
		}

		positions, err := childPositions(cur.n, cur.bitmap)
		if err != nil {
			return 0, 0, err
		}

		for i, b := range positions {
			childRef, childNode, childBitmap, err := readNode(a, r)
			if err != nil {
				return 0, 0, err
			}
			used += uint64(childNode.MemSize())
			attachChild(cur.n, i, b, childRef)
			queue = append(queue, pending{childRef, childNode, childBitmap})
		}
	}

	return root, used, nil
}

// readNode parses one header and payload from r, allocating the
// corresponding node from a. Children are left empty; BFS reattachment
// in Deserialize fills them in once they've been read themselves.
func readNode(a arena.Allocator, r *reader) (node.Ref, node.Node, []byte, error) {
	hdr, err := r.take(headerSize)
	if err != nil {
		return 0, nil, nil, err
	}

	typ := node.Type(hdr[hdrType])
	leaf := hdr[hdrLeaf] != 0
	prefixLen := int(hdr[hdrPrefixLen])
	prefix := append([]byte(nil), hdr[hdrPrefix:hdrPrefix+7]...)
	count := int(binary.LittleEndian.Uint16(hdr[hdrCount : hdrCount+2]))

	switch typ {
	case node.TypeNode4:
		keys, err := r.take(4)
		if err != nil {
			return 0, nil, nil, err
		}
		n := node.NewNode4(a)
		n.SetPrefix(prefix[:prefixLen])
		n.SetLeaf(leaf)
		n.Count = count
		copy(n.Keys[:], keys)
		if leaf {
			if err := readValues(r, n.Children[:]); err != nil {
				return 0, nil, nil, err
			}
		}
		return n.Ref(), n, nil, nil

	case node.TypeNode16:
		keys, err := r.take(16)
		if err != nil {
			return 0, nil, nil, err
		}
		n := node.NewNode16(a)
		n.SetPrefix(prefix[:prefixLen])
		n.SetLeaf(leaf)
		n.Count = count
		copy(n.Keys[:], keys)
		if leaf {
			if err := readValues(r, n.Children[:]); err != nil {
				return 0, nil, nil, err
			}
		}
		return n.Ref(), n, nil, nil

	case node.TypeNode48:
		keys, err := r.take(256)
		if err != nil {
			return 0, nil, nil, err
		}
		n := node.NewNode48(a)
		n.SetPrefix(prefix[:prefixLen])
		n.SetLeaf(leaf)
		n.Count = count
		copy(n.Keys[:], keys)
		if leaf {
			if err := readValues(r, n.Children[:]); err != nil {
				return 0, nil, nil, err
			}
		}
		return n.Ref(), n, nil, nil

	case node.TypeNode256:
		n := node.NewNode256(a)
		n.SetPrefix(prefix[:prefixLen])
		n.SetLeaf(leaf)
		n.Count = count
		if leaf {
			if err := readValues(r, n.Children[:]); err != nil {
				return 0, nil, nil, err
			}
			return n.Ref(), n, nil, nil
		}
		bitmap, err := r.take(node256BitmapSize)
		if err != nil {
			return 0, nil, nil, err
		}
		return n.Ref(), n, append([]byte(nil), bitmap...), nil

	default:
		return 0, nil, nil, &errUnknownType{typ: hdr[hdrType]}
	}
}

func readValues(r *reader, slots []node.Slot) error {
	for i := range slots {
		vb, err := r.take(8)
		if err != nil {
			return err
		}
		slots[i] = node.SlotFromValue(node.Value(binary.LittleEndian.Uint64(vb)))
	}
	return nil
}

// childPositions returns, in the order children were written, the byte
// each expected child belongs under.
func childPositions(n node.Node, bitmap []byte) ([]byte, error) {
	switch v := n.(type) {
	case *node.Node4:
		return v.Keys[:v.Count], nil
	case *node.Node16:
		return v.Keys[:v.Count], nil
	case *node.Node48:
		out := make([]byte, 0, v.Count)
		for b := 0; b < 256; b++ {
			if v.Keys[b] != 0 {
				out = append(out, byte(b))
			}
		}
		return out, nil
	case *node.Node256:
		out := make([]byte, 0, v.Count)
		for b := 0; b < 256; b++ {
			if bitmap[b/8]&(1<<uint(b%8)) != 0 {
				out = append(out, byte(b))
			}
		}
		return out, nil
	default:
		return nil, nil
	}
}

// attachChild writes childRef into parent's i-th expected slot (for
// Node4/Node16, position i of the already-known key order) or the slot
// that byte b resolves to (for Node48/Node256, where reattachment is by
// byte rather than stream order).
func attachChild(parent node.Node, i int, b byte, childRef node.Ref) {
	switch v := parent.(type) {
	case *node.Node4:
		v.Children[i] = node.SlotFromRef(childRef)
	case *node.Node16:
		v.Children[i] = node.SlotFromRef(childRef)
	case *node.Node48:
		idx := v.Keys[b]
		v.Children[idx-1] = node.SlotFromRef(childRef)
	case *node.Node256:
		v.Children[b] = node.SlotFromRef(childRef)
	}
}
