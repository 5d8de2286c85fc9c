package tree

import (
	"encoding/binary"
	"fmt"

	"github.com/flier/art64/pkg/arena/art/node"
)

// header is the fixed-size record written before every node's
// variant-specific payload:
//
//	offset 0:    type        (1 byte)
//	offset 1:    leaf flag   (1 byte, 0 or 1)
//	offset 2:    prefix len  (1 byte, 0-7)
//	offset 3-9:  prefix      (7 bytes, zero-padded past prefix len)
//	offset 10-11: child count (uint16, little-endian)
const headerSize = 12

const (
	hdrType      = 0
	hdrLeaf      = 1
	hdrPrefixLen = 2
	hdrPrefix    = 3
	hdrCount     = 10
)

// node256BitmapSize is the width of the presence bitmap written for an
// inner Node256, one bit per possible byte value. The structure this
// format was adapted from serializes a full 256-byte bitmap; packing it
// to bits instead keeps the format portable without losing anything the
// reader needs.
const node256BitmapSize = 32

// Serialize flattens the tree rooted at root into a binary buffer using a
// breadth-first layout: the root's header and payload come first,
// followed by its children's records in the order EachChild visits them,
// then their children, and so on. Inner records carry only shape (keys
// or a presence bitmap); only leaf records carry values, since a child's
// position in the stream is what reattaches it to its parent on load.
func Serialize(root node.Ref) ([]byte, error) {
	buf := make([]byte, 0, 4096)
	if root.Empty() {
		return buf, nil
	}

	queue := []node.Ref{root}
	for len(queue) > 0 {
		ref := queue[0]
		queue = queue[1:]

		n := ref.AsNode()
		buf = writeNode(buf, n)

		if !n.IsLeaf() {
			n.EachChild(func(_ byte, child node.Ref) {
				queue = append(queue, child)
			})
		}
	}

	return buf, nil
}

func writeNode(buf []byte, n node.Node) []byte {
	buf = append(buf, byte(n.Type()))

	leafByte := byte(0)
	if n.IsLeaf() {
		leafByte = 1
	}
	buf = append(buf, leafByte)

	prefix := n.PrefixBytes()
	buf = append(buf, byte(len(prefix)))

	var prefixBuf [7]byte
	copy(prefixBuf[:], prefix)
	buf = append(buf, prefixBuf[:]...)

	var countBuf [2]byte
	binary.LittleEndian.PutUint16(countBuf[:], uint16(n.NumChildren()))
	buf = append(buf, countBuf[:]...)

	switch v := n.(type) {
	case *node.Node4:
		buf = append(buf, v.Keys[:]...)
		if v.IsLeaf() {
			buf = appendValues(buf, v.Children[:])
		}
	case *node.Node16:
		buf = append(buf, v.Keys[:]...)
		if v.IsLeaf() {
			buf = appendValues(buf, v.Children[:])
		}
	case *node.Node48:
		buf = append(buf, v.Keys[:]...)
		if v.IsLeaf() {
			buf = appendValues(buf, v.Children[:])
		}
	case *node.Node256:
		if v.IsLeaf() {
			buf = appendValues(buf, v.Children[:])
		} else {
			buf = appendBitmap(buf, v.Children[:])
		}
	}

	return buf
}

func appendValues(buf []byte, slots []node.Slot) []byte {
	var vb [8]byte
	for _, s := range slots {
		binary.LittleEndian.PutUint64(vb[:], uint64(s.Value()))
		buf = append(buf, vb[:]...)
	}
	return buf
}

func appendBitmap(buf []byte, slots []node.Slot) []byte {
	var bitmap [node256BitmapSize]byte
	for i, s := range slots {
		if !s.Empty() {
			bitmap[i/8] |= 1 << uint(i%8)
		}
	}
	return append(buf, bitmap[:]...)
}

// errTruncated reports a buffer that ends before a record it promised
// (via a header or child count) is fully readable.
type errTruncated struct {
	want, have int
}

func (e *errTruncated) Error() string {
	return fmt.Sprintf("art: truncated buffer: need %d bytes, have %d", e.want, e.have)
}

type errUnknownType struct{ typ byte }

func (e *errUnknownType) Error() string {
	return fmt.Sprintf("art: unknown node type %d in serialized buffer", e.typ)
}
