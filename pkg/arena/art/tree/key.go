// Package tree implements the recursive walk that turns the node
// package's directory structures into a tree over fixed 8-byte keys:
// point and run insert, point and run query, destruction, and the
// breadth-first binary serialization format.
package tree

import "encoding/binary"

// Key is a 64-bit key encoded as big-endian bytes, so that byte-wise
// comparison of two Keys agrees with the numeric ordering of the keys
// they came from. Every node's 7-byte prefix and every leaf's final byte
// are slices into a Key.
type Key [8]byte

// Encode turns a uint64 key into its big-endian byte representation.
func Encode(key uint64) Key {
	var k Key
	binary.BigEndian.PutUint64(k[:], key)
	return k
}
