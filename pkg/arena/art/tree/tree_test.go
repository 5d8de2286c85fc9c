package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flier/art64/pkg/arena"
	"github.com/flier/art64/pkg/arena/art/node"
)

func newTestTree() (*arena.Recycled, *node.Ref) {
	a := &arena.Recycled{}
	root := node.NewNode4(a).Ref()
	return a, &root
}

func TestInsertAndSearchPoint(t *testing.T) {
	a, root := newTestTree()
	var used, size uint64

	Insert(a, root, Encode(42), 1, node.Value(1001), &used, &size)

	v, ok := Search(*root, Encode(42))
	require.True(t, ok)
	assert.Equal(t, node.Value(1001), v)

	_, ok = Search(*root, Encode(43))
	assert.False(t, ok)

	assert.EqualValues(t, 1, size)
}

func TestInsertOverwritesExistingKey(t *testing.T) {
	a, root := newTestTree()
	var used, size uint64

	Insert(a, root, Encode(7), 1, node.Value(1), &used, &size)
	Insert(a, root, Encode(7), 1, node.Value(2), &used, &size)

	v, ok := Search(*root, Encode(7))
	require.True(t, ok)
	assert.Equal(t, node.Value(2), v)
	assert.EqualValues(t, 1, size)
}

func TestInsertManyKeysSharingPrefixSplits(t *testing.T) {
	a, root := newTestTree()
	var used, size uint64

	keys := []uint64{0x0000000000000001, 0x0000000000000101, 0x0000000001000001}
	for i, k := range keys {
		Insert(a, root, Encode(k), 1, node.Value(i+1), &used, &size)
	}

	for i, k := range keys {
		v, ok := Search(*root, Encode(k))
		require.True(t, ok, "key %x", k)
		assert.Equal(t, node.Value(i+1), v)
	}
	assert.EqualValues(t, len(keys), size)
}

func TestInsertCausesWidening(t *testing.T) {
	a, root := newTestTree()
	var used, size uint64

	// All keys share the same 56-bit prefix and differ only in the final
	// byte, forcing the leaf directory at depth 7 through every growth
	// step: Node4 -> Node16 -> Node48 -> Node256.
	const base = uint64(0xAABBCCDDEEFF0000)
	for i := 0; i < 60; i++ {
		Insert(a, root, Encode(base|uint64(i)), 1, node.Value(i), &used, &size)
	}

	for i := 0; i < 60; i++ {
		v, ok := Search(*root, Encode(base|uint64(i)))
		require.True(t, ok, "index %d", i)
		assert.Equal(t, node.Value(i), v)
	}
	assert.EqualValues(t, 60, size)
}

func TestRangeInsertAndQuery(t *testing.T) {
	a, root := newTestTree()
	var used, size uint64

	const start = uint64(0x0100000000000010)
	Insert(a, root, Encode(start), 32, node.Value(77), &used, &size)

	out := RangeQuery(*root, Encode(start), 32)
	require.Len(t, out, 32)
	for _, v := range out {
		assert.Equal(t, node.Value(77), v)
	}
	assert.EqualValues(t, 32, size)
}

func TestRangeQueryBeyondWrittenRunReturnsNulls(t *testing.T) {
	a, root := newTestTree()
	var used, size uint64

	const start = uint64(0x0200000000000000)
	Insert(a, root, Encode(start), 4, node.Value(9), &used, &size)

	out := RangeQuery(*root, Encode(start), 8)
	require.Len(t, out, 8)
	for i := 0; i < 4; i++ {
		assert.Equal(t, node.Value(9), out[i])
	}
	for i := 4; i < 8; i++ {
		assert.Equal(t, node.Value(0), out[i])
	}
}

func TestRangeQueryAgainstMissingSubtreeReturnsAllNulls(t *testing.T) {
	_, root := newTestTree()

	out := RangeQuery(*root, Encode(0xFFFFFFFFFFFFFF00), 16)
	require.Len(t, out, 16)
	for _, v := range out {
		assert.Equal(t, node.Value(0), v)
	}
}

func TestDestroyZeroesMemoryUsage(t *testing.T) {
	a, root := newTestTree()
	var used, size uint64
	// Start from the root's own size, as art.New does.
	used = uint64(root.AsNode().MemSize())

	for i := uint64(0); i < 100; i++ {
		Insert(a, root, Encode(i<<8), 1, node.Value(i), &used, &size)
	}
	require.Greater(t, used, uint64(0))

	Destroy(a, *root, &used)
	assert.EqualValues(t, 0, used)
}

func TestCountKeys(t *testing.T) {
	a, root := newTestTree()
	var used, size uint64

	Insert(a, root, Encode(1), 1, node.Value(1), &used, &size)
	Insert(a, root, Encode(2), 1, node.Value(2), &used, &size)
	Insert(a, root, Encode(0x0100000000000010), 10, node.Value(3), &used, &size)

	assert.EqualValues(t, size, CountKeys(*root))
}
