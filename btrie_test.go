package lpm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestTable(t *testing.T, opts ...Option) *Table[string] {
	t.Helper()
	table, err := New[string]("test", opts...)
	require.NoError(t, err)
	return table
}

func addrOf(bytes ...byte) []byte {
	addr := make([]byte, LevelMax)
	copy(addr, bytes)
	return addr
}

func TestBtrieAddPathAndFind(t *testing.T) {
	table := newTestTable(t)

	addr := addrOf(10, 1)

	node, _, _, existed, err := table.btrieAddPath(addr, 16)
	require.NoError(t, err)
	require.False(t, existed)
	require.NotNil(t, node)
	// Root + 16 path nodes.
	require.Equal(t, 17, table.stat.NodeAllocs)

	// The same path again is fully present.
	again, _, _, existed, err := table.btrieAddPath(addr, 16)
	require.NoError(t, err)
	require.True(t, existed)
	require.Same(t, node, again)
	require.Equal(t, 17, table.stat.NodeAllocs)

	require.Same(t, node, table.btrieFindNode(addr, 16))
	require.Nil(t, table.btrieFindNode(addrOf(10, 2), 16))
	require.Same(t, table.btrieRoot, table.btrieFindNode(nil, 0))
}

func TestBtrieAppendAnchor(t *testing.T) {
	table := newTestTable(t)

	// Pre-build a /8 path, then extend to /16: the anchor must point at the
	// /8 end node so the appended chain can be detached as a unit.
	addr := addrOf(10, 1)
	base, _, _, _, err := table.btrieAddPath(addr, 8)
	require.NoError(t, err)

	nodes := table.stat.NodeAllocs

	_, anchor, bit, existed, err := table.btrieAddPath(addr, 16)
	require.NoError(t, err)
	require.False(t, existed)
	require.Same(t, base, anchor)
	require.Equal(t, bitAt(addr, 8), bit)

	chain := anchor.child[bit]
	require.NotNil(t, chain)
	anchor.child[bit] = nil
	table.btrieDelAppended(chain)
	require.Equal(t, nodes, table.stat.NodeAllocs)
}

func TestBtrieAddPathResources(t *testing.T) {
	// Refuse every allocation after the k-th.
	allowed := 1 << 30
	table := newTestTable(t, WithMemCheck(func(size uintptr) bool {
		allowed--
		return allowed >= 0
	}))

	addr := addrOf(10, 20)

	allowed = 5
	_, anchor, bit, _, err := table.btrieAddPath(addr, 16)
	require.ErrorIs(t, err, ErrResources)

	// Rollback exactly as Add would do it.
	chain := anchor.child[bit]
	anchor.child[bit] = nil
	table.btrieDelAppended(chain)

	// Only the root remains.
	require.Equal(t, 1, table.stat.NodeAllocs)
	require.Nil(t, table.btrieRoot.child[0])
	require.Nil(t, table.btrieRoot.child[1])
	require.EqualValues(t, 1, table.stat.NodeAllocFails)
}

func TestBtrieDestroySubtree(t *testing.T) {
	table := newTestTable(t)

	_, _, _, _, err := table.btrieAddPath(addrOf(10), 8)
	require.NoError(t, err)
	_, _, _, _, err = table.btrieAddPath(addrOf(192), 8)
	require.NoError(t, err)

	table.btrieDestroySubtree(table.btrieRoot.child[0])
	table.btrieRoot.child[0] = nil
	table.btrieDestroySubtree(table.btrieRoot.child[1])
	table.btrieRoot.child[1] = nil

	require.Equal(t, 1, table.stat.NodeAllocs)
}
