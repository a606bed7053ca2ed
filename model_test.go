package lpm

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// The model tests drive the table with randomized add/update/delete
// sequences and compare every answer against a naive reference: a flat list
// of prefixes scanned for the longest match.

type modelEntry struct {
	addr    [LevelMax]byte
	masklen int
	value   string
}

func prefixCovers(addr []byte, masklen int, probe []byte) bool {
	for pos := 0; pos < masklen; pos++ {
		if bitAt(addr, pos) != bitAt(probe, pos) {
			return false
		}
	}
	return true
}

func modelLookup(model map[string]modelEntry, probe []byte) (string, bool) {
	best := -1
	var bestValue string
	for _, e := range model {
		if e.masklen > best && prefixCovers(e.addr[:], e.masklen, probe) {
			best = e.masklen
			bestValue = e.value
		}
	}
	return bestValue, best >= 0
}

func modelKey(addr []byte, masklen int) string {
	return fmt.Sprintf("%x/%d", addr[:LevelMax], masklen)
}

// randPrefix generates a masked random prefix, biased towards IPv4-like
// lengths so collisions and nesting actually happen.
func randPrefix(rng *rand.Rand) ([LevelMax]byte, int) {
	var addr [LevelMax]byte

	masklen := 1 + rng.Intn(32)
	if rng.Intn(4) == 0 {
		masklen = 1 + rng.Intn(MasklenMax)
	}

	// Draw bytes from a narrow alphabet to force shared paths.
	cnt := (masklen-1)>>3 + 1
	for i := range cnt {
		addr[i] = byte(rng.Intn(4) * 64)
	}

	// Mask the tail so the same prefix always has the same key.
	addr[cnt-1] &= 0xFF << (cnt*8 - masklen)

	return addr, masklen
}

func randProbe(rng *rand.Rand, model map[string]modelEntry) []byte {
	probe := make([]byte, LevelMax)

	// Half the probes are anchored on a stored prefix with a random tail.
	if len(model) > 0 && rng.Intn(2) == 0 {
		for _, e := range model {
			copy(probe, e.addr[:])
			break
		}
	}
	for i := range probe {
		if rng.Intn(3) == 0 {
			probe[i] = byte(rng.Intn(256))
		}
	}
	return probe
}

func verifyAgainstModel(t *testing.T, table *Table[string], model map[string]modelEntry, rng *rand.Rand) {
	t.Helper()

	// 1-trie authority: exact lookups agree for every stored prefix.
	for _, e := range model {
		v, ok := table.FindExact(e.addr[:], e.masklen)
		require.True(t, ok, "missing %s", modelKey(e.addr[:], e.masklen))
		require.Equal(t, e.value, v)
	}

	// Search consistency over random probes.
	for range 64 {
		probe := randProbe(rng, model)
		wantValue, wantOK := modelLookup(model, probe)
		v, usedDefault, ok := table.Search(probe)
		require.Equal(t, wantOK, ok, "probe %x", probe)
		require.Equal(t, wantOK, !usedDefault, "probe %x", probe)
		if wantOK {
			require.Equal(t, wantValue, v, "probe %x", probe)
		}
	}

	// Stats integrity.
	stat := table.Stats()
	require.Equal(t, len(model), stat.DataTotal)
	sum := uint32(0)
	for _, cnt := range stat.DataPerMasklen {
		sum += cnt
	}
	require.EqualValues(t, stat.DataTotal, sum)
	require.Equal(t, countNodes(table.btrieRoot), stat.NodeAllocs)
	require.Equal(t, countBlocks(table.mtrieRoot), stat.BlockAllocs)
}

func countNodes[V comparable](node *btrieNode[V]) int {
	if node == nil {
		return 0
	}
	return 1 + countNodes(node.child[0]) + countNodes(node.child[1])
}

func countBlocks[V comparable](block *mtrieBlock[V]) int {
	if block == nil {
		return 0
	}
	total := 1
	for i := range block {
		total += countBlocks(block[i].next)
	}
	return total
}

func TestRandomizedAgainstModel(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	table := newTestTable(t)
	model := map[string]modelEntry{}

	for op := range 600 {
		addr, masklen := randPrefix(rng)
		key := modelKey(addr[:], masklen)
		stored, inModel := model[key]

		switch {
		case rng.Intn(3) == 0 && inModel:
			require.NoError(t, table.Delete(addr[:], masklen), "op %d del %s", op, key)
			delete(model, key)

		case rng.Intn(5) == 0 && inModel:
			next := fmt.Sprintf("u%d", op)
			require.NoError(t, table.Update(addr[:], masklen, next), "op %d upd %s", op, key)
			stored.value = next
			model[key] = stored

		default:
			value := fmt.Sprintf("v%d", op)
			err := table.Add(addr[:], masklen, value)
			if inModel {
				require.ErrorIs(t, err, ErrConflict, "op %d add %s", op, key)
			} else {
				require.NoError(t, err, "op %d add %s", op, key)
				model[key] = modelEntry{addr: addr, masklen: masklen, value: value}
			}
		}

		if op%20 == 19 {
			verifyAgainstModel(t, table, model, rng)
		}
	}

	// Tear everything down through the public API and verify the table
	// returns to its pristine footprint.
	for _, e := range model {
		require.NoError(t, table.Delete(e.addr[:], e.masklen))
	}
	stat := table.Stats()
	require.Equal(t, 0, stat.DataTotal)
	require.Equal(t, 1, stat.NodeAllocs)
	require.Equal(t, 1, stat.BlockAllocs)

	require.NoError(t, table.Destroy())
}

func TestDeleteNotFound(t *testing.T) {
	table := newTestTable(t)
	mustAdd(t, table, addrOf(10), 8, "X")

	// Path exists but carries no payload.
	require.ErrorIs(t, table.Delete(addrOf(10), 4), ErrNotFound)
	// Path does not exist at all.
	require.ErrorIs(t, table.Delete(addrOf(77), 8), ErrNotFound)
}
