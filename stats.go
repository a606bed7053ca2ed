package lpm

import (
	"fmt"
	"strings"

	"github.com/c2h5oh/datasize"
)

// Stats is a snapshot of the table's allocation and payload counters.
//
// NodeAllocs and BlockAllocs track live objects: every release decrements
// them, and underflow is treated as a fatal bug.
type Stats struct {
	// NodeAllocs is the number of live binary trie nodes.
	NodeAllocs int
	// NodeAllocFails counts refused node allocations.
	NodeAllocFails uint32
	// BlockAllocs is the number of live multi-way trie blocks.
	BlockAllocs int
	// BlockAllocFails counts refused block allocations.
	BlockAllocFails uint32
	// DataTotal is the number of payloads stored in the table.
	DataTotal int
	// DataPerMasklen breaks DataTotal down by prefix length.
	DataPerMasklen [MasklenMax + 1]uint32
	// NodeMem and BlockMem are the memory held by each structure.
	NodeMem  datasize.ByteSize
	BlockMem datasize.ByteSize
}

// TotalMem returns the memory held by both tries.
func (m Stats) TotalMem() datasize.ByteSize {
	return m.NodeMem + m.BlockMem
}

// String renders the statistics report, including a per-masklen histogram of
// stored payloads.
func (m Stats) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "B-trie allocated nodes: %d nodes, [%s]\n", m.NodeAllocs, m.NodeMem.HR())
	fmt.Fprintf(&b, "B-trie allocation failures: %d times\n", m.NodeAllocFails)
	fmt.Fprintf(&b, "M-trie allocated blocks: %d blocks, [%s]\n", m.BlockAllocs, m.BlockMem.HR())
	fmt.Fprintf(&b, "M-trie allocation failures: %d times\n", m.BlockAllocFails)
	fmt.Fprintf(&b, "Valid data total count: [%d]\n", m.DataTotal)

	const barWidth = 100
	for masklen, count := range m.DataPerMasklen {
		if count == 0 {
			continue
		}
		bar := int(uint64(count) * barWidth / uint64(m.DataTotal))
		if bar == 0 {
			bar = 1
		}
		if bar > barWidth {
			bar = barWidth
		}
		fmt.Fprintf(&b, "  /%-3d [%4d]: %s\n", masklen, count, strings.Repeat("*", bar))
	}

	fmt.Fprintf(&b, "Total memory size: %s", m.TotalMem().HR())

	return b.String()
}

// Stats returns a snapshot of the table counters.
func (t *Table[V]) Stats() Stats {
	stat := t.stat
	stat.NodeMem = datasize.ByteSize(uint64(stat.NodeAllocs) * uint64(t.nodeSize))
	stat.BlockMem = datasize.ByteSize(uint64(stat.BlockAllocs) * uint64(t.blockSize))
	return stat
}

func (t *Table[V]) statDataAdd(masklen int) {
	t.stat.DataTotal++
	t.stat.DataPerMasklen[masklen]++
}

func (t *Table[V]) statDataRemove(masklen int) {
	if t.stat.DataTotal <= 0 || t.stat.DataPerMasklen[masklen] == 0 {
		t.fatalf("data counter underflow at masklen %d", masklen)
	}
	t.stat.DataTotal--
	t.stat.DataPerMasklen[masklen]--
}
