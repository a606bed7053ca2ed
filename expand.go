package lpm

// Controlled prefix expansion: a prefix of length m is replicated into
// 2^(Stride - m%Stride) consecutive entries of one multi-way block (a single
// entry when m is a multiple of Stride), except for sub-ranges already
// claimed by a more-specific stored prefix.

// nextbit tells genCombinations whether to force the bit following bitpos
// before writing the pattern.
type nextbit int8

const (
	nextbitNone nextbit = -1
	nextbitZero nextbit = 0
	nextbitOne  nextbit = 1
)

// patternWrite overwrites the payload slot of every entry in the range of
// block covered by a prefix ending at bitpos. A nil data erases.
//
// For a boundary bitpos the range is exactly block[idx]; otherwise it is
// [idx&mask, idx|^mask] where mask keeps the (bitpos+1)%8 significant bits
// of idx.
func patternWrite[V comparable](block *mtrieBlock[V], idx uint8, bitpos int, data *V) {
	var mask uint8
	if isBoundary(bitpos) {
		mask = 0xFF
	} else {
		mod := (bitpos + 1) % Stride
		mask = ^uint8(1<<(Stride-mod) - 1)
	}

	lo := int(idx & mask)
	hi := int(idx | ^mask)
	for i := lo; i <= hi; i++ {
		block[i].data = data
	}
}

// forceBit returns idx with the bit after bitpos (within its stride level)
// forced to nb.
func forceBit(idx uint8, bitpos int, nb nextbit) uint8 {
	bit := uint8(1) << (7 - (bitpos+1)&7)
	if nb == nextbitOne {
		return idx | bit
	}
	return idx &^ bit
}

// genCombinations writes one expanded pattern for the prefix of addr ending
// at bitpos (with the following bit optionally forced), allocating the
// chain of multi-way blocks down to the target level on demand.
//
// Allocation is all-or-nothing: if any block in the chain cannot be
// allocated, every freshly allocated block is released and ErrResources is
// returned with no link installed. Fresh blocks are linked bottom-up, so a
// concurrent reader sees either the old state or fully populated blocks,
// never a partially built chain.
func (t *Table[V]) genCombinations(addr []byte, bitpos int, data *V, nb nextbit) error {
	if nb != nextbitNone && isBoundary(bitpos) {
		t.fatalf("cannot force a bit across a stride boundary (bitpos %d)", bitpos)
	}

	if bitpos < Stride {
		// Level 0: the root block always exists.
		idx := addr[0]
		if nb == nextbitNone {
			patternWrite(t.mtrieRoot, idx, bitpos, data)
		} else {
			patternWrite(t.mtrieRoot, forceBit(idx, bitpos, nb), bitpos+1, data)
		}
		return nil
	}

	trieCount := bitpos>>3 + 1

	var (
		chain [LevelMax]*mtrieBlock[V]
		idxs  [LevelMax]uint8
		fresh [LevelMax]bool
	)

	frontier := t.mtrieRoot
	for level := 0; level < trieCount; level++ {
		if frontier == nil {
			frontier = t.allocBlock()
			if frontier == nil {
				t.debugMem("mtrie block alloc failed at level %d, releasing fresh blocks", level)
				for i := range level {
					if fresh[i] {
						t.freeBlock(chain[i])
					}
				}
				return ErrResources
			}
			fresh[level] = true
		}
		chain[level] = frontier
		idxs[level] = addr[level]

		frontier = chain[level][idxs[level]].next
	}

	// Populate the target block first, then hook fresh blocks bottom-up so
	// they become visible to readers only once populated below.
	// Pre-existing links must already agree with the chain we walked.
	target := chain[trieCount-1]
	idx := idxs[trieCount-1]
	if nb == nextbitNone {
		patternWrite(target, idx, bitpos, data)
	} else {
		patternWrite(target, forceBit(idx, bitpos, nb), bitpos+1, data)
	}

	for level := trieCount - 1; level > 0; level-- {
		pre := &chain[level-1][idxs[level-1]]
		if fresh[level] {
			pre.next = chain[level]
		} else if pre.next != chain[level] {
			t.fatalf("mtrie chain link mismatch at level %d", level)
		}
	}

	return nil
}

// expand writes data into every multi-way trie entry covered by the prefix
// of addr ending at bitpos, except ranges dominated by a more-specific
// stored prefix. root is the binary trie node of that prefix; its subtree
// reveals the more-specific owners.
//
// addr is a scratch buffer: descent sets or clears the bit after bitpos and
// leaves it cleared on return. Bits up to bitpos are never touched, so the
// prefix the caller passed in is preserved.
func (t *Table[V]) expand(addr []byte, bitpos int, root *btrieNode[V], data *V, depth int) error {
	t.warnRecursion("expand", depth)

	// A boundary bit, or a leaf of the binary trie, covers a single
	// maximal range: write it out directly.
	if isBoundary(bitpos) || (root.child[0] == nil && root.child[1] == nil) {
		return t.genCombinations(addr, bitpos, data, nextbitNone)
	}

	if child := root.child[0]; child != nil {
		if child.data == nil {
			clearBit(addr, bitpos+1)
			if err := t.expand(addr, bitpos+1, child, data, depth+1); err != nil {
				return err
			}
		}
		// A more-specific payload owns the whole 0-half; leave it alone.
	} else {
		if err := t.genCombinations(addr, bitpos, data, nextbitZero); err != nil {
			return err
		}
	}

	if child := root.child[1]; child != nil {
		if child.data == nil {
			setBit(addr, bitpos+1)
			err := t.expand(addr, bitpos+1, child, data, depth+1)
			// Restore the scratch address for the caller's next descent.
			clearBit(addr, bitpos+1)
			if err != nil {
				return err
			}
		}
	} else {
		if err := t.genCombinations(addr, bitpos, data, nextbitOne); err != nil {
			return err
		}
	}

	return nil
}
