package lpm

// Deletion removes a prefix from the binary trie, then restores the
// multi-way trie to the state it would have if the prefix had never been
// inserted: the lost coverage is repainted with the nearest less-specific
// ancestor payload (or erased), and branches emptied by the removal are
// pruned, releasing multi-way blocks at stride boundaries.

// Delete removes (addr, masklen) from the table.
//
// Deleting the prefix currently promoted as the default leaves the default
// slot pointing at the removed payload; call DeleteDefault first.
func (t *Table[V]) Delete(addr []byte, masklen int) error {
	if err := t.checkArg(addr, masklen); err != nil {
		return err
	}

	if masklen == 0 {
		if t.btrieRoot.data == nil {
			t.debugNorm("no zero route stored")
			return ErrNotFound
		}
		t.btrieRoot.data = nil
		t.statDataRemove(0)
		t.logPrint("delete /0 success")
		return nil
	}

	tmp := maskedCopy(addr, masklen)
	err := t.delEntry(tmp[:], masklen)

	t.logPrint("delete %d-bit prefix, err=%v", masklen, err)

	return err
}

func (t *Table[V]) delEntry(addr []byte, masklen int) error {
	// Walk to the target, remembering the deepest ancestor carrying its own
	// payload: the less-specific restorer. The root's zero route never
	// restores; its coverage is handled by the default slot.
	node := t.btrieRoot
	lsr := node
	var lsrData *V
	lsrBitpos := 0

	for bitpos := 0; bitpos < masklen; bitpos++ {
		node = node.child[bitAt(addr, bitpos)]
		if node == nil {
			t.debugNorm("no corresponding node in b-trie")
			return ErrNotFound
		}
		if node.data != nil && bitpos != masklen-1 {
			lsr = node
			lsrData = node.data
			lsrBitpos = bitpos
		}
	}

	if node.data == nil {
		t.debugNorm("no stored payload in b-trie")
		return ErrNotFound
	}

	bitpos := masklen - 1
	node.data = nil
	t.statDataRemove(masklen)

	var err error
	switch {
	case lsrData != nil:
		if bitpos>>3 == lsrBitpos>>3 {
			// Restorer lives in the same multi-way block: re-expand its
			// coverage directly.
			err = t.expand(addr, lsrBitpos, lsr, lsrData, 0)
		} else {
			// Restorer lives in a shallower block; erase the target's
			// footprint and let readers fall back to the restorer's entry.
			err = t.expand(addr, bitpos, node, nil, 0)
		}
	case node.child[0] != nil || node.child[1] != nil:
		// More-specific prefixes remain below; erase the target's footprint
		// around them.
		err = t.expand(addr, bitpos, node, nil, 0)
	default:
		err = t.zeroOut(addr, masklen)
	}
	if err != nil {
		return err
	}

	startBitpos := lsrBitpos
	if lsr == t.btrieRoot {
		startBitpos = -1
	}
	t.pruneSubtree(addr, lsr, startBitpos, 0)

	return nil
}

// zeroOut is the fast erase path for a deleted prefix with neither a
// restorer nor more-specific descendants: walk the multi-way trie along
// addr, clearing entry payloads en route so ancestor entries stop
// answering, and erase the pattern at the target level.
func (t *Table[V]) zeroOut(addr []byte, masklen int) error {
	idx := addr[0]

	if masklen <= Stride {
		patternWrite(t.mtrieRoot, idx, masklen-1, (*V)(nil))
		return nil
	}

	entry := &t.mtrieRoot[idx]
	entry.data = nil
	trie := entry.next
	if trie == nil {
		t.fatalf("mtrie block missing on zero-out path")
	}

	for level := 1; trie != nil && level < LevelMax; level++ {
		idx = addr[level]
		if masklen-level*Stride <= Stride {
			t.debugNorm("zero out idx<%d>, bitpos<%d>", idx, masklen-1)
			patternWrite(trie, idx, masklen-1, (*V)(nil))
			break
		}
		entry = &trie[idx]
		entry.data = nil
		trie = entry.next
	}

	return nil
}

// unlinkTrieBlock detaches the multi-way block made unreachable by pruning
// the binary trie node at the given boundary bitpos, and releases it. By
// construction the orphan has no payloads left; a live next link inside it
// is a fatal bug.
func (t *Table[V]) unlinkTrieBlock(addr []byte, bitpos int) {
	if !isBoundary(bitpos) {
		t.fatalf("unlink at non-boundary bitpos %d", bitpos)
	}
	t.debugNorm("unlinking mtrie block below bitpos %d", bitpos)

	trieCount := bitpos>>3 + 1
	trie := t.mtrieRoot
	var entry *mtrieEntry[V]

	for level := 0; trie != nil && level < trieCount; level++ {
		entry = &trie[addr[level]]
		trie = entry.next
	}

	entry.next = nil
	if trie != nil {
		for i := range trie {
			if trie[i].next != nil {
				t.fatalf("orphan mtrie block keeps a live link at entry %d (bitpos %d)", i, bitpos)
			}
		}
		t.freeBlock(trie)
	}
}

// pruneSubtree removes binary trie branches that hold no payload anywhere,
// post-order. Reports whether root itself is deletable. When a node at a
// stride boundary goes away, the multi-way block below it is unlinked and
// released.
func (t *Table[V]) pruneSubtree(addr []byte, root *btrieNode[V], bitpos int, depth int) bool {
	t.warnRecursion("pruneSubtree", depth)

	if root.child[0] == nil && root.child[1] == nil {
		return root.data == nil
	}

	// Both children are always examined: an empty branch is pruned even
	// when its sibling keeps the node alive.
	empty := true
	for bit, child := range root.child {
		if child == nil {
			continue
		}
		if t.pruneSubtree(addr, child, bitpos+1, depth+1) {
			t.btrieDestroySubtree(child)
			root.child[bit] = nil
		} else {
			empty = false
		}
	}
	if !empty {
		return false
	}

	if root != t.btrieRoot {
		if isBoundary(bitpos) {
			t.unlinkTrieBlock(addr, bitpos)
		}
		return root.data == nil
	}

	return false
}
