package lpm

// Search returns the payload of the longest stored prefix matching addr.
//
// This is the datapath: it traverses only the multi-way trie, one memory
// read per stride level, remembering the deepest payload seen. When no
// entry matches, the default slot answers and usedDefault is set — note
// that a stored zero route answers searches only after promotion with
// UpdateDefault.
//
// addr must hold LevelMax bytes in network byte order.
func (t *Table[V]) Search(addr []byte) (value V, usedDefault bool, ok bool) {
	if t == nil || t.mtrieRoot == nil || len(addr) < LevelMax {
		return value, false, false
	}

	var data *V
	for level, block := 0, t.mtrieRoot; block != nil && level < LevelMax; level++ {
		entry := &block[addr[level]]
		if entry.data != nil {
			data = entry.data
		}
		block = entry.next
	}

	if data == nil {
		if t.defaultData == nil {
			return value, true, false
		}
		return *t.defaultData, true, true
	}

	return *data, false, true
}
