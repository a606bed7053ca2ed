package lpm

import "fmt"

// WalkFunc is invoked for every stored prefix. addr is a scratch buffer
// valid only for the duration of the call; copy it to retain. Returning a
// non-nil error aborts the walk and is surfaced wrapped in ErrExotic.
type WalkFunc[V comparable] func(addr []byte, masklen int, value V) error

// Walk visits every stored prefix in pre-order, then the default entry if
// one is promoted.
func (t *Table[V]) Walk(fn WalkFunc[V]) error {
	if t == nil || t.btrieRoot == nil {
		return ErrInvalid
	}
	if fn == nil {
		return ErrInvalid
	}

	var scratch [LevelMax]byte
	if err := t.btrieWalk(t.btrieRoot, scratch[:], 0, fn, 0); err != nil {
		return err
	}

	if t.defaultData != nil {
		addr := t.defaultAddr
		if err := fn(addr[:], t.defaultMasklen, *t.defaultData); err != nil {
			return fmt.Errorf("%w: %w", ErrExotic, err)
		}
	}

	return nil
}

// btrieWalk maintains a single scratch address: it sets the bit at bitpos
// before descending right and clears it after returning, so the address
// passed to the callback always reflects the prefix-path.
func (t *Table[V]) btrieWalk(node *btrieNode[V], addr []byte, bitpos int, fn WalkFunc[V], depth int) error {
	t.warnRecursion("btrieWalk", depth)

	if node.data != nil {
		if err := fn(addr, bitpos, *node.data); err != nil {
			return fmt.Errorf("%w: %w", ErrExotic, err)
		}
	}

	if node.child[0] != nil {
		clearBit(addr, bitpos)
		if err := t.btrieWalk(node.child[0], addr, bitpos+1, fn, depth+1); err != nil {
			return err
		}
	}

	if node.child[1] != nil {
		setBit(addr, bitpos)
		err := t.btrieWalk(node.child[1], addr, bitpos+1, fn, depth+1)
		clearBit(addr, bitpos)
		if err != nil {
			return err
		}
	}

	return nil
}
