package lpm

import (
	"errors"
	"unsafe"

	"github.com/c2h5oh/datasize"
	"go.uber.org/zap"
)

// defaultName is used when a table is created with an empty name.
const defaultName = "Unknown"

// Table is a longest prefix match table mapping prefixes of up to
// MasklenMax bits to payloads of type V.
//
// The zero value is not usable; construct with New.
type Table[V comparable] struct {
	name string

	btrieRoot *btrieNode[V]
	mtrieRoot *mtrieBlock[V]

	defaultData    *V
	defaultAddr    [LevelMax]byte
	defaultMasklen int

	log        *zap.SugaredLogger
	debugFlags uint32

	memLimit datasize.ByteSize
	memCheck func(size uintptr) bool
	memUsed  uint64

	nodeSize  uintptr
	blockSize uintptr

	stat Stats
}

// New creates a table with the given name (truncated to NameLen-1 bytes).
//
// The binary trie root and the level-0 multi-way block are allocated up
// front; if the memory budget refuses them, no table is created and
// ErrResources is returned.
func New[V comparable](name string, opts ...Option) (*Table[V], error) {
	o := options{
		log: zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if name == "" {
		name = defaultName
	}
	if len(name) > NameLen-1 {
		name = name[:NameLen-1]
	}

	t := &Table[V]{
		name:      name,
		log:       o.log.With(zap.String("table", name)),
		memLimit:  o.memLimit,
		memCheck:  o.memCheck,
		nodeSize:  unsafe.Sizeof(btrieNode[V]{}),
		blockSize: unsafe.Sizeof(mtrieBlock[V]{}),
	}

	t.btrieRoot = t.allocNode()
	if t.btrieRoot == nil {
		return nil, ErrResources
	}

	t.mtrieRoot = t.allocBlock()
	if t.mtrieRoot == nil {
		t.freeNode(t.btrieRoot)
		return nil, ErrResources
	}

	t.debugNorm("table initialized")

	return t, nil
}

// Name returns the table name.
func (t *Table[V]) Name() string {
	return t.name
}

// Destroy releases both tries and verifies that the allocation counters
// return to zero. The table must not be used afterwards.
func (t *Table[V]) Destroy() error {
	if t == nil || t.btrieRoot == nil {
		return ErrInvalid
	}

	t.logPrint("destroying table")

	t.freeBlockTree(t.mtrieRoot)
	t.mtrieRoot = nil

	t.btrieDestroySubtree(t.btrieRoot)
	t.btrieRoot = nil

	if t.stat.NodeAllocs != 0 || t.stat.BlockAllocs != 0 {
		t.fatalf("leak on destroy: %d nodes, %d blocks still accounted",
			t.stat.NodeAllocs, t.stat.BlockAllocs)
	}

	return nil
}

// allocAllowed consults the allocation gate. The explicit check hook takes
// precedence over the byte budget.
func (t *Table[V]) allocAllowed(size uintptr) bool {
	if t.memCheck != nil {
		return t.memCheck(size)
	}
	if t.memLimit > 0 && t.memUsed+uint64(size) > uint64(t.memLimit) {
		return false
	}
	return true
}

func (t *Table[V]) checkArg(addr []byte, masklen int) error {
	if t == nil || t.btrieRoot == nil || t.mtrieRoot == nil {
		return ErrInvalid
	}
	if masklen < 0 || masklen > MasklenMax {
		return ErrInvalid
	}
	if masklen > 0 && len(addr)*Stride < masklen {
		return ErrInvalid
	}
	return nil
}

// maskedCopy copies the bytes of addr covered by masklen into a zeroed
// scratch buffer. Trailing bits inside the last byte are left as given:
// every consumer masks them out itself.
func maskedCopy(addr []byte, masklen int) [LevelMax]byte {
	var tmp [LevelMax]byte
	if masklen > 0 {
		cnt := (masklen-1)>>3 + 1
		copy(tmp[:cnt], addr)
	}
	return tmp
}

// Add inserts (addr, masklen) with the given payload.
//
// Adding a prefix that already holds an equal payload returns ErrExists;
// a different payload returns ErrConflict and changes nothing. On
// ErrResources the table is rolled back to its prior state.
//
// A zero-length prefix is stored in the binary trie root only; it answers
// Search calls only after being promoted with UpdateDefault.
func (t *Table[V]) Add(addr []byte, masklen int, value V) error {
	if err := t.checkArg(addr, masklen); err != nil {
		return err
	}

	node, appendPoint, appendBit, existed, err := t.btrieAddPath(addr, masklen)
	if err != nil {
		// The partially appended chain hangs off the append point; detach
		// and release it.
		t.debugMem("btrie node alloc failed, rolling back appended chain")
		t.rollbackAppended(appendPoint, appendBit)
		return err
	}

	if node.data != nil {
		if *node.data == value {
			t.debugNorm("payload already exists")
			return ErrExists
		}
		t.debugNorm("payload conflicts with stored payload")
		return ErrConflict
	}

	v := value
	node.data = &v
	t.statDataAdd(masklen)

	// The zero route lives only in the binary trie root.
	if masklen == 0 {
		t.logPrint("add /0 success")
		return nil
	}

	tmp := maskedCopy(addr, masklen)
	if err := t.expand(tmp[:], masklen-1, node, node.data, 0); err != nil {
		if !errors.Is(err, ErrResources) {
			t.fatalf("prefix expansion failed: %v", err)
		}
		node.data = nil
		t.statDataRemove(masklen)
		if existed {
			t.debugAlg("btrie node existed, but mtrie block alloc failed")
		} else {
			t.rollbackAppended(appendPoint, appendBit)
			t.debugAlg("btrie chain appended, but mtrie block alloc failed")
		}
		return err
	}

	t.logPrint("add %d-bit prefix success", masklen)

	return nil
}

func (t *Table[V]) rollbackAppended(appendPoint *btrieNode[V], appendBit int) {
	if appendPoint == nil {
		return
	}
	chain := appendPoint.child[appendBit]
	appendPoint.child[appendBit] = nil
	t.btrieDelAppended(chain)
}

// Update overwrites the payload of an existing prefix and re-derives its
// multi-way trie footprint. The prefix must have been added before.
func (t *Table[V]) Update(addr []byte, masklen int, value V) error {
	if err := t.checkArg(addr, masklen); err != nil {
		return err
	}

	node := t.btrieFindNode(addr, masklen)
	if node == nil || node.data == nil {
		t.debugNorm("no stored payload to update, use Add first")
		return ErrNotFound
	}

	if *node.data == value {
		t.debugNorm("payload unchanged")
	} else {
		v := value
		node.data = &v
	}

	if masklen == 0 {
		t.logPrint("update /0 success")
		return nil
	}

	tmp := maskedCopy(addr, masklen)
	err := t.expand(tmp[:], masklen-1, node, node.data, 0)

	t.logPrint("update %d-bit prefix, err=%v", masklen, err)

	return err
}

// FindExact returns the payload stored exactly at (addr, masklen), touching
// only the binary trie.
func (t *Table[V]) FindExact(addr []byte, masklen int) (V, bool) {
	var zero V
	if err := t.checkArg(addr, masklen); err != nil {
		return zero, false
	}

	node := t.btrieFindNode(addr, masklen)
	if node == nil || node.data == nil {
		return zero, false
	}
	return *node.data, true
}

// UpdateDefault copies the payload of an existing prefix into the default
// slot, together with the masked prefix address. Search falls back to the
// default slot when no multi-way entry matches.
func (t *Table[V]) UpdateDefault(addr []byte, masklen int) error {
	if err := t.checkArg(addr, masklen); err != nil {
		return err
	}

	node := t.btrieFindNode(addr, masklen)
	if node == nil || node.data == nil {
		t.debugNorm("no stored payload to promote as default")
		return ErrNotFound
	}

	t.defaultData = node.data
	t.defaultMasklen = masklen
	t.defaultAddr = [LevelMax]byte{}
	if masklen > 0 {
		cnt := (masklen-1)>>3 + 1
		copy(t.defaultAddr[:cnt], addr)
		mask := byte(0xFF) ^ (1<<(7-(masklen-1)&7) - 1)
		t.defaultAddr[cnt-1] &= mask
	}

	t.logPrint("default promoted from %d-bit prefix", masklen)

	return nil
}

// DeleteDefault clears the default slot. The binary trie is untouched.
func (t *Table[V]) DeleteDefault() error {
	if t == nil || t.btrieRoot == nil {
		return ErrInvalid
	}

	if t.defaultData == nil {
		t.debugNorm("default entry not set")
		return ErrNotFound
	}

	t.defaultData = nil
	t.defaultMasklen = 0
	t.defaultAddr = [LevelMax]byte{}

	t.logPrint("default entry cleared")

	return nil
}

// Default returns the payload and prefix currently promoted as the default
// entry.
func (t *Table[V]) Default() (addr [LevelMax]byte, masklen int, value V, ok bool) {
	if t == nil || t.defaultData == nil {
		return
	}
	return t.defaultAddr, t.defaultMasklen, *t.defaultData, true
}
