package lpm

import (
	"github.com/c2h5oh/datasize"
	"go.uber.org/zap"
)

type options struct {
	log      *zap.SugaredLogger
	memLimit datasize.ByteSize
	memCheck func(size uintptr) bool
}

// Option configures a Table.
type Option func(*options)

// WithLog sets the logger used for debug categories and operation logging.
//
// Category messages are emitted only for categories enabled via
// DebugSupport; fatal inconsistencies and recursion-depth warnings are
// always logged.
func WithLog(log *zap.SugaredLogger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithMemLimit caps the total memory the table may spend on trie nodes and
// blocks. Allocations beyond the budget fail with ErrResources and the
// mutating operation is rolled back.
func WithMemLimit(limit datasize.ByteSize) Option {
	return func(o *options) {
		o.memLimit = limit
	}
}

// WithMemCheck installs an allocation gate: fn is consulted before every
// node or block allocation and returning false fails it. Intended for test
// harnesses simulating allocation failure; overrides WithMemLimit.
func WithMemCheck(fn func(size uintptr) bool) Option {
	return func(o *options) {
		o.memCheck = fn
	}
}
