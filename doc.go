// Package lpm implements a longest prefix match table for variable-length
// bit-string keys of up to 128 bits, as used for IPv4/IPv6 route lookup.
//
// The table keeps two structures in sync: a binary trie (the authoritative
// prefix store) and a derived 256-way trie with stride 8 (the lookup
// accelerator). Writers mutate the binary trie and then re-derive the
// affected multi-way ranges via controlled prefix expansion; Search touches
// only the multi-way trie.
//
// Concurrency: single writer, many readers, no internal locking. All
// mutating operations must be serialized by the caller. Search and FindExact
// may run concurrently with other searches. New multi-way blocks become
// reachable only after their contents are populated (bottom-up linking), so
// a reader racing with Add or Update observes either the old or the new
// state. Delete breaks this guarantee by unlinking blocks; running Delete
// concurrently with readers requires an external grace period or a full
// reader-writer lock.
//
// The table never retains the caller's address slices and does not manage
// payload lifetime.
package lpm
