// Package storage provides the snapshot codec and key/value plumbing used
// to persist a flattened ownership.TrieArray to disk. The interfaces below
// are adapted from iotaledger-trie.go's common/kv.go; this package narrows
// them to what a write-once snapshot needs and wires them to
// hive.go's kvstore backends instead of a Merkle-trie commitment layer.
package storage

// KVReader reads from a key/value store. Get returns nil for an absent key.
type KVReader interface {
	Get(key []byte) []byte
	Has(key []byte) bool
}

// KVWriter writes to a key/value store. Set with a nil value deletes key.
type KVWriter interface {
	Set(key, value []byte)
}

// KVIterator iterates a key/value store. Iteration order is unspecified.
type KVIterator interface {
	Iterate(func(k, v []byte) bool)
}

// KVStore is a full read/write/iterate key/value store.
type KVStore interface {
	KVReader
	KVWriter
	KVIterator
}

// CopyAll drains src into dst, stopping early if src's Iterate does.
func CopyAll(dst KVWriter, src KVIterator) {
	src.Iterate(func(k, v []byte) bool {
		dst.Set(k, v)
		return true
	})
}
