package storage

import (
	"github.com/cockroachdb/errors"
	"github.com/iotaledger/hive.go/core/kvstore"
)

// SnapshotPrefix is the key namespace ownertriebench's snapshot subcommand
// scopes every ownership snapshot record under, so a badger or mapdb
// instance shared with other callers never collides with trie keys.
var SnapshotPrefix = []byte("ownertrie/snapshot/")

// HiveAdaptor adapts a hive.go kvstore.KVStore, whose methods return error,
// to this package's KVStore, whose methods do not -- WriteSnapshot and
// LoadSnapshot are written against a non-erroring store since a snapshot
// write/read has no recovery path short of aborting, so every hive.go error
// is turned into a panic here instead of threaded back up through Flatten's
// call chain. Optionally scopes every key under a fixed prefix (see
// SnapshotPrefix). Adapted from iotaledger-trie.go's root hiveadaptor.go,
// updated to the hive.go/core import path this module's go.mod pins.
type HiveAdaptor struct {
	kvs    kvstore.KVStore
	prefix []byte
}

// NewHiveAdaptor wraps kvs, prefixing every key it touches with prefix.
func NewHiveAdaptor(kvs kvstore.KVStore, prefix []byte) *HiveAdaptor {
	return &HiveAdaptor{kvs: kvs, prefix: prefix}
}

func mustNoErr(op string, key []byte, err error) {
	if err != nil {
		panic(errors.Wrapf(err, "storage: hive adaptor %s %x", op, key))
	}
}

func (h *HiveAdaptor) makeKey(k []byte) []byte {
	if len(h.prefix) == 0 {
		return k
	}
	return append(append([]byte{}, h.prefix...), k...)
}

func (h *HiveAdaptor) Get(key []byte) []byte {
	v, err := h.kvs.Get(h.makeKey(key))
	mustNoErr("get", key, err)
	return v
}

func (h *HiveAdaptor) Has(key []byte) bool {
	v, err := h.kvs.Has(h.makeKey(key))
	mustNoErr("has", key, err)
	return v
}

func (h *HiveAdaptor) Set(key, value []byte) {
	var err error
	if len(value) == 0 {
		err = h.kvs.Delete(h.makeKey(key))
	} else {
		err = h.kvs.Set(h.makeKey(key), value)
	}
	mustNoErr("set", key, err)
}

func (h *HiveAdaptor) Iterate(fun func(k []byte, v []byte) bool) {
	err := h.kvs.Iterate(h.prefix, func(key kvstore.Key, value kvstore.Value) bool {
		return fun(key[len(h.prefix):], value)
	})
	mustNoErr("iterate", h.prefix, err)
}
