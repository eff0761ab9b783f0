package storage

import (
	"github.com/iotaledger/hive.go/core/kvstore"
	"github.com/iotaledger/hive.go/core/kvstore/badger"
	"github.com/iotaledger/hive.go/core/kvstore/mapdb"
)

// OpenMemory returns an in-memory hive.go KVStore, used by the cmd tool when
// the configured backend is mem.
func OpenMemory() kvstore.KVStore {
	return mapdb.NewMapDB()
}

// OpenBadger opens (creating if necessary) a badger-backed hive.go KVStore
// rooted at dir, following the same badger.CreateDB/badger.New pairing
// examples/trie_bench uses.
func OpenBadger(dir string) (kvstore.KVStore, func() error, error) {
	db, err := badger.CreateDB(dir)
	if err != nil {
		return nil, nil, err
	}
	return badger.New(db), db.Close, nil
}
