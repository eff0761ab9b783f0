package storage

import (
	"encoding/binary"
	"io"

	"github.com/cockroachdb/errors"

	"github.com/factgraph/ownertrie/ownership"
)

// recordDense and recordSparse are the two record kinds a snapshot stream holds:
// a dense run written in key order starting at the snapshot's start bound,
// and an arbitrary sparse entry for everything below it.
const (
	recordDense byte = iota
	recordSparse
)

// WriteSnapshot serializes f into store as one key/value pair per non-empty
// entry: a 4-byte big-endian key maps to a one-byte record kind
// (recordDense or recordSparse) followed by encode(payload). The kind tag
// lets LoadSnapshot tell a caller which half of the Flattened result a
// given entry came from without re-deriving it from position alone. The
// checksum of the records, in the order they were written, is stored under
// the reserved key "\x00cks"; LoadSnapshot skips that record and does not
// verify it.
func WriteSnapshot[T ownership.Payload](store KVStore, start ownership.Key, f ownership.Flattened[T], encode func(T) []byte) error {
	var digestInput []byte

	put := func(key ownership.Key, kind byte, v T) error {
		enc := encode(v)
		k := keyBytes(key)
		rec := make([]byte, 1+len(enc))
		rec[0] = kind
		copy(rec[1:], enc)
		store.Set(k, rec)
		digestInput = append(digestInput, k...)
		digestInput = append(digestInput, rec...)
		return nil
	}

	for k, v := range f.Sparse {
		if err := put(k, recordSparse, v); err != nil {
			return errors.Wrap(err, "storage: write sparse snapshot entry")
		}
	}
	for i, v := range f.Dense {
		if isZero(v) {
			continue
		}
		if err := put(start+ownership.Key(i), recordDense, v); err != nil {
			return errors.Wrap(err, "storage: write dense snapshot entry")
		}
	}

	sum := checksum(digestInput)
	store.Set(checksumKey(), sum[:])
	return nil
}

// SnapshotEntry pairs a decoded payload with the record kind WriteSnapshot
// tagged it with, so a caller that cares about dense/sparse provenance
// (e.g. to rebuild a Flattened) doesn't have to re-derive it.
type SnapshotEntry[T ownership.Payload] struct {
	Value T
	Dense bool
}

// LoadSnapshot reads back every record WriteSnapshot wrote, in ascending
// key order is not guaranteed since KVIterator order is unspecified; the
// caller gets a plain key -> entry map.
func LoadSnapshot[T ownership.Payload](store KVIterator, decode func([]byte) (T, error)) (map[ownership.Key]SnapshotEntry[T], error) {
	out := make(map[ownership.Key]SnapshotEntry[T])
	var iterErr error
	reserved := checksumKey()
	store.Iterate(func(k, v []byte) bool {
		if bytesEqual(k, reserved) {
			return true
		}
		if len(k) != 4 {
			iterErr = errors.Newf("storage: malformed snapshot key %x", k)
			return false
		}
		if len(v) < 1 {
			iterErr = errors.Newf("storage: malformed snapshot record for key %x", k)
			return false
		}
		key := ownership.Key(binary.BigEndian.Uint32(k))
		val, err := decode(v[1:])
		if err != nil {
			iterErr = errors.Wrapf(err, "storage: decode snapshot entry %x", k)
			return false
		}
		out[key] = SnapshotEntry[T]{Value: val, Dense: v[0] == recordDense}
		return true
	})
	return out, iterErr
}

func keyBytes(k ownership.Key) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(k))
	return b[:]
}

func checksumKey() []byte { return []byte{0x00, 'c', 'k', 's'} }

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func isZero[T ownership.Payload](v T) bool {
	var zero T
	return any(v) == any(zero)
}

// DumpFile writes every (key, payload) pair in entries to w as a flat
// binary stream: a 4-byte key followed by a length-prefixed encoded
// payload, repeated, terminated by EOF. This is the portable single-file
// counterpart to WriteSnapshot's KVStore form, adapted from
// iotaledger-trie.go's common/util.go DumpToFile/UnDumpFromFile pair.
func DumpFile[T ownership.Payload](w io.Writer, entries map[ownership.Key]T, encode func(T) []byte) (int, error) {
	n := 0
	for k, v := range entries {
		if err := writeUint32(w, uint32(k)); err != nil {
			return n, errors.Wrap(err, "storage: dump file: write key")
		}
		enc := encode(v)
		if err := writeBytes32(w, enc); err != nil {
			return n, errors.Wrap(err, "storage: dump file: write payload")
		}
		n += 4 + 4 + len(enc)
	}
	return n, nil
}

// LoadFile reads back a stream written by DumpFile.
func LoadFile[T ownership.Payload](r io.Reader, decode func([]byte) (T, error)) (map[ownership.Key]T, error) {
	out := make(map[ownership.Key]T)
	for {
		key, err := readUint32(r)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, "storage: load file: read key")
		}
		enc, err := readBytes32(r)
		if err != nil {
			return nil, errors.Wrap(err, "storage: load file: read payload")
		}
		val, err := decode(enc)
		if err != nil {
			return nil, errors.Wrapf(err, "storage: load file: decode payload for key %d", key)
		}
		out[ownership.Key(key)] = val
	}
}
