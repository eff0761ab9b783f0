package storage

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"golang.org/x/crypto/blake2b"
)

// Byte-level r/w helpers adapted from iotaledger-trie.go's common/util.go,
// trimmed to the handful this package actually exercises (that file also
// carried 8/16-bit variants used by its Merkle-node codec, which has no
// counterpart here).

func writeUint32(w io.Writer, val uint32) error {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], val)
	_, err := w.Write(tmp[:])
	return err
}

func readUint32(r io.Reader) (uint32, error) {
	var tmp [4]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(tmp[:]), nil
}

func writeBytes32(w io.Writer, data []byte) error {
	if len(data) > math.MaxUint32 {
		return fmt.Errorf("storage: writeBytes32: data too long (%d bytes)", len(data))
	}
	if err := writeUint32(w, uint32(len(data))); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

func readBytes32(r io.Reader) ([]byte, error) {
	length, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	if length == 0 {
		return nil, nil
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// checksum returns the blake2b-160 digest of data, used by WriteSnapshot to
// fingerprint the records it writes.
func checksum(data []byte) (ret [20]byte) {
	h, _ := blake2b.New(20, nil)
	_, _ = h.Write(data)
	copy(ret[:], h.Sum(nil))
	return
}
