package main

import (
	"encoding/binary"
	"io"
	"math/rand"

	"github.com/factgraph/ownertrie/ownership"
)

// RangeStreamWriter and RangeStreamIterator are the binary stream
// read/write pair this tool uses to persist a generated sequence of
// ownership.Range values, adapted from iotaledger-trie.go's kvstream.go
// BinaryStreamWriter/BinaryStreamIterator -- same "fixed-width records,
// plain io.Writer/io.Reader" shape, generalized from byte-slice k/v pairs
// to the (first, last) key pairs a range insert needs.
type RangeStreamWriter struct {
	w     io.Writer
	count int
}

func NewRangeStreamWriter(w io.Writer) *RangeStreamWriter {
	return &RangeStreamWriter{w: w}
}

func (s *RangeStreamWriter) Write(r ownership.Range) error {
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[0:4], uint32(r.First))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(r.Last))
	if _, err := s.w.Write(buf[:]); err != nil {
		return err
	}
	s.count++
	return nil
}

func (s *RangeStreamWriter) Count() int { return s.count }

type RangeStreamIterator struct {
	r io.Reader
}

func NewRangeStreamIterator(r io.Reader) *RangeStreamIterator {
	return &RangeStreamIterator{r: r}
}

func (s *RangeStreamIterator) Iterate(fun func(ownership.Range) bool) error {
	var buf [8]byte
	for {
		if _, err := io.ReadFull(s.r, buf[:]); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		r := ownership.Range{
			First: ownership.Key(binary.LittleEndian.Uint32(buf[0:4])),
			Last:  ownership.Key(binary.LittleEndian.Uint32(buf[4:8])),
		}
		if !fun(r) {
			return nil
		}
	}
}

// RandRangeIterator generates a deterministic (given the same seed)
// sequence of ascending, disjoint, non-overlapping ranges -- the bulk
// insert workload TrieArray.Insert expects. Adapted from kvstream.go's
// RandStreamIterator, which generates independent random byte k/v pairs;
// this generator instead has to maintain a running cursor so successive
// ranges never overlap, since Insert's contract requires that.
type RandRangeIterator struct {
	rnd    *rand.Rand
	par    RandRangeParams
	cursor ownership.Key
	count  int
}

type RandRangeParams struct {
	Seed     int64
	NumRanges int
	MaxSpan  int // max keys per range
	MaxGap   int // max keys skipped between ranges
}

func NewRandRangeIterator(p RandRangeParams) *RandRangeIterator {
	return &RandRangeIterator{
		rnd: rand.New(rand.NewSource(p.Seed)),
		par: p,
	}
}

func (r *RandRangeIterator) Iterate(fun func(ownership.Range) bool) {
	for r.count < r.par.NumRanges {
		gap := ownership.Key(r.rnd.Intn(r.par.MaxGap + 1))
		span := ownership.Key(r.rnd.Intn(r.par.MaxSpan) + 1)
		first := r.cursor + gap
		last := first + span - 1
		r.cursor = last + 1
		if !fun(ownership.Range{First: first, Last: last}) {
			return
		}
		r.count++
	}
}
