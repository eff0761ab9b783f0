// Package ownerset implements Set, the reference-counted "owning set"
// payload that github.com/factgraph/ownertrie/ownership.TrieArray stores at
// each leaf: the set of owner ids responsible for keeping a run of fact ids
// alive. Merging two owning sets during a TrieArray.Insert is a plain set
// union; recycling happens once a set's reference count drops to zero.
package ownerset

import (
	"sort"

	"github.com/golang/glog"
	"go.uber.org/atomic"
)

// Owner identifies one contributor to a Set, e.g. a derivation unit or a
// client-visible ownership tag. Owner is deliberately a narrow type rather
// than a raw uint64 so a caller can't accidentally pass a fact id instead.
type Owner uint32

// Set is an immutable-once-published, reference-counted collection of
// Owners. It implements ownership.Payload.
type Set struct {
	owners []Owner
	refs   atomic.Int64
	link   interface{}
}

// New returns a Set with an initial reference count of 1, holding owners
// sorted and de-duplicated.
func New(owners ...Owner) *Set {
	s := &Set{owners: dedupe(owners)}
	s.refs.Store(1)
	return s
}

// Owners returns the set's members in ascending order. The caller must not
// mutate the returned slice.
func (s *Set) Owners() []Owner { return s.owners }

// Use adjusts s's reference count by delta, per ownership.Payload. When the
// count reaches zero, s is eligible for Recycle; Use itself never recycles,
// since the trie may still be mid-Insert and holding other references to s
// via its link chain.
func (s *Set) Use(delta int32) {
	n := s.refs.Add(int64(delta))
	if glog.V(1) {
		glog.Infof("ownerset: %v refcount -> %d (delta %d)", s.owners, n, delta)
	}
	if n < 0 {
		glog.Warningf("ownerset: refcount went negative for %v", s.owners)
	}
}

// Refs reports the set's current reference count.
func (s *Set) Refs() int64 { return s.refs.Load() }

// Link and SetLink implement ownership.Payload's scratch slot.
func (s *Set) Link() interface{}     { return s.link }
func (s *Set) SetLink(v interface{}) { s.link = v }

// Recycle reports whether s's reference count has dropped to zero and, if
// so, clears its owner list so a caller can return the struct to a pool.
// Recycle is not safe to call while a reference might still be in flight;
// callers should only invoke it after Use(-1) observably reaches zero.
func Recycle(s *Set) bool {
	if s.refs.Load() > 0 {
		return false
	}
	s.owners = nil
	return true
}

// Merge returns the union of a and b as a freshly allocated Set with
// reference count 1. A nil operand is treated as the empty set, matching
// TrieArray.Insert's convention of passing a nil payload for untouched
// (empty) nodes.
func Merge(a, b *Set) *Set {
	var owners []Owner
	if a != nil {
		owners = append(owners, a.owners...)
	}
	if b != nil {
		owners = append(owners, b.owners...)
	}
	return New(owners...)
}

// Combinator returns a TrieArray.Insert get function that unions incoming
// into whatever Set (possibly nil) already occupies the node-slots being
// rewritten. The returned Set starts at refcount 1 (from New); the caller's
// TrieArray tops it up by count-1, so by the time Insert returns, the
// merged set is referenced exactly count times, matching how many node
// slots now point at it. The old set's count-many references are released
// here; a set that reaches zero is recycled immediately since ownerset has
// no external cache keeping it alive.
func Combinator(incoming *Set) func(old *Set, count uint32) (*Set, error) {
	return func(old *Set, count uint32) (*Set, error) {
		merged := Merge(old, incoming)
		if old != nil {
			old.Use(-int32(count))
			Recycle(old)
		}
		return merged, nil
	}
}

func dedupe(owners []Owner) []Owner {
	if len(owners) == 0 {
		return nil
	}
	cp := append([]Owner(nil), owners...)
	sort.Slice(cp, func(i, j int) bool { return cp[i] < cp[j] })
	out := cp[:1]
	for _, o := range cp[1:] {
		if o != out[len(out)-1] {
			out = append(out, o)
		}
	}
	return out
}
