package ownership

import (
	"github.com/cockroachdb/errors"
)

// TrieArray is a range-keyed, reference-counted trie over the 32-bit key
// space. The zero value is not usable; construct one with New.
//
// TrieArray is not safe for concurrent use; see Guard.
type TrieArray[T Payload] struct {
	top    []node[T]
	arena  pool[T]
	minKey Key
	maxKey Key
	// empty reports whether any key has ever been inserted; minKey/maxKey
	// only become meaningful after the first Insert.
	empty bool
}

// New returns an empty TrieArray with the default arena slab size.
func New[T Payload]() *TrieArray[T] {
	return NewWithArenaSlabSize[T](0)
}

// NewWithArenaSlabSize returns an empty TrieArray whose inner-forest arena
// allocates slabLen forests per slab (see pool.alloc); slabLen <= 0 uses
// the package default. A caller that expects a large, bursty split count
// (config.Config's ArenaSlabHint) can use this to cut down on the number
// of slab allocations versus repeatedly growing from the default.
func NewWithArenaSlabSize[T Payload](slabLen int) *TrieArray[T] {
	if slabLen < 0 {
		slabLen = 0
	}
	return &TrieArray[T]{
		top:   make([]node[T], forestTopSize),
		arena: pool[T]{slabLen: slabLen},
		empty: true,
	}
}

// visitFunc is called once per leaf node overlapping a traversal's range.
// key is the first key the node covers, size is how many of the node's
// keys fall within the traversal's range, and block is the total number of
// keys the node covers (size <= block).
type visitFunc[T Payload] func(n *node[T], key, size, block uint64)

// traverseRange walks every leaf node overlapping [start, start+size).
// Mirrors the source's top-level traverse() entry point: it may have to
// step across more than one root-forest slot, since a range can span a
// root block boundary.
func (t *TrieArray[T]) traverseRange(start, size uint64, f visitFunc[T]) {
	if size == 0 {
		return
	}
	top := blockSize(0)
	firstSlot, firstOffset := location(start)
	lastSlot, lastOffset := location(start + size - 1)

	key := start
	for firstSlot < lastSlot {
		chunk := top - firstOffset
		traverseLevel(0, &t.top[firstSlot], key, firstOffset, chunk, f)
		key += chunk
		firstSlot++
		firstOffset = 0
	}
	traverseLevel(0, &t.top[firstSlot], key, firstOffset, lastOffset-firstOffset+1, f)
}

// traverseLevel visits the leaf(ves) covering [start, start+size) within a
// single node at the given depth, descending into freshly split forests as
// it goes. f may turn n into a forest mid-call (the split case); the
// recursion re-reads n.kind after calling f so a split created on this very
// visit is still descended into within the same call, matching the
// source's behavior of completing a single traverse() in one pass.
func traverseLevel[T Payload](level int, n *node[T], key, start, size uint64, f visitFunc[T]) {
	if n.kind != kindForest {
		f(n, key, size, blockSize(level))
	}
	if n.kind != kindForest || level >= maxSplitDepth {
		return
	}
	block := blockSize(level + 1)
	slotIdx := start / block
	offset := start % block
	slots := &n.forest.slots
	for size != 0 {
		chunk := size
		if rem := block - offset; rem < chunk {
			chunk = rem
		}
		traverseLevel(level+1, &slots[slotIdx], key, offset, chunk, f)
		key += chunk
		offset = 0
		size -= chunk
		slotIdx++
	}
}

// traverseAll visits every leaf in the trie's current [minKey, maxKey] span.
func (t *TrieArray[T]) traverseAll(f visitFunc[T]) {
	if t.empty {
		return
	}
	t.traverseRange(t.minKey, t.maxKey-t.minKey+1, f)
}

// Insert bulk-inserts a sequence of disjoint, ascending ranges, each
// conceptually carrying a new payload produced by get. get is called
// exactly once per distinct pre-existing payload the insert touches
// (including once with the zero Payload if any touched node was empty),
// with count set to the total number of node-slots being reassigned from
// that old payload to the new one. get is responsible for adjusting the old
// payload's reference count downward and the new payload's count upward;
// TrieArray tops up the new payload by count-1 after get returns, since
// get's own return is expected to already account for one of the count
// transferred references.
//
// A Range with First > Last is a degenerate no-op and is silently skipped.
// If any range's Last exceeds the 32-bit key space, Insert returns
// ErrKeyOutOfRange without mutating the trie. If get returns an error,
// Insert stops reaping further chains and returns the wrapped error. Nodes
// already split or threaded by this call are left in that intermediate
// state -- the trie must be treated as poisoned and discarded after a
// combinator error, the same contract the source places on a failed
// insert.
func (t *TrieArray[T]) Insert(ranges []Range, get func(old T, count uint32) (T, error)) error {
	if len(ranges) == 0 {
		return nil
	}
	hi := ranges[len(ranges)-1].Last
	if hi > maxKey {
		return errors.Wrapf(ErrKeyOutOfRange, "insert: last key %d exceeds %d", hi, maxKey)
	}
	var lo, last Key // key span of the non-degenerate ranges
	touched := false

	var values []*node[T] // first-sighted node of each payload; the chain head is the payload's Link()
	var nullHead *node[T] // head of the chain of nodes that were empty

	for _, r := range ranges {
		if r.First > r.Last {
			continue
		}
		if !touched {
			lo, touched = r.First, true
		}
		last = r.Last
		t.traverseRange(r.First, r.Last-r.First+1, func(n *node[T], key, size, block uint64) {
			if size == block {
				switch n.kind {
				case kindPayload:
					p := n.value
					prev, _ := p.Link().(*node[T])
					p.SetLink(n)
					n.kind = kindLink
					n.link = prev
					if prev == nil {
						values = append(values, n)
					}
				case kindEmpty:
					n.kind = kindLink
					n.link = nullHead
					nullHead = n
				default:
					assertf(false, "ownership: traverse visited a non-leaf node at an exact block match")
				}
				return
			}
			// Partial overlap: split this node into forestInnerSize
			// children and let traverseLevel continue into them.
			var pre node[T]
			switch n.kind {
			case kindPayload:
				n.value.Use(forestInnerSize - 1)
				pre = *n
			case kindEmpty:
				pre = node[T]{kind: kindEmpty}
			default:
				assertf(false, "ownership: split of a non-leaf node")
			}
			n.forest = t.arena.alloc(pre)
			n.kind = kindForest
			var zero T
			n.value = zero
		})
	}

	reap := func(head *node[T], old T, hasOld bool) error {
		var count uint32
		for n := head; n != nil; n = n.link {
			count++
		}
		upd, err := get(old, count)
		if err != nil {
			return err
		}
		for n := head; n != nil; {
			next := n.link
			n.kind = kindPayload
			n.value = upd
			n.link = nil
			n = next
		}
		upd.Use(int32(count) - 1)
		if hasOld {
			old.SetLink(nil)
		}
		return nil
	}

	for _, first := range values {
		old := first.value // pre-reassignment value, read before reap mutates the chain
		head, _ := old.Link().(*node[T])
		if err := reap(head, old, true); err != nil {
			return errors.Wrap(err, "ownership: insert combinator failed")
		}
	}
	if nullHead != nil {
		var zero T
		if err := reap(nullHead, zero, false); err != nil {
			return errors.Wrap(err, "ownership: insert combinator failed")
		}
	}

	if !touched {
		return nil
	}
	if t.empty {
		t.minKey, t.maxKey = lo, last
		t.empty = false
	} else {
		if lo < t.minKey {
			t.minKey = lo
		}
		if last > t.maxKey {
			t.maxKey = last
		}
	}
	return nil
}

// Foreach visits every payload leaf in the trie. If f returns replace ==
// true, the leaf's payload is replaced with the returned value; TrieArray
// does not adjust reference counts on the caller's behalf, since f (not the
// trie) knows whether the replacement is a genuinely new payload or an
// in-place mutation of the existing one.
func (t *TrieArray[T]) Foreach(f func(T) (T, bool)) {
	t.traverseAll(func(n *node[T], _, _, _ uint64) {
		if n.kind != kindPayload {
			return
		}
		if updated, replace := f(n.value); replace {
			n.value = updated
		}
	})
}

// Flatten destructively materializes the trie into a dense slice over
// [start, end) and a sparse map over everything below start. end must
// strictly exceed the trie's current maxKey. Every touched payload's
// reference count is adjusted by (occurrences-1) to reflect that it is now
// held once per slice/map entry instead of once per trie node.
func (t *TrieArray[T]) Flatten(start, end Key) (Flattened[T], error) {
	if end <= t.maxKey {
		return Flattened[T]{}, errors.Wrapf(ErrInvalidFlattenBounds,
			"flatten(%d,%d): trie high-water mark is %d", start, end, t.maxKey)
	}
	if t.empty {
		return Flattened[T]{}, nil
	}
	out := Flattened[T]{
		Dense:  make([]T, end-start),
		Sparse: make(map[Key]T),
	}
	t.traverseAll(func(n *node[T], key, size, _ uint64) {
		val, ok := n.payload()
		if !ok {
			return
		}
		for k := key; k < key+size; k++ {
			if k < start {
				out.Sparse[k] = val
			} else {
				out.Dense[k-start] = val
			}
		}
		val.Use(int32(size) - 1)
	})
	return out, nil
}
