package ownership

// defaultSlabLen is the number of innerForest nodes allocated per arena
// slab when a pool's slabLen is left at its zero value. A slab is never
// resized after allocation, so a *innerForest handed out by alloc stays
// valid for the trie's lifetime -- forests are never freed individually,
// only reclaimed with the whole arena when the trie is dropped. This
// mirrors the source's arena allocator (glean/rts/ownership uses a bump
// allocator for exactly the same reason: individual forest frees never
// happen, only bulk teardown).
const defaultSlabLen = 4096

// pool is the arena that backs every forest below the root: a sequence of
// fixed-size innerForest slabs, bump-allocated within the current slab and
// never freed individually. slabLen is fixed for a pool's lifetime once
// the first slab is allocated; see NewWithArenaSlabSize.
type pool[T Payload] struct {
	slabs   [][]innerForest[T]
	cursor  int
	slabLen int
}

// alloc returns a fresh innerForest with every slot initialized to a copy
// of init -- the single pre-split node that all 16 children inherit before
// the split's traversal continues into them.
func (p *pool[T]) alloc(init node[T]) *innerForest[T] {
	if p.slabLen == 0 {
		p.slabLen = defaultSlabLen
	}
	if len(p.slabs) == 0 || p.cursor == p.slabLen {
		p.slabs = append(p.slabs, make([]innerForest[T], p.slabLen))
		p.cursor = 0
	}
	slab := p.slabs[len(p.slabs)-1]
	f := &slab[p.cursor]
	p.cursor++
	for i := range f.slots {
		f.slots[i] = init
	}
	return f
}

// forests reports how many innerForest blocks the arena has handed out.
func (p *pool[T]) forests() int {
	if len(p.slabs) == 0 {
		return 0
	}
	return (len(p.slabs)-1)*p.slabLen + p.cursor
}
