package ownership

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fact is a minimal Payload used only by this package's tests: an id label
// plus a reference count and one scratch link slot.
type fact struct {
	id    string
	count int32
	link  interface{}
}

func newFact(id string) *fact { return &fact{id: id, count: 1} }

func (f *fact) Use(delta int32)       { f.count += delta }
func (f *fact) Link() interface{}     { return f.link }
func (f *fact) SetLink(v interface{}) { f.link = v }
func (f *fact) String() string        { return fmt.Sprintf("%s(%d)", f.id, f.count) }

// firstWins returns a get combinator that recycles the old payload in
// place, canceling out the trie's count-1 top-up so the old payload's
// refcount is left unchanged.
func firstWins() func(old *fact, count uint32) (*fact, error) {
	return func(old *fact, count uint32) (*fact, error) {
		if old == nil {
			f := newFact("new")
			return f, nil
		}
		// Recycle in place: the trie will add count-1 after this
		// returns, so cancel it here to leave old's count unchanged.
		old.Use(-(int32(count) - 1))
		return old, nil
	}
}

func TestInsertFreshRange(t *testing.T) {
	tr := New[*fact]()
	var gotOld *fact
	var gotCount uint32
	err := tr.Insert([]Range{{First: 100, Last: 200}}, func(old *fact, count uint32) (*fact, error) {
		gotOld, gotCount = old, count
		return newFact("P1"), nil
	})
	require.NoError(t, err)
	require.Nil(t, gotOld)
	require.EqualValues(t, 101, gotCount)

	var seen []*fact
	tr.Foreach(func(p *fact) (*fact, bool) {
		seen = append(seen, p)
		return p, false
	})
	require.Len(t, seen, 1)
	require.Equal(t, "P1", seen[0].id)
}

func TestInsertOverlapMerge(t *testing.T) {
	tr := New[*fact]()
	p1 := newFact("P1")
	require.NoError(t, tr.Insert([]Range{{First: 100, Last: 200}}, func(old *fact, count uint32) (*fact, error) {
		return p1, nil
	}))

	var calls int
	p2 := newFact("P2")
	require.NoError(t, tr.Insert([]Range{{First: 150, Last: 250}}, func(old *fact, count uint32) (*fact, error) {
		calls++
		if old == p1 {
			require.EqualValues(t, 51, count) // [150,200]
		}
		return p2, nil
	}))
	require.Equal(t, 2, calls) // once for the P1 overlap, once for the empty tail [201,250]
}

func TestInsertExactOverwriteRecycle(t *testing.T) {
	tr := New[*fact]()
	p1 := newFact("P1")
	require.NoError(t, tr.Insert([]Range{{First: 100, Last: 200}}, func(old *fact, count uint32) (*fact, error) {
		return p1, nil
	}))
	before := p1.count

	require.NoError(t, tr.Insert([]Range{{First: 100, Last: 200}}, firstWins()))
	require.Equal(t, before, p1.count, "recycling the same payload in place must not change its refcount")
}

func TestInsertFineSplitCrossesTopBoundary(t *testing.T) {
	tr := New[*fact]()
	var nullCalls int
	var nullCount uint32
	err := tr.Insert([]Range{{First: 65000, Last: 66000}}, func(old *fact, count uint32) (*fact, error) {
		nullCalls++
		nullCount = count
		return newFact("P"), nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, nullCalls)
	require.EqualValues(t, 1001, nullCount)
}

func TestInsertRejectsOutOfRangeKey(t *testing.T) {
	tr := New[*fact]()
	err := tr.Insert([]Range{{First: 0, Last: maxKey + 1}}, func(old *fact, count uint32) (*fact, error) {
		t.Fatal("get must not be called when the range is rejected")
		return nil, nil
	})
	require.ErrorIs(t, err, ErrKeyOutOfRange)
}

func TestInsertSkipsDegenerateRange(t *testing.T) {
	tr := New[*fact]()
	var called bool
	require.NoError(t, tr.Insert([]Range{{First: 10, Last: 5}}, func(old *fact, count uint32) (*fact, error) {
		called = true
		return nil, nil
	}))
	require.False(t, called)
}

func TestFlattenProducesDenseAndSparse(t *testing.T) {
	tr := New[*fact]()
	p1 := newFact("P1")
	require.NoError(t, tr.Insert([]Range{{First: 10, Last: 19}}, func(old *fact, count uint32) (*fact, error) {
		return p1, nil
	}))

	flat, err := tr.Flatten(15, 25)
	require.NoError(t, err)
	require.Len(t, flat.Dense, 10)
	for k := Key(10); k < 15; k++ {
		require.Equal(t, p1, flat.Sparse[k])
	}
	for k := Key(15); k < 20; k++ {
		require.Equal(t, p1, flat.Dense[k-15])
	}
	for k := Key(20); k < 25; k++ {
		require.Nil(t, flat.Dense[k-15])
	}
}

func TestFlattenRejectsBoundsBelowHighWaterMark(t *testing.T) {
	tr := New[*fact]()
	require.NoError(t, tr.Insert([]Range{{First: 100, Last: 200}}, func(old *fact, count uint32) (*fact, error) {
		return newFact("P"), nil
	}))
	_, err := tr.Flatten(0, 150)
	require.ErrorIs(t, err, ErrInvalidFlattenBounds)
}

func TestFlattenOnEmptyTrieSucceeds(t *testing.T) {
	tr := New[*fact]()
	flat, err := tr.Flatten(0, 100)
	require.NoError(t, err)
	require.Empty(t, flat.Dense)
	require.Empty(t, flat.Sparse)
}

func TestForeachReplacesInPlace(t *testing.T) {
	tr := New[*fact]()
	require.NoError(t, tr.Insert([]Range{{First: 1, Last: 3}}, func(old *fact, count uint32) (*fact, error) {
		return newFact("orig"), nil
	}))
	tr.Foreach(func(p *fact) (*fact, bool) {
		return newFact("replaced"), true
	})
	var ids []string
	tr.Foreach(func(p *fact) (*fact, bool) {
		ids = append(ids, p.id)
		return p, false
	})
	for _, id := range ids {
		require.Equal(t, "replaced", id)
	}
}

// guardedTrie pairs a TrieArray with a Guard, the pattern a caller uses to
// serialize concurrent access since TrieArray itself does no locking.
type guardedTrie struct {
	Guard
	tr *TrieArray[*fact]
}

func (g *guardedTrie) Insert(ranges []Range, get func(old *fact, count uint32) (*fact, error)) error {
	g.Lock()
	defer g.Unlock()
	return g.tr.Insert(ranges, get)
}

func TestGuardSerializesConcurrentInserts(t *testing.T) {
	g := &guardedTrie{tr: New[*fact]()}

	const perRange = 10
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			lo := Key(i * perRange)
			require.NoError(t, g.Insert([]Range{{First: lo, Last: lo + perRange - 1}}, func(old *fact, count uint32) (*fact, error) {
				return newFact(fmt.Sprintf("p%d", i)), nil
			}))
		}()
	}
	wg.Wait()

	flat, err := g.tr.Flatten(0, 8*perRange)
	require.NoError(t, err)
	require.Len(t, flat.Dense, 8*perRange)
	for i := 0; i < 8; i++ {
		for k := 0; k < perRange; k++ {
			require.Equal(t, fmt.Sprintf("p%d", i), flat.Dense[i*perRange+k].id)
		}
	}
}
