package ownerset

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/factgraph/ownertrie/ownership"
)

// compile-time check that Set satisfies ownership.Payload.
var _ ownership.Payload = (*Set)(nil)

func TestNewDedupesAndSorts(t *testing.T) {
	s := New(3, 1, 3, 2)
	require.Equal(t, []Owner{1, 2, 3}, s.Owners())
	require.EqualValues(t, 1, s.Refs())
}

func TestMergeUnionsOwners(t *testing.T) {
	a := New(1, 2)
	b := New(2, 3)
	m := Merge(a, b)
	require.Equal(t, []Owner{1, 2, 3}, m.Owners())
	require.EqualValues(t, 1, m.Refs())
}

func TestMergeTreatsNilAsEmpty(t *testing.T) {
	b := New(5)
	require.Equal(t, []Owner{5}, Merge(nil, b).Owners())
	require.Equal(t, []Owner{5}, Merge(b, nil).Owners())
}

func TestRecycleOnlyWhenRefsZero(t *testing.T) {
	s := New(1)
	require.False(t, Recycle(s))
	s.Use(-1)
	require.True(t, Recycle(s))
	require.Nil(t, s.Owners())
}

func TestCombinatorReleasesOldAndTopsUpNew(t *testing.T) {
	old := New(1)
	incoming := New(2)

	get := Combinator(incoming)
	merged, err := get(old, 3)
	require.NoError(t, err)
	require.Equal(t, []Owner{1, 2}, merged.Owners())

	// The combinator released old's 3 references; TrieArray would then
	// top merged up by count-1 = 2, for a net total of 3 (1 from New
	// plus the top-up), mirroring ownership.TrieArray.Insert's contract.
	require.EqualValues(t, -2, old.Refs())
	merged.Use(2)
	require.EqualValues(t, 3, merged.Refs())
}
