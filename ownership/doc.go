// Package ownership implements TrieArray, a range-keyed, reference-counted
// trie over the 32-bit key space. It is the Go rendering of Glean's
// glean/rts/ownership/triearray.h: a fixed-depth, arena-allocated trie built
// to hold one "owning set" payload per contiguous run of fact ids, with bulk
// range insertion that calls a caller-supplied merge combinator exactly once
// per distinct payload touched by the insert, regardless of how many leaves
// carried it.
//
// TrieArray itself performs no synchronization; see Guard for an optional
// helper callers may use to serialize concurrent access.
package ownership
