package ownership

import "github.com/sasha-s/go-deadlock"

// Guard is an optional helper a caller can embed to serialize concurrent
// access to a TrieArray. TrieArray itself performs no internal locking --
// Insert, Foreach and Flatten all mutate node state in place, so concurrent
// calls on the same trie race. Guard adds deadlock-cycle detection on top
// of a plain mutex so a caller who serializes several TrieArrays (or a
// TrieArray alongside other locks) gets a diagnosable panic instead of a
// silent hang if the lock order is ever inconsistent.
type Guard struct {
	mu deadlock.Mutex
}

func (g *Guard) Lock()   { g.mu.Lock() }
func (g *Guard) Unlock() { g.mu.Unlock() }
