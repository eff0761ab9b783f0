package ownership

import (
	"github.com/cockroachdb/errors"
	"golang.org/x/xerrors"
)

// Sentinel errors for caller-input contract violations. These are returned,
// not panicked: a malformed range or flatten bound is the caller's mistake
// to recover from, not a broken trie invariant.
var (
	// ErrKeyOutOfRange is returned when an inserted range's Last exceeds
	// the 32-bit key space. The source aborts the process for this
	// (CHECK(maxkey_ <= MAX)); a Go library returns an error instead and
	// leaves the trie exactly as it was before the call.
	ErrKeyOutOfRange = xerrors.New("ownership: key exceeds 32-bit range")

	// ErrInvalidFlattenBounds is returned when Flatten's end does not
	// strictly exceed the trie's current high-water mark.
	ErrInvalidFlattenBounds = xerrors.New("ownership: flatten: end must exceed the trie's high-water mark")
)

// assertf panics with an AssertionFailedf error. Reserved for internal
// invariant violations -- tag-discipline bugs such as a non-leaf node
// visited as a leaf or split -- that indicate a bug in this package rather
// than bad caller input.
func assertf(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(errors.AssertionFailedf(format, args...))
	}
}
