// Package mccerr holds the sentinel errors and the programmer-error fault
// type shared across buddy, nodepool and radix.
//
// The sentinels below name the recoverable conditions (out-of-memory in
// non-abort mode, capacity exceeded, lookup miss); no function in this
// module returns them. Those conditions surface as a nil pointer or a
// false ok result instead. Some programmer errors (use of an iterator
// after mutation, a request above an allocator's maximum block size)
// panic with a *Fault. A size-mismatched free or a double free is not
// detected.
package mccerr

import "errors"

var (
	// ErrOOM names the condition where the OS refuses to grow the buddy
	// allocator's backing and the allocator was configured not to abort
	// (buddy.Allocator.Alloc then returns nil).
	ErrOOM = errors.New("mcc: out of memory")

	// ErrCapacity names the condition where the tree's soft capacity cap
	// has already been reached (radix.Tree.Insert then returns false).
	ErrCapacity = errors.New("mcc: capacity exceeded")

	// ErrInvalidSize names an allocation request outside the buddy
	// allocator's supported block size range.
	ErrInvalidSize = errors.New("mcc: invalid block size")

	// ErrNotFound names a lookup that finds no matching entry (lookups
	// then return false).
	ErrNotFound = errors.New("mcc: not found")

	// ErrIteratorInvalidated names the use of an Iterator after the tree
	// it walks has been mutated or cleared (Iterator.Next then panics
	// with a *Fault).
	ErrIteratorInvalidated = errors.New("mcc: iterator invalidated by mutation")
)

// Fault reports a programmer error: a contract violation the caller is
// responsible for (a request above an allocator's maximum block size, use
// of a stale iterator). Faults are not meant to be recovered from in
// normal control flow; the code that detects one panics with it.
type Fault struct {
	Op  string
	Msg string
}

func (f *Fault) Error() string {
	return "mcc: " + f.Op + ": " + f.Msg
}

// Raise panics with a Fault built from op and msg. Centralizing this
// keeps the panic value type consistent across packages so a recovering
// caller (e.g. a debug memory tracker) can type-assert on *Fault.
func Raise(op, msg string) {
	panic(&Fault{Op: op, Msg: msg})
}
