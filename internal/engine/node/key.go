package node

import (
	"strconv"
	"sync/atomic"
)

// Key identifies a node across all of its versions.
// Keys are opaque; callers must not derive meaning from their contents.
type Key string

// RootKey is the fixed key of an editor's root node.
// The allocator never produces it.
const RootKey Key = "root"

// String returns the key as a string.
func (k Key) String() string {
	return string(k)
}

// KeyAllocator issues keys for one editor instance.
// It is a monotonic counter: a key is never handed out twice, even after
// the node that held it is detached and collected.
type KeyAllocator struct {
	next atomic.Uint64
}

// NewKeyAllocator creates an allocator starting at 1.
func NewKeyAllocator() *KeyAllocator {
	return &KeyAllocator{}
}

// Allocate returns a previously unused key.
func (a *KeyAllocator) Allocate() Key {
	return Key(strconv.FormatUint(a.next.Add(1), 10))
}

// Issued returns how many keys have been allocated.
func (a *KeyAllocator) Issued() uint64 {
	return a.next.Load()
}
