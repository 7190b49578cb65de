// Package bplustree implements a disk-backed B+-tree index over
// fixed-width keys, pages managed by a buffer.Pool. The tree itself never
// touches a disk.Manager directly: every page it reads or writes goes
// through the shared buffer pool, exactly like the rest of the storage
// engine.
package bplustree

import "bytes"

// MaxKeyWidth is the widest fixed key this package supports. Go has no
// const-generic array length, so every Key carries a 64-byte backing array
// and a logical Size telling callers (and the comparator) how many of those
// bytes are significant.
const MaxKeyWidth = 64

// Key is a fixed-width key. Width is one of {4, 8, 16, 32, 64}; a Tree is
// constructed with one width and every key it stores uses it.
type Key struct {
	data [MaxKeyWidth]byte
	size int
}

// NewKey copies b (which must be <= MaxKeyWidth bytes) into a new Key of
// that exact width.
func NewKey(b []byte) Key {
	if len(b) > MaxKeyWidth {
		panic("bplustree: key wider than MaxKeyWidth")
	}
	var k Key
	copy(k.data[:], b)
	k.size = len(b)
	return k
}

// IntKey encodes v as a big-endian key of the given width (4 or 8 bytes),
// the common case for integer primary keys: big-endian preserves numeric
// ordering under a byte-wise comparator for non-negative values.
func IntKey(v int64, width int) Key {
	var buf [8]byte
	for i := 7; i >= 0; i-- {
		buf[i] = byte(v)
		v >>= 8
	}
	if width <= 4 {
		return NewKey(buf[4:8])
	}
	return NewKey(buf[:8])
}

// Bytes returns the key's significant bytes.
func (k Key) Bytes() []byte { return k.data[:k.size] }

// Size reports how many bytes of k are significant.
func (k Key) Size() int { return k.size }

// IsZero reports whether k has never been assigned (the unused slot-0 key
// of an internal page).
func (k Key) IsZero() bool { return k.size == 0 }

// Comparator is a three-way comparator over keys, supplied by the caller
// constructing a Tree.
type Comparator func(a, b Key) int

// ByteComparator compares keys by their significant bytes, lexicographically.
// Together with IntKey's big-endian encoding this sorts non-negative
// integer keys numerically.
func ByteComparator(a, b Key) int {
	return bytes.Compare(a.Bytes(), b.Bytes())
}
