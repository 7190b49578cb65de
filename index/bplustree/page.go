package bplustree

import (
	"encoding/binary"
	"fmt"

	"coredb/common"
)

const (
	pageTypeInternal uint32 = 0
	pageTypeLeaf     uint32 = 1

	// headerSize is the fixed prefix every page carries: pageType, size,
	// maxSize, parentPageID, pageID, nextPageID (leaf-only; reserved on
	// internal pages so both layouts share one header size).
	headerSize = 24
)

// leafEntry is one (key, record id) pair in a leaf page.
type leafEntry struct {
	key Key
	rid common.RID
}

// internalEntry is one (key, child page id) pair in an internal page.
// Slot 0's key is unused.
type internalEntry struct {
	key   Key
	child common.PageID
}

// node is the in-memory view of one B+-tree page: a sum type discriminated
// by isLeaf, never a disk-resident vtable.
type node struct {
	id       common.PageID
	isLeaf   bool
	size     int
	maxSize  int
	parent   common.PageID
	keyWidth int

	next     common.PageID   // leaf only
	leaves   []leafEntry     // leaf only
	internal []internalEntry // internal only
}

func maxLeafEntries(keyWidth int) int {
	return (common.PageSize - headerSize) / (keyWidth + ridSize)
}

func maxInternalEntries(keyWidth int) int {
	return (common.PageSize - headerSize) / (keyWidth + 4)
}

const ridSize = 8 // common.PageID (int32) + Slot (uint32)

// newLeaf returns a freshly initialized, empty leaf node for page id.
func newLeaf(id common.PageID, keyWidth, maxSize int) *node {
	return &node{id: id, isLeaf: true, keyWidth: keyWidth, maxSize: maxSize, parent: common.InvalidPageID, next: common.InvalidPageID}
}

// newInternal returns a freshly initialized, empty internal node for page id.
func newInternal(id common.PageID, keyWidth, maxSize int) *node {
	return &node{id: id, isLeaf: false, keyWidth: keyWidth, maxSize: maxSize, parent: common.InvalidPageID}
}

// encode serializes n into buf, a page-sized buffer.
func (n *node) encode(buf []byte) error {
	if len(buf) != common.PageSize {
		return fmt.Errorf("bplustree: page buffer must be %d bytes", common.PageSize)
	}
	for i := range buf {
		buf[i] = 0
	}

	typ := pageTypeInternal
	if n.isLeaf {
		typ = pageTypeLeaf
	}
	binary.LittleEndian.PutUint32(buf[0:], typ)
	binary.LittleEndian.PutUint32(buf[4:], uint32(n.size))
	binary.LittleEndian.PutUint32(buf[8:], uint32(n.maxSize))
	binary.LittleEndian.PutUint32(buf[12:], uint32(int32(n.parent)))
	binary.LittleEndian.PutUint32(buf[16:], uint32(int32(n.id)))
	binary.LittleEndian.PutUint32(buf[20:], uint32(int32(n.next)))

	off := headerSize
	if n.isLeaf {
		entrySize := n.keyWidth + ridSize
		for _, e := range n.leaves {
			if off+entrySize > len(buf) {
				return fmt.Errorf("bplustree: leaf page overflow encoding entries")
			}
			copy(buf[off:off+n.keyWidth], e.key.Bytes())
			binary.LittleEndian.PutUint32(buf[off+n.keyWidth:], uint32(int32(e.rid.PageID)))
			binary.LittleEndian.PutUint32(buf[off+n.keyWidth+4:], e.rid.Slot)
			off += entrySize
		}
		return nil
	}
	entrySize := n.keyWidth + 4
	for _, e := range n.internal {
		if off+entrySize > len(buf) {
			return fmt.Errorf("bplustree: internal page overflow encoding entries")
		}
		if !e.key.IsZero() {
			copy(buf[off:off+n.keyWidth], e.key.Bytes())
		}
		binary.LittleEndian.PutUint32(buf[off+n.keyWidth:], uint32(int32(e.child)))
		off += entrySize
	}
	return nil
}

// decode parses a page-sized buffer into a node, given the tree's key width
// (the codec does not self-describe key width; it is a Tree-level constant).
func decode(buf []byte, keyWidth int) (*node, error) {
	if len(buf) != common.PageSize {
		return nil, fmt.Errorf("bplustree: page buffer must be %d bytes", common.PageSize)
	}
	typ := binary.LittleEndian.Uint32(buf[0:])
	size := int(binary.LittleEndian.Uint32(buf[4:]))
	maxSize := int(binary.LittleEndian.Uint32(buf[8:]))
	parent := common.PageID(int32(binary.LittleEndian.Uint32(buf[12:])))
	id := common.PageID(int32(binary.LittleEndian.Uint32(buf[16:])))
	next := common.PageID(int32(binary.LittleEndian.Uint32(buf[20:])))

	n := &node{id: id, size: size, maxSize: maxSize, parent: parent, next: next, keyWidth: keyWidth}
	off := headerSize
	if typ == pageTypeLeaf {
		n.isLeaf = true
		n.leaves = make([]leafEntry, 0, size)
		entrySize := keyWidth + ridSize
		for i := 0; i < size; i++ {
			key := NewKey(buf[off : off+keyWidth])
			pid := common.PageID(int32(binary.LittleEndian.Uint32(buf[off+keyWidth:])))
			slot := binary.LittleEndian.Uint32(buf[off+keyWidth+4:])
			n.leaves = append(n.leaves, leafEntry{key: key, rid: common.RID{PageID: pid, Slot: slot}})
			off += entrySize
		}
		return n, nil
	}
	n.internal = make([]internalEntry, 0, size)
	entrySize := keyWidth + 4
	for i := 0; i < size; i++ {
		var key Key
		if i > 0 {
			key = NewKey(buf[off : off+keyWidth])
		}
		child := common.PageID(int32(binary.LittleEndian.Uint32(buf[off+keyWidth:])))
		n.internal = append(n.internal, internalEntry{key: key, child: child})
		off += entrySize
	}
	return n, nil
}
