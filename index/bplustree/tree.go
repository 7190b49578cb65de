package bplustree

import (
	"fmt"
	"sync"

	"coredb/buffer"
	"coredb/common"
)

// Tree is a disk-backed B+-tree index: every page is a frame borrowed from
// a shared buffer.Pool, named and persisted via a shared HeaderDirectory.
// One mutex serializes every mutating and read operation; the tree does
// not attempt finer-grained latch crabbing.
type Tree struct {
	mu sync.Mutex

	name   string
	pool   *buffer.Pool
	header *HeaderDirectory
	cmp    Comparator

	keyWidth        int
	leafMaxSize     int
	internalMaxSize int

	root common.PageID
}

// New returns a Tree named name, using cmp to order keyWidth-byte keys, with
// pages drawn from pool and its root id persisted through header. leafMax
// and internalMax configure the max_size of leaf and internal pages
// respectively; pass 0 for either to use the page-size-derived default.
// An existing index_name record in header is honored, so reopening a
// previously-built tree resumes at its prior root.
func New(name string, keyWidth int, cmp Comparator, pool *buffer.Pool, header *HeaderDirectory, leafMax, internalMax int) (*Tree, error) {
	if keyWidth <= 0 || keyWidth > MaxKeyWidth {
		return nil, fmt.Errorf("bplustree: key width %d out of range", keyWidth)
	}
	if leafMax <= 0 {
		leafMax = maxLeafEntries(keyWidth) + 1
	}
	if internalMax <= 0 {
		internalMax = maxInternalEntries(keyWidth)
	}
	if leafMax-1 > maxLeafEntries(keyWidth) || internalMax > maxInternalEntries(keyWidth) {
		return nil, fmt.Errorf("bplustree: max sizes exceed page capacity for key width %d", keyWidth)
	}

	t := &Tree{
		name:            name,
		pool:            pool,
		header:          header,
		cmp:             cmp,
		keyWidth:        keyWidth,
		leafMaxSize:     leafMax,
		internalMaxSize: internalMax,
		root:            common.InvalidPageID,
	}
	if root, ok := header.GetRootPageId(name); ok {
		t.root = root
	}
	return t, nil
}

// IsEmpty reports whether the tree currently has no root page.
func (t *Tree) IsEmpty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.root.IsValid()
}

// GetRootPageId returns the tree's current root page id, or
// common.InvalidPageID if the tree is empty.
func (t *Tree) GetRootPageId() common.PageID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.root
}

func (t *Tree) fetchNode(id common.PageID) (*node, error) {
	f, err := t.pool.FetchPage(id)
	if err != nil {
		return nil, fmt.Errorf("bplustree: fetch page %s: %w", id, err)
	}
	n, err := decode(f.Data[:], t.keyWidth)
	if err != nil {
		t.pool.UnpinPage(id, false)
		return nil, fmt.Errorf("bplustree: decode page %s: %w", id, err)
	}
	return n, nil
}

func (t *Tree) writeNode(n *node) error {
	f, err := t.pool.FetchPage(n.id)
	if err != nil {
		return fmt.Errorf("bplustree: write page %s: fetch: %w", n.id, err)
	}
	defer t.pool.UnpinPage(n.id, false)
	if err := n.encode(f.Data[:]); err != nil {
		return fmt.Errorf("bplustree: write page %s: encode: %w", n.id, err)
	}
	return nil
}

// releaseNode writes n back (if dirty) and unpins its page exactly once,
// a single scoped-handle exit point in place of ad-hoc Unpin calls on
// every branch.
func (t *Tree) releaseNode(n *node, dirty bool) error {
	if dirty {
		if err := t.writeNode(n); err != nil {
			t.pool.UnpinPage(n.id, false)
			return err
		}
	}
	return t.pool.UnpinPage(n.id, dirty)
}

func (t *Tree) newLeafNode() (*node, error) {
	f, id, err := t.pool.NewPage()
	if err != nil {
		return nil, fmt.Errorf("bplustree: new leaf: %w", err)
	}
	n := newLeaf(id, t.keyWidth, t.leafMaxSize)
	if err := n.encode(f.Data[:]); err != nil {
		t.pool.UnpinPage(id, false)
		return nil, err
	}
	return n, nil
}

func (t *Tree) newInternalNode() (*node, error) {
	f, id, err := t.pool.NewPage()
	if err != nil {
		return nil, fmt.Errorf("bplustree: new internal: %w", err)
	}
	n := newInternal(id, t.keyWidth, t.internalMaxSize)
	if err := n.encode(f.Data[:]); err != nil {
		t.pool.UnpinPage(id, false)
		return nil, err
	}
	return n, nil
}

func (t *Tree) deleteNode(id common.PageID) error {
	return t.pool.DeletePage(id)
}

func (t *Tree) updateRoot(id common.PageID) error {
	t.root = id
	if !id.IsValid() {
		return t.header.Clear(t.name)
	}
	return t.header.UpdateRootPageId(t.name, id)
}
