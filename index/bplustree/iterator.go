package bplustree

import (
	"coredb/buffer"
	"coredb/common"
)

// Iterator is a forward-only range scan over the leaf chain. It holds a
// read latch and a pin on exactly one leaf at a time; advancing to the next
// leaf acquires the next leaf's latch before releasing the current one's,
// hand-over-hand.
type Iterator struct {
	tree  *Tree
	frame *buffer.Frame
	leaf  *node
	index int
	valid bool
}

func (t *Tree) fetchNodeFrame(id common.PageID) (*node, *buffer.Frame, error) {
	f, err := t.pool.FetchPage(id)
	if err != nil {
		return nil, nil, err
	}
	n, err := decode(f.Data[:], t.keyWidth)
	if err != nil {
		t.pool.UnpinPage(id, false)
		return nil, nil, err
	}
	return n, f, nil
}

func endIterator() *Iterator { return &Iterator{valid: false} }

// Begin returns an iterator positioned at the smallest key in the tree.
func (t *Tree) Begin() *Iterator {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.root.IsValid() {
		return endIterator()
	}
	id := t.root
	for {
		n, f, err := t.fetchNodeFrame(id)
		if err != nil {
			return endIterator()
		}
		if n.isLeaf {
			if len(n.leaves) == 0 {
				t.pool.UnpinPage(id, false)
				return endIterator()
			}
			f.Latch.RLock()
			return &Iterator{tree: t, frame: f, leaf: n, index: 0, valid: true}
		}
		next := n.internal[0].child
		t.pool.UnpinPage(id, false)
		id = next
	}
}

// BeginAt returns an iterator positioned at the first key >= target.
func (t *Tree) BeginAt(target Key) *Iterator {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.root.IsValid() {
		return endIterator()
	}
	leaf, err := t.findLeaf(target)
	if err != nil {
		return endIterator()
	}
	idx := leaf.lowerBound(t.cmp, target)
	if idx < len(leaf.leaves) {
		f, ferr := t.pool.FetchPage(leaf.id) // re-fetch to get the frame for latching
		t.releaseNode(leaf, false)
		if ferr != nil {
			return endIterator()
		}
		f.Latch.RLock()
		return &Iterator{tree: t, frame: f, leaf: leaf, index: idx, valid: true}
	}

	nextID := leaf.next
	t.releaseNode(leaf, false)
	if !nextID.IsValid() {
		return endIterator()
	}
	next, f, err := t.fetchNodeFrame(nextID)
	if err != nil || len(next.leaves) == 0 {
		if err == nil {
			t.pool.UnpinPage(nextID, false)
		}
		return endIterator()
	}
	f.Latch.RLock()
	return &Iterator{tree: t, frame: f, leaf: next, index: 0, valid: true}
}

// End returns an already-exhausted iterator.
func (t *Tree) End() *Iterator { return endIterator() }

// IsEnd reports whether the iterator has no current entry.
func (it *Iterator) IsEnd() bool { return !it.valid }

// Next advances the iterator, returning false once exhausted.
func (it *Iterator) Next() bool {
	if !it.valid {
		return false
	}
	it.index++
	if it.index < len(it.leaf.leaves) {
		return true
	}

	nextID := it.leaf.next
	if !nextID.IsValid() {
		it.close()
		return false
	}
	next, f, err := it.tree.fetchNodeFrame(nextID)
	if err != nil || len(next.leaves) == 0 {
		if err == nil {
			it.tree.pool.UnpinPage(nextID, false)
		}
		it.close()
		return false
	}
	f.Latch.RLock() // acquire next leaf's latch before releasing the current one
	it.frame.Latch.RUnlock()
	it.tree.pool.UnpinPage(it.leaf.id, false)

	it.frame = f
	it.leaf = next
	it.index = 0
	return true
}

// Key returns the key at the iterator's current position.
func (it *Iterator) Key() Key { return it.leaf.leaves[it.index].key }

// Value returns the record id at the iterator's current position.
func (it *Iterator) Value() common.RID { return it.leaf.leaves[it.index].rid }

// Close releases the iterator's current leaf latch and pin. Safe to call
// more than once or on an already-exhausted iterator.
func (it *Iterator) Close() { it.close() }

func (it *Iterator) close() {
	if it.leaf != nil {
		it.frame.Latch.RUnlock()
		it.tree.pool.UnpinPage(it.leaf.id, false)
		it.leaf = nil
		it.frame = nil
	}
	it.valid = false
}
