package bplustree

import (
	"sort"

	"coredb/common"
)

// childIndex returns the largest i such that internal[i].key <= key,
// treating slot 0's unused key as -infinity. Every key in the subtree
// rooted at value[i] lies in [key[i], key[i+1]).
func (n *node) childIndex(cmp Comparator, key Key) int {
	idx := sort.Search(len(n.internal), func(i int) bool {
		if i == 0 {
			return false
		}
		return cmp(n.internal[i].key, key) > 0
	})
	return idx - 1
}

// find returns the index of key in a leaf's sorted entries, or -1.
func (n *node) find(cmp Comparator, key Key) int {
	lo, hi := 0, len(n.leaves)-1
	for lo <= hi {
		mid := lo + (hi-lo)/2
		c := cmp(n.leaves[mid].key, key)
		switch {
		case c == 0:
			return mid
		case c < 0:
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}
	return -1
}

// lowerBound returns the first index in a leaf's sorted entries whose key
// is >= key (the sorted insertion position for a new key).
func (n *node) lowerBound(cmp Comparator, key Key) int {
	return sort.Search(len(n.leaves), func(i int) bool {
		return cmp(n.leaves[i].key, key) >= 0
	})
}

// findLeaf descends from the root, binary-searching each internal page,
// returning the pinned target leaf.
func (t *Tree) findLeaf(key Key) (*node, error) {
	if !t.root.IsValid() {
		return nil, common.ErrEmptyTree
	}
	id := t.root
	for {
		n, err := t.fetchNode(id)
		if err != nil {
			return nil, err
		}
		if n.isLeaf {
			return n, nil
		}
		idx := n.childIndex(t.cmp, key)
		if idx < 0 {
			idx = 0
		}
		next := n.internal[idx].child
		if err := t.pool.UnpinPage(id, false); err != nil {
			return nil, err
		}
		id = next
	}
}

// GetValue looks up key, returning its record id if present.
func (t *Tree) GetValue(key Key) (common.RID, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	leaf, err := t.findLeaf(key)
	if err != nil {
		return common.RID{}, err
	}
	defer t.releaseNode(leaf, false)

	idx := leaf.find(t.cmp, key)
	if idx < 0 {
		return common.RID{}, common.ErrKeyNotFound
	}
	return leaf.leaves[idx].rid, nil
}
