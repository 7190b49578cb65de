package bplustree

import (
	"fmt"

	"coredb/common"
)

func (t *Tree) leafMinSize() int     { return t.leafMaxSize / 2 }         // ceil((max_size-1)/2)
func (t *Tree) internalMinSize() int { return (t.internalMaxSize + 1) / 2 } // ceil(max_size/2)

func (t *Tree) maxFill(n *node) int {
	if n.isLeaf {
		return t.leafMaxSize - 1
	}
	return t.internalMaxSize
}

func (t *Tree) minFill(n *node) int {
	if n.isLeaf {
		return t.leafMinSize()
	}
	return t.internalMinSize()
}

// Remove deletes key if present, reporting whether it was found.
func (t *Tree) Remove(key Key) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.root.IsValid() {
		return false, nil
	}
	leaf, err := t.findLeaf(key)
	if err != nil {
		return false, err
	}
	idx := leaf.find(t.cmp, key)
	if idx < 0 {
		t.releaseNode(leaf, false)
		return false, nil
	}
	leaf.leaves = removeAt(leaf.leaves, idx)
	leaf.size = len(leaf.leaves)

	return true, t.handleUnderflow(leaf)
}

// handleUnderflow repairs the tree below (and including) n after a
// deletion, consuming exactly one pin on n by the time it returns, on
// every path.
func (t *Tree) handleUnderflow(n *node) error {
	if n.id == t.root {
		switch {
		case n.isLeaf && len(n.leaves) == 0:
			id := n.id
			if err := t.pool.UnpinPage(id, false); err != nil {
				return err
			}
			if err := t.deleteNode(id); err != nil {
				return err
			}
			return t.updateRoot(common.InvalidPageID)

		case !n.isLeaf && len(n.internal) == 1:
			id := n.id
			onlyChild := n.internal[0].child
			if err := t.pool.UnpinPage(id, false); err != nil {
				return err
			}
			if err := t.deleteNode(id); err != nil {
				return err
			}
			child, err := t.fetchNode(onlyChild)
			if err != nil {
				return err
			}
			child.parent = common.InvalidPageID
			if err := t.releaseNode(child, true); err != nil {
				return err
			}
			return t.updateRoot(onlyChild)

		default:
			return t.releaseNode(n, true)
		}
	}

	if n.size >= t.minFill(n) {
		return t.releaseNode(n, true)
	}

	parent, err := t.fetchNode(n.parent)
	if err != nil {
		t.releaseNode(n, true)
		return fmt.Errorf("bplustree: handleUnderflow: fetch parent %s: %w", n.parent, err)
	}

	i := -1
	for idx, e := range parent.internal {
		if e.child == n.id {
			i = idx
			break
		}
	}
	if i < 0 {
		t.releaseNode(n, true)
		t.releaseNode(parent, false)
		return fmt.Errorf("bplustree: handleUnderflow: %s not found among its parent's children", n.id)
	}

	ispre := i > 0
	sepIdx := i
	var siblingID common.PageID
	if ispre {
		siblingID = parent.internal[i-1].child
	} else {
		sepIdx = i + 1
		siblingID = parent.internal[i+1].child
	}
	sibling, err := t.fetchNode(siblingID)
	if err != nil {
		t.releaseNode(n, true)
		t.releaseNode(parent, false)
		return fmt.Errorf("bplustree: handleUnderflow: fetch sibling %s: %w", siblingID, err)
	}

	if sibling.size+n.size <= t.maxFill(n) {
		return t.coalesce(n, sibling, parent, ispre, sepIdx)
	}
	return t.redistribute(n, sibling, parent, ispre, sepIdx)
}

// coalesce merges n and sibling (whichever is on the right is discarded
// into whichever is on the left), removes the now-redundant separator slot
// (at sepIdx, which equals the discarded child's own slot in parent)
// and recurses HandleUnderflow on the parent.
func (t *Tree) coalesce(n, sibling, parent *node, ispre bool, sepIdx int) error {
	var left, right *node
	rightSlot := sepIdx
	if ispre {
		left, right = sibling, n
	} else {
		left, right = n, sibling
	}

	if left.isLeaf {
		left.leaves = append(left.leaves, right.leaves...)
		left.size = len(left.leaves)
		left.next = right.next
	} else {
		sep := parent.internal[rightSlot].key
		merged := make([]internalEntry, len(right.internal))
		copy(merged, right.internal)
		merged[0] = internalEntry{key: sep, child: right.internal[0].child}
		left.internal = append(left.internal, merged...)
		left.size = len(left.internal)
		for _, e := range merged {
			child, err := t.fetchNode(e.child)
			if err != nil {
				continue
			}
			child.parent = left.id
			t.releaseNode(child, true)
		}
	}

	rightID := right.id
	if err := t.pool.UnpinPage(rightID, false); err != nil {
		t.releaseNode(left, true)
		t.releaseNode(parent, false)
		return err
	}
	if err := t.deleteNode(rightID); err != nil {
		t.releaseNode(left, true)
		t.releaseNode(parent, false)
		return err
	}

	parent.internal = removeAt(parent.internal, rightSlot)
	parent.size = len(parent.internal)

	if err := t.releaseNode(left, true); err != nil {
		t.releaseNode(parent, false)
		return err
	}
	return t.handleUnderflow(parent)
}

// redistribute borrows one entry across the parent separator from sibling
// into n.
func (t *Tree) redistribute(n, sibling, parent *node, ispre bool, sepIdx int) error {
	if n.isLeaf {
		if ispre {
			last := sibling.leaves[len(sibling.leaves)-1]
			sibling.leaves = sibling.leaves[:len(sibling.leaves)-1]
			sibling.size = len(sibling.leaves)
			n.leaves = insertAt(n.leaves, 0, last)
			n.size = len(n.leaves)
			parent.internal[sepIdx].key = n.leaves[0].key
		} else {
			first := sibling.leaves[0]
			sibling.leaves = sibling.leaves[1:]
			sibling.size = len(sibling.leaves)
			n.leaves = append(n.leaves, first)
			n.size = len(n.leaves)
			parent.internal[sepIdx].key = sibling.leaves[0].key
		}
	} else if ispre {
		oldSep := parent.internal[sepIdx].key
		lastEntry := sibling.internal[len(sibling.internal)-1]
		newParentSep := lastEntry.key
		sibling.internal = sibling.internal[:len(sibling.internal)-1]
		sibling.size = len(sibling.internal)

		oldSlot0Child := n.internal[0].child
		n.internal[0] = internalEntry{child: lastEntry.child}
		n.internal = insertAt(n.internal, 1, internalEntry{key: oldSep, child: oldSlot0Child})
		n.size = len(n.internal)
		parent.internal[sepIdx].key = newParentSep

		if child, err := t.fetchNode(lastEntry.child); err == nil {
			child.parent = n.id
			t.releaseNode(child, true)
		}
	} else {
		oldSep := parent.internal[sepIdx].key
		firstChild := sibling.internal[0].child
		newParentSep := sibling.internal[1].key

		sibling.internal = sibling.internal[1:]
		sibling.internal[0] = internalEntry{child: sibling.internal[0].child}
		sibling.size = len(sibling.internal)

		n.internal = append(n.internal, internalEntry{key: oldSep, child: firstChild})
		n.size = len(n.internal)
		parent.internal[sepIdx].key = newParentSep

		if child, err := t.fetchNode(firstChild); err == nil {
			child.parent = n.id
			t.releaseNode(child, true)
		}
	}

	if err := t.releaseNode(sibling, true); err != nil {
		t.releaseNode(n, true)
		t.releaseNode(parent, false)
		return err
	}
	if err := t.releaseNode(n, true); err != nil {
		t.releaseNode(parent, false)
		return err
	}
	return t.releaseNode(parent, true)
}
