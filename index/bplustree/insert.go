package bplustree

import (
	"fmt"

	"coredb/common"
)

// Insert inserts (key, rid). It reports false without modifying the tree if
// key already exists; a duplicate key is an expected outcome, not an error.
func (t *Tree) Insert(key Key, rid common.RID) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.root.IsValid() {
		leaf, err := t.newLeafNode()
		if err != nil {
			return false, err
		}
		leaf.leaves = append(leaf.leaves, leafEntry{key: key, rid: rid})
		leaf.size = len(leaf.leaves)
		id := leaf.id
		if err := t.releaseNode(leaf, true); err != nil {
			return false, err
		}
		if err := t.updateRoot(id); err != nil {
			return false, err
		}
		return true, nil
	}

	leaf, err := t.findLeaf(key)
	if err != nil {
		return false, err
	}
	if idx := leaf.find(t.cmp, key); idx >= 0 {
		t.releaseNode(leaf, false)
		return false, nil
	}

	pos := leaf.lowerBound(t.cmp, key)
	leaf.leaves = insertAt(leaf.leaves, pos, leafEntry{key: key, rid: rid})
	leaf.size = len(leaf.leaves)

	if len(leaf.leaves) < t.leafMaxSize {
		return true, t.releaseNode(leaf, true)
	}
	return true, t.splitLeaf(leaf)
}

// splitLeaf moves the upper half of an overflowing leaf's entries into a
// freshly allocated sibling, threads the leaf chain, and propagates the new
// separator upward.
func (t *Tree) splitLeaf(leaf *node) error {
	mid := len(leaf.leaves) / 2

	sibling, err := t.newLeafNode()
	if err != nil {
		t.releaseNode(leaf, true)
		return err
	}
	sibling.leaves = append(sibling.leaves, leaf.leaves[mid:]...)
	sibling.size = len(sibling.leaves)
	sibling.next = leaf.next
	sibling.parent = leaf.parent

	leaf.leaves = leaf.leaves[:mid]
	leaf.size = len(leaf.leaves)
	leaf.next = sibling.id

	sepKey := sibling.leaves[0].key
	leafWasRoot := leaf.id == t.root
	leafID, parentID := leaf.id, leaf.parent
	siblingID := sibling.id

	if err := t.releaseNode(sibling, true); err != nil {
		t.releaseNode(leaf, true)
		return err
	}
	if err := t.releaseNode(leaf, true); err != nil {
		return err
	}

	if leafWasRoot {
		return t.createNewRoot(leafID, sepKey, siblingID)
	}
	return t.insertInParent(parentID, leafID, sepKey, siblingID)
}

// createNewRoot allocates a new internal root with two children, used when
// the page that just split was the root itself.
func (t *Tree) createNewRoot(leftID common.PageID, sepKey Key, rightID common.PageID) error {
	root, err := t.newInternalNode()
	if err != nil {
		return err
	}
	root.internal = append(root.internal,
		internalEntry{child: leftID},
		internalEntry{key: sepKey, child: rightID},
	)
	root.size = len(root.internal)
	rootID := root.id
	if err := t.releaseNode(root, true); err != nil {
		return err
	}

	for _, childID := range [2]common.PageID{leftID, rightID} {
		child, err := t.fetchNode(childID)
		if err != nil {
			return fmt.Errorf("bplustree: createNewRoot: reparent %s: %w", childID, err)
		}
		child.parent = rootID
		if err := t.releaseNode(child, true); err != nil {
			return err
		}
	}
	return t.updateRoot(rootID)
}

// insertInParent inserts (sepKey, rightID) into parentID's sorted entries
// right after leftID, splitting the parent if it overflows.
func (t *Tree) insertInParent(parentID, leftID common.PageID, sepKey Key, rightID common.PageID) error {
	parent, err := t.fetchNode(parentID)
	if err != nil {
		return fmt.Errorf("bplustree: insertInParent: fetch parent %s: %w", parentID, err)
	}

	idx := 0
	for idx < len(parent.internal) && parent.internal[idx].child != leftID {
		idx++
	}
	parent.internal = insertAt(parent.internal, idx+1, internalEntry{key: sepKey, child: rightID})
	parent.size = len(parent.internal)

	right, err := t.fetchNode(rightID)
	if err == nil {
		right.parent = parentID
		t.releaseNode(right, true)
	}

	if len(parent.internal) <= t.internalMaxSize {
		return t.releaseNode(parent, true)
	}
	return t.splitInternal(parent)
}

// splitInternal splits an overflowing internal page: the first
// ⌈(max_size+1)/2⌉ entries stay, the rest move to a new sibling, and the
// separating key is promoted to the parent.
func (t *Tree) splitInternal(n *node) error {
	total := len(n.internal)
	left := (total + 1) / 2

	promoteKey := n.internal[left].key

	sibling, err := t.newInternalNode()
	if err != nil {
		t.releaseNode(n, true)
		return err
	}
	sibling.internal = append(sibling.internal, n.internal[left:]...)
	sibling.internal[0].key = Key{}
	sibling.size = len(sibling.internal)
	sibling.parent = n.parent

	for i := range sibling.internal {
		child, err := t.fetchNode(sibling.internal[i].child)
		if err != nil {
			t.releaseNode(sibling, true)
			t.releaseNode(n, true)
			return fmt.Errorf("bplustree: splitInternal: reparent %s: %w", sibling.internal[i].child, err)
		}
		child.parent = sibling.id
		if err := t.releaseNode(child, true); err != nil {
			return err
		}
	}

	n.internal = n.internal[:left]
	n.size = len(n.internal)

	wasRoot := n.id == t.root
	nodeID, parentID := n.id, n.parent
	siblingID := sibling.id

	if err := t.releaseNode(sibling, true); err != nil {
		t.releaseNode(n, true)
		return err
	}
	if err := t.releaseNode(n, true); err != nil {
		return err
	}

	if wasRoot {
		return t.createNewRoot(nodeID, promoteKey, siblingID)
	}
	return t.insertInParent(parentID, nodeID, promoteKey, siblingID)
}
