package bplustree

import "coredb/common"

// LeafEntrySummary is one decoded (key, record id) pair, exported for
// diagnostic tooling that reads pages directly off disk rather than
// through a Tree (package diag).
type LeafEntrySummary struct {
	Key Key
	RID common.RID
}

// InternalEntrySummary is one decoded (key, child) pair; Key is the zero
// value for slot 0.
type InternalEntrySummary struct {
	Key   Key
	Child common.PageID
}

// PageSummary is the decoded shape of one page, independent of any Tree or
// buffer.Pool — everything InspectPage needs to report is reachable from
// the raw bytes plus the index's key width.
type PageSummary struct {
	ID     common.PageID
	IsLeaf bool
	Size   int
	Parent common.PageID
	Next   common.PageID // leaf only; common.InvalidPageID on an internal page

	Leaves   []LeafEntrySummary
	Internal []InternalEntrySummary
}

// InspectPage decodes a raw page-sized buffer for out-of-band tooling
// (package diag's page dumper), without requiring a live Tree or Pool.
func InspectPage(buf []byte, keyWidth int) (PageSummary, error) {
	n, err := decode(buf, keyWidth)
	if err != nil {
		return PageSummary{}, err
	}
	s := PageSummary{ID: n.id, IsLeaf: n.isLeaf, Size: n.size, Parent: n.parent, Next: common.InvalidPageID}
	if n.isLeaf {
		s.Next = n.next
		s.Leaves = make([]LeafEntrySummary, len(n.leaves))
		for i, e := range n.leaves {
			s.Leaves[i] = LeafEntrySummary{Key: e.key, RID: e.rid}
		}
		return s, nil
	}
	s.Internal = make([]InternalEntrySummary, len(n.internal))
	for i, e := range n.internal {
		s.Internal[i] = InternalEntrySummary{Key: e.key, Child: e.child}
	}
	return s, nil
}
