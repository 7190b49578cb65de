// Package common holds the small value types and constants shared by every
// layer of the storage engine: page/frame identifiers, the fixed page size,
// and the record id used to point at heap tuples from a leaf index entry.
package common

import "fmt"

// PageSize is the fixed size, in bytes, of every on-disk and in-memory page.
const PageSize = 4096

// PageID identifies a page in the logical page space maintained by a disk
// manager. Page ids are allocated monotonically and are never reused, even
// after the page they named has been deallocated.
type PageID int32

// InvalidPageID is the sentinel returned where no page exists, e.g. an empty
// tree's root, or a leaf's next pointer when it is the last leaf.
const InvalidPageID PageID = -1

// IsValid reports whether id names a real, allocated page.
func (id PageID) IsValid() bool {
	return id != InvalidPageID
}

func (id PageID) String() string {
	if id == InvalidPageID {
		return "<invalid>"
	}
	return fmt.Sprintf("page(%d)", int32(id))
}

// FrameID identifies a slot in the buffer pool's fixed frame array, in
// [0, pool_size).
type FrameID int32

// HeaderPageID is the reserved page that stores the index_name -> root_page_id
// directory for every B+-tree opened against a given buffer pool.
const HeaderPageID PageID = 0

// RID (record id) names a tuple stored in an external heap file: the page it
// lives on plus its slot number within that page. The storage engine core
// never interprets the bytes of a heap tuple; RID is an opaque handle it
// carries on behalf of callers, as a B+-tree leaf value.
type RID struct {
	PageID PageID
	Slot   uint32
}

func (r RID) String() string {
	return fmt.Sprintf("rid(%s,%d)", r.PageID, r.Slot)
}

// IsZero reports whether r is the zero-value RID, which callers may use as
// a "no record" marker instead of threading a second boolean around.
func (r RID) IsZero() bool {
	return r.PageID == 0 && r.Slot == 0
}
