package bplustree

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/tidwall/btree"

	"coredb/buffer"
	"coredb/common"
)

// headerRecord is one index_name -> root_page_id mapping.
type headerRecord struct {
	name string
	root common.PageID
}

// HeaderDirectory is the header page: a reserved page (common.HeaderPageID)
// holding a mapping from index name to root page id, shared by every Tree
// built over one Pool (so an index.Manager running several named trees
// only pays for one page).
//
// Lookups are served from an in-memory github.com/tidwall/btree.BTreeG
// cache rather than re-parsing the header page on every GetRootPageId;
// writes update both the cache and the page.
type HeaderDirectory struct {
	mu     sync.Mutex
	pool   *buffer.Pool
	cache  *btree.BTreeG[headerRecord]
	loaded bool
}

func lessHeaderRecord(a, b headerRecord) bool { return a.name < b.name }

// NewHeaderDirectory returns a HeaderDirectory backed by pool's reserved
// header page. It does not touch the pool: the page is read on first use,
// and a page 0 the disk manager never wrote reads as all zeros, which
// decodes as an empty directory.
func NewHeaderDirectory(pool *buffer.Pool) *HeaderDirectory {
	return &HeaderDirectory{pool: pool, cache: btree.NewBTreeG(lessHeaderRecord)}
}

// ensureLoaded parses the on-disk header page into the cache once. Assumes
// d.mu is held.
func (d *HeaderDirectory) ensureLoaded() error {
	if d.loaded {
		return nil
	}
	f, err := d.pool.FetchPage(common.HeaderPageID)
	if err != nil {
		return fmt.Errorf("bplustree: header: fetch: %w", err)
	}
	defer d.pool.UnpinPage(common.HeaderPageID, false)

	count := binary.LittleEndian.Uint32(f.Data[0:])
	off := 4
	for i := uint32(0); i < count; i++ {
		if off+2 > len(f.Data) {
			break
		}
		nameLen := int(binary.LittleEndian.Uint16(f.Data[off:]))
		off += 2
		name := string(f.Data[off : off+nameLen])
		off += nameLen
		root := common.PageID(int32(binary.LittleEndian.Uint32(f.Data[off:])))
		off += 4
		d.cache.Set(headerRecord{name: name, root: root})
	}
	d.loaded = true
	return nil
}

// flush rewrites the header page from the cache. Assumes d.mu is held.
func (d *HeaderDirectory) flush() error {
	f, err := d.pool.FetchPage(common.HeaderPageID)
	if err != nil {
		return fmt.Errorf("bplustree: header: fetch: %w", err)
	}
	for i := range f.Data {
		f.Data[i] = 0
	}

	count := uint32(d.cache.Len())
	binary.LittleEndian.PutUint32(f.Data[0:], count)
	off := 4
	var writeErr error
	d.cache.Scan(func(r headerRecord) bool {
		nameBytes := []byte(r.name)
		if off+2+len(nameBytes)+4 > len(f.Data) {
			writeErr = fmt.Errorf("bplustree: header: too many indexes for one page")
			return false
		}
		binary.LittleEndian.PutUint16(f.Data[off:], uint16(len(nameBytes)))
		off += 2
		copy(f.Data[off:], nameBytes)
		off += len(nameBytes)
		binary.LittleEndian.PutUint32(f.Data[off:], uint32(int32(r.root)))
		off += 4
		return true
	})
	if writeErr != nil {
		d.pool.UnpinPage(common.HeaderPageID, false)
		return writeErr
	}
	return d.pool.UnpinPage(common.HeaderPageID, true)
}

// GetRootPageId returns the root page id recorded for name, if any.
func (d *HeaderDirectory) GetRootPageId(name string) (common.PageID, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureLoaded(); err != nil {
		return common.InvalidPageID, false
	}
	rec, ok := d.cache.Get(headerRecord{name: name})
	if !ok {
		return common.InvalidPageID, false
	}
	return rec.root, true
}

// UpdateRootPageId inserts or updates name's root page id record, depending
// on whether the index already had one.
func (d *HeaderDirectory) UpdateRootPageId(name string, root common.PageID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureLoaded(); err != nil {
		return err
	}
	d.cache.Set(headerRecord{name: name, root: root})
	return d.flush()
}

// Clear removes name's root page id record, used when a tree's root
// collapses to empty.
func (d *HeaderDirectory) Clear(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ensureLoaded(); err != nil {
		return err
	}
	d.cache.Delete(headerRecord{name: name})
	return d.flush()
}
