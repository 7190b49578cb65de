// Package buffer implements the fixed-size buffer pool manager: a bounded
// array of frames backed by a disk.Manager, using package hash as its page
// table and package replacer's LRU-K policy to pick eviction victims.
// Everything above this package (the B+-tree index) talks only in terms of
// page ids and pinned frames; it never sees a frame index.
package buffer

import (
	"fmt"
	"sync"

	"coredb/common"
	"coredb/disk"
	"coredb/hash"
	"coredb/replacer"
)

// Frame is one slot of the buffer pool's fixed frame array: a page-sized
// byte buffer plus the bookkeeping the pool needs to decide whether it can
// be evicted. Latch guards concurrent readers/writers of Data once a caller
// holds a pin; the pool's own mutex guards frame<->page assignment.
type Frame struct {
	Latch sync.RWMutex

	Data    [common.PageSize]byte
	PageID  common.PageID
	Pins    int
	Dirty   bool
	inUse   bool
}

// Pool is the buffer pool manager: poolSize frames, a free list for frames
// that currently hold no page, a hash.Table page table mapping resident page
// ids to frame ids, and an LRU-K replacer supplying eviction victims once
// the free list is exhausted.
type Pool struct {
	mu sync.Mutex

	frames    []*Frame
	freeList  []common.FrameID
	pageTable *hash.Table[common.PageID, common.FrameID]
	replacer  *replacer.LRUK
	disk      disk.Manager
	logger    common.Logger
}

// New returns a Pool of poolSize frames backed by d, using k as the LRU-K
// replacer's history length.
func New(poolSize, k int, d disk.Manager) *Pool {
	frames := make([]*Frame, poolSize)
	free := make([]common.FrameID, poolSize)
	for i := range frames {
		frames[i] = &Frame{PageID: common.InvalidPageID}
		free[i] = common.FrameID(i)
	}
	return &Pool{
		frames:    frames,
		freeList:  free,
		pageTable: hash.New[common.PageID, common.FrameID](4, pageIDHash),
		replacer:  replacer.New(poolSize, k),
		disk:      d,
		logger:    common.NopLogger{},
	}
}

// SetLogger swaps in a verbose logger; the default is silent.
func (p *Pool) SetLogger(l common.Logger) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logger = l
}

func pageIDHash(id common.PageID) uint64 { return uint64(uint32(id)) }

// Size returns the number of frames in the pool.
func (p *Pool) Size() int { return len(p.frames) }

// victimFrame returns a frame ready to hold a new page: either one from the
// free list, or one evicted via the LRU-K replacer. Dirty evicted frames are
// flushed first. Assumes p.mu is held.
func (p *Pool) victimFrame() (common.FrameID, error) {
	if len(p.freeList) > 0 {
		fid := p.freeList[len(p.freeList)-1]
		p.freeList = p.freeList[:len(p.freeList)-1]
		return fid, nil
	}

	fid, ok := p.replacer.Evict()
	if !ok {
		return 0, common.ErrPoolExhausted
	}
	f := p.frames[fid]
	if f.Dirty {
		if err := p.disk.WritePage(f.PageID, f.Data[:]); err != nil {
			return 0, fmt.Errorf("buffer: flush victim frame %d (page %s): %w", fid, f.PageID, err)
		}
		p.logger.Logf("EVICT frame=%d page=%s dirty=true flushed", fid, f.PageID)
		f.Dirty = false
	} else {
		p.logger.Logf("EVICT frame=%d page=%s dirty=false", fid, f.PageID)
	}
	p.pageTable.Remove(f.PageID)
	f.inUse = false
	f.PageID = common.InvalidPageID
	return fid, nil
}

// NewPage allocates a fresh page via the disk manager, assigns it a frame
// (evicting if necessary), pins it once, and returns the frame holding its
// (currently all-zero) contents. The caller must Unpin it when done.
func (p *Pool) NewPage() (*Frame, common.PageID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fid, err := p.victimFrame()
	if err != nil {
		return nil, common.InvalidPageID, fmt.Errorf("buffer: NewPage: %w", err)
	}

	id := p.disk.AllocatePage()
	f := p.frames[fid]
	f.PageID = id
	f.inUse = true
	f.Dirty = false
	for i := range f.Data {
		f.Data[i] = 0
	}
	f.Pins = 1

	p.pageTable.Insert(id, fid)
	p.replacer.RecordAccess(fid)
	p.replacer.SetEvictable(fid, false)
	p.logger.Logf("NEWPAGE frame=%d page=%s", fid, id)
	return f, id, nil
}

// FetchPage returns the frame holding id, loading it from disk (assigning
// and evicting a frame as needed) if it is not already resident, and pins
// it. The caller must Unpin it when done.
func (p *Pool) FetchPage(id common.PageID) (*Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if fid, ok := p.pageTable.Find(id); ok {
		f := p.frames[fid]
		f.Pins++
		p.replacer.RecordAccess(fid)
		if f.Pins == 1 {
			p.replacer.SetEvictable(fid, false)
		}
		p.logger.Logf("FETCH frame=%d page=%s pins=%d (hit)", fid, id, f.Pins)
		return f, nil
	}

	fid, err := p.victimFrame()
	if err != nil {
		return nil, fmt.Errorf("buffer: FetchPage %s: %w", id, err)
	}
	f := p.frames[fid]
	if err := p.disk.ReadPage(id, f.Data[:]); err != nil {
		p.freeList = append(p.freeList, fid)
		return nil, fmt.Errorf("buffer: FetchPage %s: read: %w", id, err)
	}
	f.PageID = id
	f.inUse = true
	f.Dirty = false
	f.Pins = 1

	p.pageTable.Insert(id, fid)
	p.replacer.RecordAccess(fid)
	p.replacer.SetEvictable(fid, false)
	p.logger.Logf("FETCH frame=%d page=%s pins=1 (miss)", fid, id)
	return f, nil
}

// UnpinPage decrements id's pin count and, if it reaches zero, marks its
// frame evictable. dirty OR's into the frame's existing dirty flag — a
// clean Unpin never un-marks a frame another pinner already dirtied.
func (p *Pool) UnpinPage(id common.PageID, dirty bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	fid, ok := p.pageTable.Find(id)
	if !ok {
		return fmt.Errorf("buffer: UnpinPage %s: %w", id, common.ErrPageNotFound)
	}
	f := p.frames[fid]
	if f.Pins == 0 {
		return fmt.Errorf("buffer: UnpinPage %s: already at zero pins", id)
	}
	if dirty {
		f.Dirty = true
	}
	f.Pins--
	if f.Pins == 0 {
		p.replacer.SetEvictable(fid, true)
	}
	p.logger.Logf("UNPIN frame=%d page=%s pins=%d dirty=%v", fid, id, f.Pins, f.Dirty)
	return nil
}

// FlushPage writes id's frame to disk regardless of its dirty bit, then
// clears the dirty bit of that same frame — not some other frame's.
func (p *Pool) FlushPage(id common.PageID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	fid, ok := p.pageTable.Find(id)
	if !ok {
		return fmt.Errorf("buffer: FlushPage %s: %w", id, common.ErrPageNotFound)
	}
	f := p.frames[fid]
	if err := p.disk.WritePage(id, f.Data[:]); err != nil {
		return fmt.Errorf("buffer: FlushPage %s: %w", id, err)
	}
	f.Dirty = false
	p.logger.Logf("FLUSH frame=%d page=%s", fid, id)
	return nil
}

// FlushAllPages flushes every resident dirty page.
func (p *Pool) FlushAllPages() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for fid, f := range p.frames {
		if !f.inUse || !f.Dirty {
			continue
		}
		if err := p.disk.WritePage(f.PageID, f.Data[:]); err != nil {
			return fmt.Errorf("buffer: FlushAllPages: page %s: %w", f.PageID, err)
		}
		f.Dirty = false
		p.logger.Logf("FLUSH frame=%d page=%s (flush-all)", fid, f.PageID)
	}
	return nil
}

// DeletePage removes id from the pool and deallocates it on disk. It
// refuses pinned pages, leaving them and their disk allocation untouched;
// deallocation only ever happens once a page is confirmed either absent or
// resident-and-unpinned, never on the pinned-page error return.
func (p *Pool) DeletePage(id common.PageID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	fid, ok := p.pageTable.Find(id)
	if !ok {
		return p.disk.DeallocatePage(id)
	}
	f := p.frames[fid]
	if f.Pins > 0 {
		return fmt.Errorf("buffer: DeletePage %s: %w", id, common.ErrPagePinned)
	}

	p.pageTable.Remove(id)
	p.replacer.Remove(fid)
	f.inUse = false
	f.Dirty = false
	f.PageID = common.InvalidPageID
	p.freeList = append(p.freeList, fid)

	p.logger.Logf("DELETE page=%s frame=%d", id, fid)
	return p.disk.DeallocatePage(id)
}
