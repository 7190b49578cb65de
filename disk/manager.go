// Package disk implements the page-addressable disk manager: ReadPage,
// WritePage, and a monotonic page id allocator. Nothing above this package
// interprets the bytes it reads or writes, or assumes anything about file
// layout beyond "page id N lives at offset N*PageSize".
package disk

import (
	"fmt"
	"os"
	"sync"

	"coredb/common"
)

// Manager is the disk manager contract the buffer pool depends on. The core
// storage engine is parametric over this interface; recovery and
// write-ahead coordination live above this package, not in it. FileManager
// below is the minimal concrete stand-in used for tests and the cmd/
// binaries.
type Manager interface {
	// ReadPage fills buf (len(buf) must equal common.PageSize) with the
	// bytes of page id. Reading a page that was allocated but never written
	// returns a zero-filled buffer.
	ReadPage(id common.PageID, buf []byte) error
	// WritePage writes buf (len(buf) must equal common.PageSize) to page id.
	WritePage(id common.PageID, buf []byte) error
	// AllocatePage reserves and returns the next page id. Allocation never
	// fails and never reuses an id, including ids that were later
	// deallocated.
	AllocatePage() common.PageID
	// DeallocatePage releases page id. The core treats this as best-effort
	// bookkeeping only; real space reclamation is out of scope here.
	DeallocatePage(id common.PageID) error
}

// FileManager is an os.File-backed Manager: a single flat file, pages laid
// out at fixed PageSize offsets, a monotonic counter handing out ids
// (ReadAt/WriteAt at page-aligned offsets, a mutex-guarded file handle,
// wrapped errors). Every page lives in one flat id space rather than a
// per-file fileID:localNum scheme.
type FileManager struct {
	mu         sync.Mutex
	file       *os.File
	nextPageID common.PageID
	deleted    map[common.PageID]bool
	logger     common.Logger
}

// NewFileManager opens (creating if necessary) the backing file at path.
func NewFileManager(path string) (*FileManager, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("disk: open %s: %w", path, err)
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("disk: stat %s: %w", path, err)
	}
	nextID := common.PageID(stat.Size() / common.PageSize)
	if nextID <= common.HeaderPageID {
		nextID = common.HeaderPageID + 1
	}
	return &FileManager{
		file:       f,
		nextPageID: nextID,
		deleted:    make(map[common.PageID]bool),
		logger:     common.NopLogger{},
	}, nil
}

// SetLogger swaps in a verbose logger; the default is silent.
func (m *FileManager) SetLogger(l common.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = l
}

func (m *FileManager) ReadPage(id common.PageID, buf []byte) error {
	if len(buf) != common.PageSize {
		return fmt.Errorf("disk: ReadPage buffer must be %d bytes, got %d", common.PageSize, len(buf))
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	offset := int64(id) * common.PageSize
	n, err := m.file.ReadAt(buf, offset)
	if err != nil && n == 0 {
		// Reading a page that was allocated but never flushed reads as
		// all-zero, matching a freshly-extended file's sparse region.
		for i := range buf {
			buf[i] = 0
		}
		m.logger.Logf("READ  page=%d (never written, zero-filled)", id)
		return nil
	}
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
	m.logger.Logf("READ  page=%d", id)
	return nil
}

func (m *FileManager) WritePage(id common.PageID, buf []byte) error {
	if len(buf) != common.PageSize {
		return fmt.Errorf("disk: WritePage buffer must be %d bytes, got %d", common.PageSize, len(buf))
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	offset := int64(id) * common.PageSize
	if _, err := m.file.WriteAt(buf, offset); err != nil {
		return fmt.Errorf("disk: write page %d: %w", id, err)
	}
	m.logger.Logf("WRITE page=%d", id)
	return nil
}

func (m *FileManager) AllocatePage() common.PageID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextPageID
	m.nextPageID++
	m.logger.Logf("ALLOC page=%d", id)
	return id
}

func (m *FileManager) DeallocatePage(id common.PageID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted[id] = true
	m.logger.Logf("FREE  page=%d", id)
	return nil
}

// Deallocated reports whether id has been passed to DeallocatePage. Exposed
// for tests that check the "deallocation does not reuse ids" invariant.
func (m *FileManager) Deallocated(id common.PageID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleted[id]
}

func (m *FileManager) Sync() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.file.Sync(); err != nil {
		return fmt.Errorf("disk: sync: %w", err)
	}
	return nil
}

func (m *FileManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.file.Close()
}
