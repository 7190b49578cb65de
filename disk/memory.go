package disk

import (
	"fmt"
	"sync"

	"coredb/common"
)

// MemoryManager is an in-RAM Manager used by tests that want a disk manager
// without touching the filesystem: a map of page id to a page-sized byte
// slice, copy-in/copy-out so callers can never alias internal state.
type MemoryManager struct {
	mu         sync.RWMutex
	pages      map[common.PageID][]byte
	nextPageID common.PageID
	deleted    map[common.PageID]bool
}

func NewMemoryManager() *MemoryManager {
	return &MemoryManager{
		pages:      make(map[common.PageID][]byte),
		deleted:    make(map[common.PageID]bool),
		nextPageID: common.HeaderPageID + 1,
	}
}

func (m *MemoryManager) ReadPage(id common.PageID, buf []byte) error {
	if len(buf) != common.PageSize {
		return fmt.Errorf("disk: ReadPage buffer must be %d bytes, got %d", common.PageSize, len(buf))
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.pages[id]
	if !ok {
		for i := range buf {
			buf[i] = 0
		}
		return nil
	}
	copy(buf, data)
	return nil
}

func (m *MemoryManager) WritePage(id common.PageID, buf []byte) error {
	if len(buf) != common.PageSize {
		return fmt.Errorf("disk: WritePage buffer must be %d bytes, got %d", common.PageSize, len(buf))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	dest := make([]byte, common.PageSize)
	copy(dest, buf)
	m.pages[id] = dest
	return nil
}

func (m *MemoryManager) AllocatePage() common.PageID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextPageID
	m.nextPageID++
	m.pages[id] = make([]byte, common.PageSize)
	return id
}

func (m *MemoryManager) DeallocatePage(id common.PageID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted[id] = true
	return nil
}

func (m *MemoryManager) Deallocated(id common.PageID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.deleted[id]
}
