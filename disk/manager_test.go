package disk

import (
	"path/filepath"
	"testing"

	"coredb/common"
)

func TestFileManagerAllocateNeverReuses(t *testing.T) {
	dir := t.TempDir()
	m, err := NewFileManager(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("NewFileManager: %v", err)
	}
	defer m.Close()

	ids := make(map[common.PageID]bool)
	for i := 0; i < 10; i++ {
		id := m.AllocatePage()
		if ids[id] {
			t.Fatalf("AllocatePage returned duplicate id %d", id)
		}
		ids[id] = true
	}

	// Deallocating a page must not make its id eligible for reuse.
	victim := m.AllocatePage()
	if err := m.DeallocatePage(victim); err != nil {
		t.Fatalf("DeallocatePage: %v", err)
	}
	if !m.Deallocated(victim) {
		t.Fatalf("expected %d to be recorded as deallocated", victim)
	}
	next := m.AllocatePage()
	if next == victim {
		t.Fatalf("AllocatePage reused deallocated id %d", victim)
	}
}

func TestFileManagerReadWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	m, err := NewFileManager(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("NewFileManager: %v", err)
	}
	defer m.Close()

	id := m.AllocatePage()
	want := make([]byte, common.PageSize)
	for i := range want {
		want[i] = byte(i % 251)
	}
	if err := m.WritePage(id, want); err != nil {
		t.Fatalf("WritePage: %v", err)
	}

	got := make([]byte, common.PageSize)
	if err := m.ReadPage(id, got); err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d: got %d want %d", i, got[i], want[i])
		}
	}
}

func TestFileManagerUnwrittenPageReadsZero(t *testing.T) {
	dir := t.TempDir()
	m, err := NewFileManager(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("NewFileManager: %v", err)
	}
	defer m.Close()

	id := m.AllocatePage()
	buf := make([]byte, common.PageSize)
	for i := range buf {
		buf[i] = 0xFF
	}
	if err := m.ReadPage(id, buf); err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("byte %d: expected zero fill, got %d", i, b)
		}
	}
}

func TestFileManagerReopenPreservesNextID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")
	m, err := NewFileManager(path)
	if err != nil {
		t.Fatalf("NewFileManager: %v", err)
	}
	for i := 0; i < 3; i++ {
		m.AllocatePage()
	}
	buf := make([]byte, common.PageSize)
	if err := m.WritePage(2, buf); err != nil {
		t.Fatalf("WritePage: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	m2, err := NewFileManager(path)
	if err != nil {
		t.Fatalf("reopen NewFileManager: %v", err)
	}
	defer m2.Close()
	id := m2.AllocatePage()
	if id < 3 {
		t.Fatalf("expected reopened manager to continue past page 2, got %d", id)
	}
}

func TestMemoryManagerRoundTrip(t *testing.T) {
	m := NewMemoryManager()
	id := m.AllocatePage()
	buf := make([]byte, common.PageSize)
	buf[0] = 42
	if err := m.WritePage(id, buf); err != nil {
		t.Fatalf("WritePage: %v", err)
	}
	out := make([]byte, common.PageSize)
	if err := m.ReadPage(id, out); err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	if out[0] != 42 {
		t.Fatalf("expected 42, got %d", out[0])
	}
}

func TestManagerBadBufferSize(t *testing.T) {
	m := NewMemoryManager()
	id := m.AllocatePage()
	if err := m.WritePage(id, make([]byte, 10)); err == nil {
		t.Fatalf("expected error for undersized buffer")
	}
	if err := m.ReadPage(id, make([]byte, 10)); err == nil {
		t.Fatalf("expected error for undersized buffer")
	}
}

var _ Manager = (*FileManager)(nil)
var _ Manager = (*MemoryManager)(nil)
