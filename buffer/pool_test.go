package buffer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"coredb/common"
	"coredb/disk"
)

// TestPoolEvictionScenario: pool_size=3, k=2.
// Pages 1,2,3 fill the pool; page 1 is accessed a second time so it has a
// finite 2nd-most-recent distance, while 2 and 3 (one access each) have
// infinite distance and are evicted first, earliest-access-first.
func TestPoolEvictionScenario(t *testing.T) {
	d := disk.NewMemoryManager()
	p := New(3, 2, d)

	f1, id1, err := p.NewPage()
	require.NoError(t, err)
	require.NoError(t, p.UnpinPage(id1, false))

	_, id2, err := p.NewPage()
	require.NoError(t, err)
	require.NoError(t, p.UnpinPage(id2, false))

	_, id3, err := p.NewPage()
	require.NoError(t, err)
	require.NoError(t, p.UnpinPage(id3, false))

	// Re-fetch page 1, giving it a second (more recent) access.
	f1again, err := p.FetchPage(id1)
	require.NoError(t, err)
	require.Same(t, f1, f1again)
	require.NoError(t, p.UnpinPage(id1, false))

	// The pool is full and unpinned; a 4th NewPage must evict page 2 (the
	// earliest of the two single-access, infinite-distance pages).
	_, id4, err := p.NewPage()
	require.NoError(t, err)
	require.NoError(t, p.UnpinPage(id4, false))

	_, err = p.FetchPage(id2)
	require.NoError(t, err, "page 2 should have been evicted and is now re-read from disk")
	require.NoError(t, p.UnpinPage(id2, false))
}

func TestPoolPinnedFrameNeverEvicted(t *testing.T) {
	d := disk.NewMemoryManager()
	p := New(1, 2, d)

	_, id1, err := p.NewPage()
	require.NoError(t, err) // id1 stays pinned (never Unpinned)

	_, _, err = p.NewPage()
	require.Error(t, err)
	require.True(t, errors.Is(err, common.ErrPoolExhausted))

	_ = id1
}

func TestPoolFetchMissLoadsFromDisk(t *testing.T) {
	d := disk.NewMemoryManager()
	p := New(2, 2, d)

	f, id, err := p.NewPage()
	require.NoError(t, err)
	f.Data[0] = 42
	f.Dirty = true
	require.NoError(t, p.UnpinPage(id, true))
	require.NoError(t, p.FlushPage(id))

	p2 := New(2, 2, d)
	f2, err := p2.FetchPage(id)
	require.NoError(t, err)
	require.Equal(t, byte(42), f2.Data[0])
	require.NoError(t, p2.UnpinPage(id, false))
}

func TestPoolUnpinUnknownPageErrors(t *testing.T) {
	d := disk.NewMemoryManager()
	p := New(2, 2, d)
	err := p.UnpinPage(common.PageID(99), false)
	require.Error(t, err)
	require.True(t, errors.Is(err, common.ErrPageNotFound))
}

func TestPoolFlushPageClearsOnlyTargetFrame(t *testing.T) {
	d := disk.NewMemoryManager()
	p := New(3, 2, d)

	_, id1, err := p.NewPage()
	require.NoError(t, err)
	require.NoError(t, p.UnpinPage(id1, true))

	_, id2, err := p.NewPage()
	require.NoError(t, err)
	require.NoError(t, p.UnpinPage(id2, true))

	require.NoError(t, p.FlushPage(id2))

	fid1, ok := p.pageTable.Find(id1)
	require.True(t, ok)
	require.True(t, p.frames[fid1].Dirty, "flushing page 2 must not clear page 1's dirty bit")

	fid2, ok := p.pageTable.Find(id2)
	require.True(t, ok)
	require.False(t, p.frames[fid2].Dirty)
}

func TestPoolDeletePageRefusesPinned(t *testing.T) {
	d := disk.NewMemoryManager()
	p := New(2, 2, d)

	_, id, err := p.NewPage()
	require.NoError(t, err)

	err = p.DeletePage(id)
	require.Error(t, err)
	require.True(t, errors.Is(err, common.ErrPagePinned))
	require.False(t, d.Deallocated(id), "a refused delete must not deallocate the page id")
}

func TestPoolDeletePageFreesFrame(t *testing.T) {
	d := disk.NewMemoryManager()
	p := New(1, 2, d)

	_, id, err := p.NewPage()
	require.NoError(t, err)
	require.NoError(t, p.UnpinPage(id, false))
	require.NoError(t, p.DeletePage(id))
	require.True(t, d.Deallocated(id))

	// The frame must be back on the free list and reusable without error.
	_, id2, err := p.NewPage()
	require.NoError(t, err)
	require.NotEqual(t, id, id2)
}

func TestPoolNewPageContentsAreZeroed(t *testing.T) {
	d := disk.NewMemoryManager()
	p := New(1, 2, d)

	f, id, err := p.NewPage()
	require.NoError(t, err)
	for i, b := range f.Data {
		require.Equal(t, byte(0), b, "byte %d", i)
	}
	require.NoError(t, p.UnpinPage(id, false))
}
