package diag

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"coredb/buffer"
	"coredb/common"
	"coredb/disk"
	"coredb/index/bplustree"
)

func TestInspectorDumpTo(t *testing.T) {
	d := disk.NewMemoryManager()
	pool := buffer.New(64, 2, d)
	header := bplustree.NewHeaderDirectory(pool)

	tr, err := bplustree.New("students", 8, bplustree.ByteComparator, pool, header, 3, 3)
	require.NoError(t, err)
	for i := int64(1); i <= 10; i++ {
		ok, err := tr.Insert(bplustree.IntKey(i, 8), common.RID{PageID: common.PageID(i), Slot: uint32(i)})
		require.NoError(t, err)
		require.True(t, ok)
	}
	require.NoError(t, pool.FlushAllPages())

	ins, err := New(d, 8)
	require.NoError(t, err)
	defer ins.Close()

	var buf bytes.Buffer
	require.NoError(t, ins.DumpTo(&buf, "students", tr.GetRootPageId()))

	out := buf.String()
	require.Contains(t, out, `Index "students"`)
	require.Contains(t, out, "LEAF")
	require.Contains(t, out, "INTERNAL")
}

func TestInspectorDumpEmptyTree(t *testing.T) {
	d := disk.NewMemoryManager()
	ins, err := New(d, 8)
	require.NoError(t, err)
	defer ins.Close()

	var buf bytes.Buffer
	require.NoError(t, ins.DumpTo(&buf, "empty", common.InvalidPageID))
	require.Contains(t, buf.String(), "(empty tree)")
}

func TestInspectorCachesRepeatedPageReads(t *testing.T) {
	d := disk.NewMemoryManager()
	pool := buffer.New(64, 2, d)
	header := bplustree.NewHeaderDirectory(pool)

	tr, err := bplustree.New("people", 8, bplustree.ByteComparator, pool, header, 3, 3)
	require.NoError(t, err)
	for i := int64(1); i <= 5; i++ {
		_, err := tr.Insert(bplustree.IntKey(i, 8), common.RID{PageID: common.PageID(i)})
		require.NoError(t, err)
	}
	require.NoError(t, pool.FlushAllPages())

	ins, err := New(d, 8)
	require.NoError(t, err)
	defer ins.Close()

	root := tr.GetRootPageId()
	s1, err := ins.page(root)
	require.NoError(t, err)
	ins.cache.Wait()
	s2, err := ins.page(root)
	require.NoError(t, err)
	require.Equal(t, s1, s2)
}
