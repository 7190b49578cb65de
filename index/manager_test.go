package index

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"coredb/buffer"
	"coredb/common"
	"coredb/disk"
	"coredb/index/bplustree"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return New(buffer.New(64, 2, disk.NewMemoryManager()))
}

func TestManagerOpenOrCreateReturnsSameTree(t *testing.T) {
	m := newTestManager(t)

	t1, err := m.OpenOrCreate("people", 8, bplustree.ByteComparator, 0, 0)
	require.NoError(t, err)
	t2, err := m.OpenOrCreate("people", 8, bplustree.ByteComparator, 0, 0)
	require.NoError(t, err)
	require.Same(t, t1, t2)
}

func TestManagerGetUnopenedIndexNotFound(t *testing.T) {
	m := newTestManager(t)
	_, ok := m.Get("nope")
	require.False(t, ok)
}

func TestManagerDistinctNamesAreDistinctTrees(t *testing.T) {
	m := newTestManager(t)

	a, err := m.OpenOrCreate("a", 8, bplustree.ByteComparator, 0, 0)
	require.NoError(t, err)
	b, err := m.OpenOrCreate("b", 8, bplustree.ByteComparator, 0, 0)
	require.NoError(t, err)
	require.NotSame(t, a, b)

	_, err = a.Insert(bplustree.IntKey(1, 8), common.RID{PageID: 1, Slot: 0})
	require.NoError(t, err)
	require.True(t, b.IsEmpty())
}

func TestManagerDropRemovesFromRegistry(t *testing.T) {
	m := newTestManager(t)
	_, err := m.OpenOrCreate("people", 8, bplustree.ByteComparator, 0, 0)
	require.NoError(t, err)

	m.Drop("people")
	_, ok := m.Get("people")
	require.False(t, ok)
}

func TestManagerNamesListsEveryOpenIndex(t *testing.T) {
	m := newTestManager(t)
	_, err := m.OpenOrCreate("a", 8, bplustree.ByteComparator, 0, 0)
	require.NoError(t, err)
	_, err = m.OpenOrCreate("b", 8, bplustree.ByteComparator, 0, 0)
	require.NoError(t, err)

	names := m.Names()
	require.ElementsMatch(t, []string{"a", "b"}, names)
}

func TestManagerConcurrentOpenOrCreateConverges(t *testing.T) {
	m := newTestManager(t)

	const n = 16
	trees := make([]*bplustree.Tree, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tr, err := m.OpenOrCreate("shared", 8, bplustree.ByteComparator, 0, 0)
			require.NoError(t, err)
			trees[i] = tr
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		require.Same(t, trees[0], trees[i])
	}
}
