package replacer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"coredb/common"
)

func TestLRUKBasicEvictionOrder(t *testing.T) {
	r := New(7, 2)

	// Scenario adapted from the BusTub course's canonical LRU-K walkthrough:
	// frame 1 accessed at t=0,1; frame 2 at t=2,3; frame 3 once at t=4;
	// frame 4 once at t=5; frame 5 once at t=6. Frames 3,4,5 have < k=2
	// accesses so they have infinite backward distance and are preferred
	// for eviction, earliest-first-access first.
	for _, f := range []common.FrameID{1, 1, 2, 2, 3, 4, 5} {
		r.RecordAccess(f)
	}
	for _, f := range []common.FrameID{1, 2, 3, 4, 5} {
		r.SetEvictable(f, true)
	}
	require.Equal(t, 5, r.Size())

	victim, ok := r.Evict()
	require.True(t, ok)
	require.Equal(t, common.FrameID(3), victim, "frame 3 has the earliest first access among <k-access frames")

	victim, ok = r.Evict()
	require.True(t, ok)
	require.Equal(t, common.FrameID(4), victim)

	r.RecordAccess(5) // frame 5 now has 2 accesses, no longer infinite-distance
	victim, ok = r.Evict()
	require.True(t, ok)
	require.Equal(t, common.FrameID(1), victim, "frame 1's 2nd-most-recent access is older than frame 2's")
}

func TestLRUKNonEvictableIsNeverChosen(t *testing.T) {
	r := New(3, 1)
	r.RecordAccess(1)
	r.RecordAccess(2)
	r.SetEvictable(1, false)
	r.SetEvictable(2, true)

	victim, ok := r.Evict()
	require.True(t, ok)
	require.Equal(t, common.FrameID(2), victim)

	_, ok = r.Evict()
	require.False(t, ok, "frame 1 is not evictable, so eviction must fail")
}

func TestLRUKRecordAccessNoOpWhenFullAndUnknown(t *testing.T) {
	r := New(2, 2)
	r.RecordAccess(1)
	r.RecordAccess(2)
	r.RecordAccess(3) // replacer already tracks 2 distinct frames (its capacity)

	r.SetEvictable(1, true)
	r.SetEvictable(2, true)
	r.SetEvictable(3, true) // no-op: frame 3 was never recorded
	require.Equal(t, 2, r.Size())
}

func TestLRUKSetEvictableTogglesSize(t *testing.T) {
	r := New(2, 2)
	r.RecordAccess(1)
	require.Equal(t, 0, r.Size())
	r.SetEvictable(1, true)
	require.Equal(t, 1, r.Size())
	r.SetEvictable(1, true) // idempotent
	require.Equal(t, 1, r.Size())
	r.SetEvictable(1, false)
	require.Equal(t, 0, r.Size())
}

func TestLRUKRemovePanicsOnNonEvictable(t *testing.T) {
	r := New(2, 2)
	r.RecordAccess(1)
	require.Panics(t, func() { r.Remove(1) })
}

func TestLRUKRemoveForgetsFrame(t *testing.T) {
	r := New(2, 2)
	r.RecordAccess(1)
	r.SetEvictable(1, true)
	r.Remove(1)
	require.Equal(t, 0, r.Size())

	r.RecordAccess(1)
	r.SetEvictable(1, true)
	r.RecordAccess(2)
	r.SetEvictable(2, true)
	victim, ok := r.Evict()
	require.True(t, ok)
	require.Contains(t, []common.FrameID{1, 2}, victim)
}
