// Package replacer implements the LRU-K page replacement policy: among
// evictable frames, the victim is the one whose k-th-most-recent access is
// furthest in the past, with frames that have fewer than k recorded
// accesses treated as having infinite backward k-distance and broken by
// earliest-first-access order.
package replacer

import (
	"sync"

	"coredb/common"
)

// history is the per-frame access record: a bounded FIFO of up to k
// timestamps (oldest at index 0) plus the evictable flag.
type history struct {
	timestamps []int64
	evictable  bool
}

// kthMostRecent returns the timestamp of the frame's k-th-most-recent
// access; the older it is, the larger the frame's backward k-distance. A
// frame with fewer than k recorded accesses has infinite distance,
// represented by ok=false.
func (h *history) kthMostRecent(k int) (int64, bool) {
	if len(h.timestamps) < k {
		return 0, false
	}
	// timestamps[0] is the oldest of the (at most k) entries kept; once the
	// FIFO is full, index 0 *is* the k-th-most-recent access.
	return h.timestamps[0], true
}

func (h *history) earliest() int64 {
	return h.timestamps[0]
}

// LRUK tracks access history for up to num_frames distinct frames and
// selects eviction victims per the backward-k-distance rule: the frame
// whose k-th-most-recent access is furthest in the past. One mutex guards
// all state.
type LRUK struct {
	mu        sync.Mutex
	k         int
	capacity  int
	clock     int64
	records   map[common.FrameID]*history
	evictable int
}

// New returns an LRUK tracking at most numFrames distinct frames, each
// keeping up to k access timestamps.
func New(numFrames, k int) *LRUK {
	return &LRUK{
		k:        k,
		capacity: numFrames,
		records:  make(map[common.FrameID]*history),
	}
}

// RecordAccess notes an access to frame at the current logical timestamp.
// If frame is unknown and the replacer is already tracking capacity distinct
// frames, the call is a no-op.
func (r *LRUK) RecordAccess(frame common.FrameID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.records[frame]
	if !ok {
		if len(r.records) >= r.capacity {
			return
		}
		h = &history{}
		r.records[frame] = h
	}

	if len(h.timestamps) == r.k {
		h.timestamps = h.timestamps[1:]
	}
	h.timestamps = append(h.timestamps, r.clock)
	r.clock++
}

// SetEvictable toggles whether frame may be chosen as a victim, adjusting
// Size() accordingly. It is a no-op for frames with no recorded access.
func (r *LRUK) SetEvictable(frame common.FrameID, evictable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.records[frame]
	if !ok {
		return
	}
	if h.evictable == evictable {
		return
	}
	h.evictable = evictable
	if evictable {
		r.evictable++
	} else {
		r.evictable--
	}
}

// more reports whether candidate c should be evicted before incumbent i:
// infinite-distance frames (fewer than k accesses) win over finite ones, and
// among infinite-distance frames the one with the earliest first access
// wins. Among finite-distance frames, the smaller (older) k-th-most-recent
// timestamp wins.
func (r *LRUK) more(c, i common.FrameID) bool {
	ch, ih := r.records[c], r.records[i]
	cKth, cFinite := ch.kthMostRecent(r.k)
	iKth, iFinite := ih.kthMostRecent(r.k)

	if !cFinite && iFinite {
		return true
	}
	if cFinite && !iFinite {
		return false
	}
	if !cFinite && !iFinite {
		return ch.earliest() < ih.earliest()
	}
	return cKth < iKth
}

// Evict selects and removes the frame with the largest backward k-distance
// among evictable frames. It reports false if no frame is evictable.
func (r *LRUK) Evict() (common.FrameID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var victim common.FrameID
	found := false
	for frame, h := range r.records {
		if !h.evictable {
			continue
		}
		if !found || r.more(frame, victim) {
			victim = frame
			found = true
		}
	}
	if !found {
		return 0, false
	}
	delete(r.records, victim)
	r.evictable--
	return victim, true
}

// Remove forcibly forgets frame. It panics if frame is tracked but not
// evictable — that is a caller precondition violation, not an expected
// outcome. Removing an untracked frame is a no-op.
func (r *LRUK) Remove(frame common.FrameID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.records[frame]
	if !ok {
		return
	}
	if !h.evictable {
		panic("replacer: Remove called on a non-evictable frame")
	}
	delete(r.records, frame)
	r.evictable--
}

// Size returns the number of frames currently marked evictable.
func (r *LRUK) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.evictable
}
