package watcher

import (
	"sync"

	"github.com/huandu/skiplist"
)

// BoundaryKind identifies which edge of a glide window a boundary marks.
type BoundaryKind int

const (
	BoundaryGlideStart BoundaryKind = iota
	BoundaryGlideEnd
)

// String returns a human-readable boundary kind
func (k BoundaryKind) String() string {
	switch k {
	case BoundaryGlideStart:
		return "glide_start"
	case BoundaryGlideEnd:
		return "glide_end"
	default:
		return "unknown"
	}
}

// GlideBoundary is a scheduled wakeup: at Time the pool's weight glide
// either begins or finishes. Generation ties the boundary to the schedule
// revision that produced it, so a reschedule invalidates stale entries
// without touching the timeline.
type GlideBoundary struct {
	PoolID     string
	Kind       BoundaryKind
	Time       int64
	Generation uint64
}

// BoundarySlot holds every boundary due at one timestamp, in FIFO order
type BoundarySlot struct {
	Time       int64
	Boundaries []*GlideBoundary
}

// NewBoundarySlot creates an empty slot for the given timestamp
func NewBoundarySlot(t int64) *BoundarySlot {
	return &BoundarySlot{
		Time:       t,
		Boundaries: make([]*GlideBoundary, 0),
	}
}

// AddBoundary appends a boundary to the slot (FIFO)
func (s *BoundarySlot) AddBoundary(b *GlideBoundary) {
	s.Boundaries = append(s.Boundaries, b)
}

// RemoveBoundary removes the boundary for a pool and kind from the slot
func (s *BoundarySlot) RemoveBoundary(poolID string, kind BoundaryKind) *GlideBoundary {
	for i, b := range s.Boundaries {
		if b.PoolID == poolID && b.Kind == kind {
			s.Boundaries = append(s.Boundaries[:i], s.Boundaries[i+1:]...)
			return b
		}
	}
	return nil
}

// IsEmpty returns true if no boundaries remain in this slot
func (s *BoundarySlot) IsEmpty() bool {
	return len(s.Boundaries) == 0
}

// FirstBoundary returns the first (oldest) boundary at this slot
func (s *BoundarySlot) FirstBoundary() *GlideBoundary {
	if len(s.Boundaries) == 0 {
		return nil
	}
	return s.Boundaries[0]
}

// GlideTimeline is the time-ordered boundary index backing the watcher.
// A skip list keyed by unix time gives O(log n) insertion and O(1) access
// to the next due boundary.
type GlideTimeline struct {
	slots *skiplist.SkipList // Ascending by boundary time (soonest first)
	mu    sync.RWMutex
}

// NewGlideTimeline creates an empty timeline
func NewGlideTimeline() *GlideTimeline {
	return &GlideTimeline{
		slots: skiplist.New(skiplist.Int64),
	}
}

// Add inserts a boundary into the timeline - O(log n)
func (tl *GlideTimeline) Add(b *GlideBoundary) {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	elem := tl.slots.Get(b.Time)
	var slot *BoundarySlot
	if elem != nil {
		slot = elem.Value.(*BoundarySlot)
	} else {
		slot = NewBoundarySlot(b.Time)
		tl.slots.Set(b.Time, slot)
	}

	slot.AddBoundary(b)
}

// Remove removes the boundary for a pool and kind at a timestamp - O(log n)
func (tl *GlideTimeline) Remove(t int64, poolID string, kind BoundaryKind) *GlideBoundary {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	elem := tl.slots.Get(t)
	if elem == nil {
		return nil
	}

	slot := elem.Value.(*BoundarySlot)
	removed := slot.RemoveBoundary(poolID, kind)

	// Remove empty slot
	if slot.IsEmpty() {
		tl.slots.Remove(t)
	}

	return removed
}

// PopDue removes and returns every boundary at or before now, soonest first
func (tl *GlideTimeline) PopDue(now int64) []*GlideBoundary {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	due := make([]*GlideBoundary, 0)
	for {
		front := tl.slots.Front()
		if front == nil {
			break
		}
		t := front.Key().(int64)
		if t > now {
			break
		}
		slot := front.Value.(*BoundarySlot)
		due = append(due, slot.Boundaries...)
		tl.slots.Remove(t)
	}
	return due
}

// Next returns the soonest pending boundary without removing it - O(1)
func (tl *GlideTimeline) Next() *GlideBoundary {
	tl.mu.RLock()
	defer tl.mu.RUnlock()

	front := tl.slots.Front()
	if front == nil {
		return nil
	}
	return front.Value.(*BoundarySlot).FirstBoundary()
}

// Len returns the total number of pending boundaries
func (tl *GlideTimeline) Len() int {
	tl.mu.RLock()
	defer tl.mu.RUnlock()

	total := 0
	elem := tl.slots.Front()
	for elem != nil {
		total += len(elem.Value.(*BoundarySlot).Boundaries)
		elem = elem.Next()
	}
	return total
}

// SlotCount returns the number of distinct boundary timestamps
func (tl *GlideTimeline) SlotCount() int {
	tl.mu.RLock()
	defer tl.mu.RUnlock()
	return tl.slots.Len()
}

// Upcoming returns up to n pending boundaries in time order
func (tl *GlideTimeline) Upcoming(n int) []*GlideBoundary {
	tl.mu.RLock()
	defer tl.mu.RUnlock()

	boundaries := make([]*GlideBoundary, 0, n)
	elem := tl.slots.Front()
	for elem != nil && len(boundaries) < n {
		slot := elem.Value.(*BoundarySlot)
		for _, b := range slot.Boundaries {
			boundaries = append(boundaries, b)
			if len(boundaries) >= n {
				break
			}
		}
		elem = elem.Next()
	}
	return boundaries
}

// Iterate walks all pending boundaries in time order until fn returns false
func (tl *GlideTimeline) Iterate(fn func(b *GlideBoundary) bool) {
	tl.mu.RLock()
	defer tl.mu.RUnlock()

	elem := tl.slots.Front()
	for elem != nil {
		slot := elem.Value.(*BoundarySlot)
		for _, b := range slot.Boundaries {
			if !fn(b) {
				return
			}
		}
		elem = elem.Next()
	}
}
