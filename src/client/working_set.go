package client

import (
	"sort"

	"facility-observer/src/models"
)

// -----------------------------------------------------------------------------
// WorkingSet
// -----------------------------------------------------------------------------

// WorkingSet is the client-side reconciliation buffer: an ordered,
// deduplicated sequence of readings bounded to the active time window.
// Fast membership needs an id set, ordered iteration needs a sorted slice,
// so it keeps both rather than forcing one structure to serve both needs.
//
// Invariants: no two entries share an id; entries ascend by (ts, id);
// every entry's timestamp lies inside the window the owner maintains.
type WorkingSet struct {
	ordered []models.MReading
	present map[int64]struct{}
}

// -----------------------------------------------------------------------------

func NewWorkingSet() *WorkingSet {
	return &WorkingSet{
		present: make(map[int64]struct{}),
	}
}

// -----------------------------------------------------------------------------

// Merge inserts readings absent from the set and silently drops duplicates
// by id, which makes merging idempotent under retried or overlapping
// fetches. Returns the number of readings actually inserted.
func (ws *WorkingSet) Merge(readings []models.MReading) int {
	added := 0
	for _, r := range readings {
		if _, ok := ws.present[r.ID]; ok {
			continue
		}
		ws.insert(r)
		added++
	}
	return added
}

// -----------------------------------------------------------------------------

// insert places r at its (ts, id) position, keeping the slice ordered.
func (ws *WorkingSet) insert(r models.MReading) {
	idx := sort.Search(len(ws.ordered), func(i int) bool {
		e := ws.ordered[i]
		return e.Timestamp > r.Timestamp || (e.Timestamp == r.Timestamp && e.ID > r.ID)
	})

	ws.ordered = append(ws.ordered, models.MReading{})
	copy(ws.ordered[idx+1:], ws.ordered[idx:])
	ws.ordered[idx] = r
	ws.present[r.ID] = struct{}{}
}

// -----------------------------------------------------------------------------

// TrimBefore evicts entries older than windowStart, bounding memory to the
// active window no matter how long the session has run. Returns the number
// of evicted entries.
func (ws *WorkingSet) TrimBefore(windowStart int64) int {
	idx := sort.Search(len(ws.ordered), func(i int) bool {
		return ws.ordered[i].Timestamp >= windowStart
	})
	if idx == 0 {
		return 0
	}

	for _, r := range ws.ordered[:idx] {
		delete(ws.present, r.ID)
	}
	ws.ordered = append(ws.ordered[:0], ws.ordered[idx:]...)
	return idx
}

// -----------------------------------------------------------------------------

// Readings returns the ordered entries. The slice is shared; callers must
// not mutate it.
func (ws *WorkingSet) Readings() []models.MReading {
	return ws.ordered
}

// -----------------------------------------------------------------------------

// Size returns the number of entries.
func (ws *WorkingSet) Size() int {
	return len(ws.ordered)
}

// -----------------------------------------------------------------------------

// Contains reports id membership.
func (ws *WorkingSet) Contains(id int64) bool {
	_, ok := ws.present[id]
	return ok
}

// -----------------------------------------------------------------------------

// Reset drops all entries.
func (ws *WorkingSet) Reset() {
	ws.ordered = nil
	ws.present = make(map[int64]struct{})
}
