// Package rank holds the bounded top-N tracker the engine folds scored
// sites into. Memory stays O(N) regardless of how many sites are scored,
// and nothing is sorted until the final view is requested.
package rank

import (
	"container/heap"
	"sort"

	"github.com/terrasift/terrasift/internal/site"
)

// Entry is one scored site.
type Entry struct {
	SiteID site.ID `json:"site_id"`
	Score  float64 `json:"score"`
}

// better orders entries: higher score wins, ties go to the lower site id
// so results are deterministic.
func better(a, b Entry) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.SiteID < b.SiteID
}

// Tracker retains the best N entries seen. It is not safe for concurrent
// use; workers own private trackers and merge them at the end of a run.
type Tracker struct {
	limit   int
	entries minHeap
}

// NewTracker creates a tracker bounded to limit entries. A non-positive
// limit keeps nothing.
func NewTracker(limit int) *Tracker {
	return &Tracker{limit: limit}
}

// Offer inserts the entry if the tracker has room or the entry beats the
// current worst. Each call is O(log N); no full sort happens per insert.
func (t *Tracker) Offer(e Entry) {
	if t.limit <= 0 {
		return
	}
	if t.entries.Len() < t.limit {
		heap.Push(&t.entries, e)
		return
	}
	if better(e, t.entries[0]) {
		t.entries[0] = e
		heap.Fix(&t.entries, 0)
	}
}

// Merge folds another tracker's entries into this one.
func (t *Tracker) Merge(other *Tracker) {
	for _, e := range other.entries {
		t.Offer(e)
	}
}

// Len is the number of entries currently held.
func (t *Tracker) Len() int {
	return t.entries.Len()
}

// Sorted returns the held entries ordered best first. The tracker is left
// intact; sorting happens only here, once evaluation completes.
func (t *Tracker) Sorted() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	sort.Slice(out, func(i, j int) bool { return better(out[i], out[j]) })
	return out
}

// minHeap keeps the worst retained entry at the root so Offer can evict in
// O(log N).
type minHeap []Entry

func (h minHeap) Len() int            { return len(h) }
func (h minHeap) Less(i, j int) bool  { return better(h[j], h[i]) }
func (h minHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x interface{}) { *h = append(*h, x.(Entry)) }
func (h *minHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}
