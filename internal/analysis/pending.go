package analysis

import "time"

// pendingTable maps the correlation key of an outstanding request to the time it was seen.
// Each key holds at most one request; a response consumes it.
type pendingTable[K comparable] struct {
	entries  map[K]time.Time
	replaced int
}

func newPendingTable[K comparable]() *pendingTable[K] {
	return &pendingTable[K]{entries: make(map[K]time.Time)}
}

// Put records a request, overwriting any earlier request with the same key.
func (t *pendingTable[K]) Put(key K, ts time.Time) {
	if _, exists := t.entries[key]; exists {
		t.replaced++
	}
	t.entries[key] = ts
}

// Take removes and returns the request stored under key.
func (t *pendingTable[K]) Take(key K) (time.Time, bool) {
	ts, ok := t.entries[key]
	if ok {
		delete(t.entries, key)
	}
	return ts, ok
}

func (t *pendingTable[K]) Len() int {
	return len(t.entries)
}

// Replaced returns how many requests were overwritten before being answered.
func (t *pendingTable[K]) Replaced() int {
	return t.replaced
}
