package otel

import (
	"sync"
	"time"
)

// DefaultRingSize covers a long session: sync and rank events arrive a few per minute.
const DefaultRingSize = 256

// RingBuffer keeps the most recent events for the UI event pane.
// Safe for concurrent use.
type RingBuffer struct {
	mu     sync.Mutex
	events []Event // len == capacity once full
	next   int     // slot the next Push overwrites once full
	limit  int
}

// NewRingBuffer creates a buffer holding up to size events.
// A non-positive size uses DefaultRingSize.
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &RingBuffer{events: make([]Event, 0, size), limit: size}
}

// Push stores e, evicting the oldest event when full.
func (r *RingBuffer) Push(e Event) {
	e = e.clone()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) < r.limit {
		r.events = append(r.events, e)
		return
	}
	r.events[r.next] = e
	r.next = (r.next + 1) % r.limit
}

// at returns the i-th oldest event. Callers hold mu.
func (r *RingBuffer) at(i int) Event {
	if len(r.events) < r.limit {
		return r.events[i]
	}
	return r.events[(r.next+i)%r.limit]
}

// tail copies the newest n events, oldest first. Callers hold mu.
func (r *RingBuffer) tail(n int) []Event {
	if n > len(r.events) {
		n = len(r.events)
	}
	if n <= 0 {
		return nil
	}
	out := make([]Event, n)
	skip := len(r.events) - n
	for i := range out {
		out[i] = r.at(skip + i)
	}
	return out
}

// Snapshot returns every buffered event, oldest first, or nil when empty.
func (r *RingBuffer) Snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tail(len(r.events))
}

// Last returns up to n of the newest events, oldest first.
func (r *RingBuffer) Last(n int) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tail(n)
}

// Since returns the buffered events at or after t, oldest first.
func (r *RingBuffer) Since(t time.Time) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for i := 0; i < len(r.events); i++ {
		if e := r.at(i); !e.Time.Before(t) {
			out = append(out, e)
		}
	}
	return out
}

// Len is the number of buffered events.
func (r *RingBuffer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Cap is the maximum number of buffered events.
func (r *RingBuffer) Cap() int { return r.limit }

// LastOfKind returns the newest event of kind.
func (r *RingBuffer) LastOfKind(kind EventKind) (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if e := r.at(i); e.Kind == kind {
			return e, true
		}
	}
	return Event{}, false
}

// Stats counts buffered events per kind.
func (r *RingBuffer) Stats() map[EventKind]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[EventKind]int)
	for _, e := range r.events {
		counts[e.Kind]++
	}
	return counts
}
