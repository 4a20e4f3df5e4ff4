package chat

import "sync"

// RecentRing is a bounded circular buffer of the most recent broadcast
// lines. Appends overwrite the oldest entry once the ring is full.
type RecentRing struct {
	mu      sync.Mutex
	entries []string
	next    int // write cursor
	count   int // population, saturates at capacity
}

// NewRecentRing creates a ring holding at most capacity lines.
func NewRecentRing(capacity int) *RecentRing {
	return &RecentRing{entries: make([]string, capacity)}
}

// Append stores line, evicting the oldest entry when full.
func (r *RecentRing) Append(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[r.next] = line
	r.next = (r.next + 1) % len(r.entries)
	if r.count < len(r.entries) {
		r.count++
	}
}

// Snapshot returns the stored lines oldest-first.
func (r *RecentRing) Snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, r.count)
	start := (r.next - r.count + len(r.entries)) % len(r.entries)
	for i := 0; i < r.count; i++ {
		out = append(out, r.entries[(start+i)%len(r.entries)])
	}
	return out
}

// Len returns the current population.
func (r *RecentRing) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}
