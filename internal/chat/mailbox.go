package chat

import (
	"container/heap"
	"sync"
	"time"
)

// PriorityUrgent marks private messages, which jump the queue ahead of
// normal-priority entries.
const PriorityUrgent = 1

// MailboxEntry is one undelivered message awaiting its recipient's next
// authentication.
type MailboxEntry struct {
	Recipient  string
	Body       string
	EnqueuedAt time.Time
	Priority   int

	seq uint64 // FIFO tiebreaker within a priority
}

// Mailbox is a global bounded priority queue of offline messages. Higher
// priorities dequeue first; entries of equal priority dequeue in enqueue
// order. Enqueue fails when the mailbox is full.
type Mailbox struct {
	mu       sync.Mutex
	capacity int
	entries  entryHeap
	nextSeq  uint64
}

// NewMailbox creates a mailbox holding at most capacity entries.
func NewMailbox(capacity int) *Mailbox {
	return &Mailbox{capacity: capacity}
}

// Enqueue stores a message for recipient. Returns ErrMailboxFull when the
// global capacity is reached; the message is dropped in that case.
func (m *Mailbox) Enqueue(recipient, body string, priority int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries) >= m.capacity {
		return ErrMailboxFull
	}

	m.nextSeq++
	heap.Push(&m.entries, MailboxEntry{
		Recipient:  recipient,
		Body:       body,
		EnqueuedAt: time.Now(),
		Priority:   priority,
		seq:        m.nextSeq,
	})
	return nil
}

// DrainFor atomically removes and returns every entry addressed to
// recipient, in priority order. Entries for other recipients are preserved.
func (m *Mailbox) DrainFor(recipient string) []MailboxEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []MailboxEntry
	var kept entryHeap
	for m.entries.Len() > 0 {
		e := heap.Pop(&m.entries).(MailboxEntry)
		if e.Recipient == recipient {
			matched = append(matched, e)
		} else {
			kept = append(kept, e)
		}
	}
	heap.Init(&kept)
	m.entries = kept
	return matched
}

// Len returns the number of stored entries.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// entryHeap is a max-heap on priority with FIFO order within a priority.
type entryHeap []MailboxEntry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority > h[j].Priority
	}
	return h[i].seq < h[j].seq
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) { *h = append(*h, x.(MailboxEntry)) }

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}
