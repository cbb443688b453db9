package queue

import (
	"container/heap"
	"time"

	"github.com/google/uuid"
)

// Options control how an enqueued item is scheduled and retried.
type Options struct {
	// Priority orders eligible items; higher values are dequeued first.
	Priority int

	// Delay holds the item back from delivery for the given duration.
	Delay time.Duration

	// MaxAttempts bounds how often the item may be attempted before it is
	// terminally failed. Zero means the queue default applies.
	MaxAttempts int

	// BackoffBase is the delay before the first retry; it doubles on each
	// subsequent attempt. Zero means the queue default applies.
	BackoffBase time.Duration
}

// item is one unit of pending work inside the queue.
type item struct {
	jobID       uuid.UUID
	jobType     string
	payload     []byte
	priority    int
	attempts    int // attempts made so far, incremented when a lease starts
	maxAttempts int
	backoffBase time.Duration

	readyAt    time.Time // not eligible for delivery before this
	enqueuedAt time.Time
	seq        uint64 // insertion order, breaks priority ties FIFO
}

// nextBackoff returns the delay before the item's next attempt:
// base * 2^(attempts-1), so the first retry waits one base interval and
// each further retry doubles it.
func (it *item) nextBackoff() time.Duration {
	backoff := it.backoffBase
	for i := 1; i < it.attempts; i++ {
		backoff *= 2
	}
	return backoff
}

// Lease is a handle to an item that has been delivered to exactly one
// worker. The worker must settle it with Ack, Nack or Fail.
type Lease struct {
	it *item
}

// JobID returns the leased job's identity.
func (l *Lease) JobID() uuid.UUID { return l.it.jobID }

// JobType returns the leased job's type tag.
func (l *Lease) JobType() string { return l.it.jobType }

// Payload returns the leased job's opaque input payload.
func (l *Lease) Payload() []byte { return l.it.payload }

// Attempt returns the 1-based attempt number of this lease.
func (l *Lease) Attempt() int { return l.it.attempts }

// readyHeap orders eligible items by priority (higher first) and then by
// insertion order (FIFO) among equal priorities.
type readyHeap []*item

func (h readyHeap) Len() int { return len(h) }

func (h readyHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h readyHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *readyHeap) Push(x any) { *h = append(*h, x.(*item)) }

func (h *readyHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return it
}

// delayHeap orders not-yet-eligible items by the time they become ready.
type delayHeap []*item

func (h delayHeap) Len() int { return len(h) }

func (h delayHeap) Less(i, j int) bool { return h[i].readyAt.Before(h[j].readyAt) }

func (h delayHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *delayHeap) Push(x any) { *h = append(*h, x.(*item)) }

func (h *delayHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return it
}

var (
	_ heap.Interface = (*readyHeap)(nil)
	_ heap.Interface = (*delayHeap)(nil)
)
