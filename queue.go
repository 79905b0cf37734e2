package logvault

import "sync"

// DropPolicy selects which event is discarded when the queue is full.
type DropPolicy int

const (
	// DropNewest discards the incoming event.
	DropNewest DropPolicy = iota
	// DropOldest discards the oldest pending event to make room.
	DropOldest
)

// eventQueue is a bounded FIFO of pending events. Push never blocks and
// never fails; overflow is resolved by the drop policy and counted.
type eventQueue struct {
	mu       sync.Mutex
	events   []Event
	capacity int
	policy   DropPolicy
	dropped  uint64
}

func newEventQueue(capacity int, policy DropPolicy) *eventQueue {
	if capacity <= 0 {
		capacity = DefaultMaxBufferSize
	}
	return &eventQueue{
		events:   make([]Event, 0, min(capacity, 1024)),
		capacity: capacity,
		policy:   policy,
	}
}

// Push appends an event and reports whether it was accepted. A full queue
// drops either the incoming or the oldest event per the policy; either way
// the drop counter advances.
func (q *eventQueue) Push(e Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) >= q.capacity {
		q.dropped++
		if q.policy == DropNewest {
			return false
		}
		n := copy(q.events, q.events[1:])
		q.events = q.events[:n]
	}
	q.events = append(q.events, e)
	return true
}

// Drain atomically removes and returns up to max pending events in FIFO
// order. It returns nil when nothing is pending. max <= 0 drains everything.
func (q *eventQueue) Drain(max int) []Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.events)
	if n == 0 {
		return nil
	}
	if max > 0 && n > max {
		n = max
	}
	out := make([]Event, n)
	copy(out, q.events)
	rest := copy(q.events, q.events[n:])
	q.events = q.events[:rest]
	return out
}

func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Dropped returns the number of events discarded due to overflow.
func (q *eventQueue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
