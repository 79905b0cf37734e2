package logvault

import (
	"fmt"
	"sync"
	"testing"
)

func TestEventQueueFIFO(t *testing.T) {
	q := newEventQueue(10, DropNewest)

	for i := 0; i < 5; i++ {
		q.Push(Event{RenderedMessage: fmt.Sprintf("msg-%d", i)})
	}

	batch := q.Drain(3)
	if len(batch) != 3 {
		t.Fatalf("drained %d events, want 3", len(batch))
	}
	for i, e := range batch {
		want := fmt.Sprintf("msg-%d", i)
		if e.RenderedMessage != want {
			t.Errorf("batch[%d] = %q, want %q", i, e.RenderedMessage, want)
		}
	}

	rest := q.Drain(0)
	if len(rest) != 2 {
		t.Fatalf("drained %d remaining events, want 2", len(rest))
	}
	if rest[0].RenderedMessage != "msg-3" || rest[1].RenderedMessage != "msg-4" {
		t.Errorf("remaining events out of order: %q, %q", rest[0].RenderedMessage, rest[1].RenderedMessage)
	}

	if got := q.Drain(10); got != nil {
		t.Errorf("drain of empty queue returned %d events", len(got))
	}
}

func TestEventQueueDropNewest(t *testing.T) {
	q := newEventQueue(3, DropNewest)

	for i := 0; i < 5; i++ {
		q.Push(Event{RenderedMessage: fmt.Sprintf("msg-%d", i)})
	}

	if got := q.Dropped(); got != 2 {
		t.Errorf("dropped = %d, want 2", got)
	}

	batch := q.Drain(0)
	if len(batch) != 3 {
		t.Fatalf("drained %d events, want 3", len(batch))
	}
	// The incoming events were dropped; the oldest three survive.
	if batch[0].RenderedMessage != "msg-0" || batch[2].RenderedMessage != "msg-2" {
		t.Errorf("unexpected survivors: %q .. %q", batch[0].RenderedMessage, batch[2].RenderedMessage)
	}
}

func TestEventQueueDropOldest(t *testing.T) {
	q := newEventQueue(3, DropOldest)

	for i := 0; i < 5; i++ {
		q.Push(Event{RenderedMessage: fmt.Sprintf("msg-%d", i)})
	}

	if got := q.Dropped(); got != 2 {
		t.Errorf("dropped = %d, want 2", got)
	}

	batch := q.Drain(0)
	if len(batch) != 3 {
		t.Fatalf("drained %d events, want 3", len(batch))
	}
	// The oldest events were evicted; the newest three survive.
	if batch[0].RenderedMessage != "msg-2" || batch[2].RenderedMessage != "msg-4" {
		t.Errorf("unexpected survivors: %q .. %q", batch[0].RenderedMessage, batch[2].RenderedMessage)
	}
}

// Concurrent pushes interleaved with drains must not corrupt the count:
// accepted events either come out of Drain or are still queued.
func TestEventQueueConcurrentPush(t *testing.T) {
	const producers = 8
	const perProducer = 1000

	q := newEventQueue(producers*perProducer, DropNewest)

	var drained int
	var drainMu sync.Mutex
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			batch := q.Drain(64)
			drainMu.Lock()
			drained += len(batch)
			drainMu.Unlock()
		}
	}()

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(Event{RenderedMessage: fmt.Sprintf("p%d-%d", p, i)})
			}
		}(p)
	}
	wg.Wait()
	<-done

	total := drained + q.Len() + int(q.Dropped())
	if total != producers*perProducer {
		t.Errorf("drained+queued+dropped = %d, want %d", total, producers*perProducer)
	}
	if q.Dropped() != 0 {
		t.Errorf("dropped = %d events despite sufficient capacity", q.Dropped())
	}
}
