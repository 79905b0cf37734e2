package logvault

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func TestSweepDeletesOnlyExpiredEntries(t *testing.T) {
	s := newTestSink(t, nil)
	now := time.Now()

	s.Emit(Event{Timestamp: now.Add(-2 * time.Hour), Level: "Information", RenderedMessage: "stale"})
	s.Emit(Event{Timestamp: now.Add(-10 * time.Minute), Level: "Information", RenderedMessage: "recent"})
	if err := s.Flush(); err != nil {
		t.Fatal(err)
	}

	s.sweep(time.Hour)

	msgs := readMessages(t, s.store)
	if len(msgs) != 1 || msgs[0] != "recent" {
		t.Errorf("surviving rows = %v, want [recent]", msgs)
	}
	if got := s.Stats().RetentionDeleted; got != 1 {
		t.Errorf("retention deleted = %d, want 1", got)
	}
}

func TestSweepFailureKeepsCounters(t *testing.T) {
	s := newTestSink(t, nil)
	s.store.Close()

	// Must log and return; the timer path keeps ticking after failures.
	s.sweep(time.Hour)

	if got := s.Stats().RetentionDeleted; got != 0 {
		t.Errorf("retention deleted = %d after failed sweep, want 0", got)
	}
}

// The first sweep fires immediately when the sink opens with a retention
// period, so entries already past the cutoff disappear without waiting for
// a tick.
func TestRetentionSweepOnOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ret.db")
	now := time.Now()

	writer := newTestStore(t, func(c *Config) { c.Path = path })
	res := writer.WriteBatch(context.Background(), []Event{
		{Timestamp: now.Add(-2 * time.Hour), Level: "Information", RenderedMessage: "stale"},
		{Timestamp: now.Add(-10 * time.Minute), Level: "Information", RenderedMessage: "recent"},
	})
	if res.Status != WriteOK {
		t.Fatalf("seed write failed: %v", res.Err)
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig(path)
	cfg.Logger = quietLogger()
	cfg.Batching.FlushInterval = time.Hour
	cfg.Retention.Period = time.Hour

	s, err := Open(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	waitFor(t, 5*time.Second, func() bool {
		return s.Stats().RetentionDeleted == 1
	}, "initial retention sweep")

	msgs := readMessages(t, s.store)
	if len(msgs) != 1 || msgs[0] != "recent" {
		t.Errorf("surviving rows = %v, want [recent]", msgs)
	}
}

func TestRetentionDisabledStartsNoSweeper(t *testing.T) {
	s := newTestSink(t, nil)
	now := time.Now()

	for i := 0; i < 3; i++ {
		s.Emit(Event{Timestamp: now.Add(-time.Duration(i) * 24 * time.Hour),
			RenderedMessage: fmt.Sprintf("day-%d", i)})
	}
	if err := s.Flush(); err != nil {
		t.Fatal(err)
	}

	// With Period zero nothing is ever deleted, however old.
	n, err := s.store.Count(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("count = %d, want 3", n)
	}
	if got := s.Stats().RetentionDeleted; got != 0 {
		t.Errorf("retention deleted = %d, want 0", got)
	}
}
