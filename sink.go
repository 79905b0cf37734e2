package logvault

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Sink is the durable, batched log-event sink. Open one with [Open] and
// close it with [Close]. Emit is safe for concurrent use from any number of
// producers and never blocks or returns an error; every failure past Open is
// terminal for that batch or sweep and reported through the diagnostics
// logger only.
type Sink struct {
	cfg    Config
	logger *slog.Logger

	queue *eventQueue
	store *Store
	arch  *archiver

	notifyCh  chan struct{}
	closeCh   chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	// flushMu serializes flush cycles so batch N commits (or is discarded)
	// before batch N+1 is drained.
	flushMu sync.Mutex

	closed           atomic.Bool
	emitted          atomic.Uint64
	persisted        atomic.Uint64
	discardedBatches atomic.Uint64
	discardedEvents  atomic.Uint64
	rollovers        atomic.Uint64
	retentionDeleted atomic.Uint64
}

// Open validates the configuration, opens the store file, and starts the
// background flush worker (plus the retention sweeper when a retention
// period is configured). Invalid configuration fails here, before any file
// I/O.
func Open(cfg Config) (*Sink, error) {
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	arch, err := newArchiver(cfg)
	if err != nil {
		return nil, err
	}

	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	s := &Sink{
		cfg:      cfg,
		logger:   cfg.Logger,
		queue:    newEventQueue(cfg.Batching.MaxBufferSize, cfg.Batching.DropPolicy),
		store:    store,
		arch:     arch,
		notifyCh: make(chan struct{}, 1),
		closeCh:  make(chan struct{}),
	}

	s.wg.Add(1)
	go s.flushLoop()

	if cfg.Retention.Period > 0 {
		s.wg.Add(1)
		go s.retentionLoop()
	}

	return s, nil
}

// Emit hands one event to the sink. It never blocks and never fails: a full
// queue drops per the configured policy, a closed sink drops silently. A
// zero timestamp is replaced with the current time.
func (s *Sink) Emit(e Event) {
	if s.closed.Load() {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	s.emitted.Add(1)
	s.queue.Push(e)

	if s.queue.Len() >= s.cfg.Batching.BatchSize {
		select {
		case s.notifyCh <- struct{}{}:
		default:
		}
	}
}

// flushLoop is the only writer. It drains the queue when the batch-size
// signal arrives or the flush interval elapses, whichever first, and runs a
// final bounded flush on shutdown.
func (s *Sink) flushLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.Batching.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.closeCh:
			s.finalFlush()
			return
		case <-ticker.C:
			s.flushPending(context.Background())
		case <-s.notifyCh:
			s.flushPending(context.Background())
		}
	}
}

// flushPending drains and writes full batches until the queue falls below
// one batch. Drain and write happen under flushMu so insertion order matches
// dequeue order across cycles.
func (s *Sink) flushPending(ctx context.Context) {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	for {
		batch := s.queue.Drain(s.cfg.Batching.BatchSize)
		if len(batch) == 0 {
			return
		}
		s.writeBatch(ctx, batch)
		if len(batch) < s.cfg.Batching.BatchSize {
			return
		}
	}
}

// finalFlush is the best-effort drain on shutdown, bounded by
// ShutdownTimeout. Whatever remains queued when the bound expires is
// discarded and counted.
func (s *Sink) finalFlush() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Batching.ShutdownTimeout)
	defer cancel()

	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	for {
		batch := s.queue.Drain(s.cfg.Batching.BatchSize)
		if len(batch) == 0 {
			return
		}
		if ctx.Err() != nil {
			remaining := uint64(len(batch)) + uint64(s.queue.Len())
			s.discardedEvents.Add(remaining)
			s.logger.Warn("shutdown flush timed out, discarding queued events", "count", remaining)
			return
		}
		s.writeBatch(ctx, batch)
	}
}

// writeBatch commits one batch and dispatches on the discriminated outcome.
// A generic failure discards the batch after logging; there is no automatic
// retry of the same batch. A full store is handed to the capacity path.
func (s *Sink) writeBatch(ctx context.Context, batch []Event) {
	res := s.store.WriteBatch(ctx, batch)
	switch res.Status {
	case WriteOK:
		s.persisted.Add(uint64(len(batch)))
	case WriteFull:
		s.handleFull(ctx, batch, res)
	case WriteFailed:
		s.discardBatch(batch, "batch write failed", res.Err)
	}
}

// handleFull implements the capacity policy for a store that hit its size
// cap. With rollover disabled the batch is discarded and reported handled,
// so a permanently full store cannot trigger a retry storm. With rollover
// enabled the store file is archived, the live table truncated, and the
// batch retried exactly once; a second failure of any kind discards it.
func (s *Sink) handleFull(ctx context.Context, batch []Event, res WriteResult) {
	if !s.cfg.Storage.RolloverEnabled {
		s.discardBatch(batch, "store is full and rollover is disabled", res.Err)
		return
	}

	var archivePath string
	err := s.store.Rollover(ctx, func(path string) error {
		p, err := s.arch.Archive(path)
		archivePath = p
		return err
	})
	if err != nil {
		s.discardBatch(batch, "rollover failed", err)
		return
	}

	s.rollovers.Add(1)
	s.logger.Info("store rolled over", "archive", archivePath)
	go s.arch.Ship(context.Background(), archivePath)

	retry := s.store.WriteBatch(ctx, batch)
	if retry.Status != WriteOK {
		s.discardBatch(batch, "batch write failed after rollover", retry.Err)
		return
	}
	s.persisted.Add(uint64(len(batch)))
}

func (s *Sink) discardBatch(batch []Event, reason string, err error) {
	s.discardedBatches.Add(1)
	s.discardedEvents.Add(uint64(len(batch)))
	s.logger.Error("discarding batch", "reason", reason, "count", len(batch), "err", err)
}

// Flush synchronously drains the queue and writes everything pending. It is
// intended for embedding scenarios and tests; the background worker makes
// routine calls unnecessary.
func (s *Sink) Flush() error {
	if s.closed.Load() {
		return ErrClosed
	}

	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	for {
		batch := s.queue.Drain(s.cfg.Batching.BatchSize)
		if len(batch) == 0 {
			return nil
		}
		s.writeBatch(context.Background(), batch)
	}
}

// Close stops accepting events, signals the background workers, performs the
// bounded final flush, and releases the store. In-flight transactions finish
// before teardown; Close is idempotent.
func (s *Sink) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.closeCh)
		s.wg.Wait()
		err = s.store.Close()
	})
	return err
}

// Stats is a snapshot of the sink's self-diagnostic counters.
type Stats struct {
	// Emitted counts events handed to Emit.
	Emitted uint64
	// Persisted counts events committed to the store.
	Persisted uint64
	// QueueDepth is the number of events currently queued.
	QueueDepth int
	// QueueDropped counts events dropped on queue overflow.
	QueueDropped uint64
	// DiscardedBatches counts batches dropped on write failure or capacity.
	DiscardedBatches uint64
	// DiscardedEvents counts events lost in discarded batches and shutdown.
	DiscardedEvents uint64
	// Rollovers counts completed store rollovers.
	Rollovers uint64
	// RetentionDeleted counts entries removed by retention sweeps.
	RetentionDeleted uint64
}

// Stats returns current counter values.
func (s *Sink) Stats() Stats {
	return Stats{
		Emitted:          s.emitted.Load(),
		Persisted:        s.persisted.Load(),
		QueueDepth:       s.queue.Len(),
		QueueDropped:     s.queue.Dropped(),
		DiscardedBatches: s.discardedBatches.Load(),
		DiscardedEvents:  s.discardedEvents.Load(),
		Rollovers:        s.rollovers.Load(),
		RetentionDeleted: s.retentionDeleted.Load(),
	}
}
