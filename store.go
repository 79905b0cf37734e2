package logvault

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Store owns the SQLite connection, the log table schema, and all statements
// executed against the store file. A single mutex serializes every store
// access: at most one of {batch write, retention delete, rollover} runs at
// any instant. The pool is pinned to one connection so per-connection
// pragmas (page budget, busy timeout) cover every statement.
type Store struct {
	db     *sql.DB
	path   string
	table  string
	utc    bool
	logger *slog.Logger

	mu     sync.Mutex
	closed bool

	insertStmt *sql.Stmt
}

// openStore opens (creating if needed) the store file, applies the engine
// pragmas, and ensures the log table exists.
func openStore(cfg Config) (*Store, error) {
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	// One connection: max_page_count and busy_timeout are per-connection
	// settings, and the store is serialized by s.mu anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{
		db:     db,
		path:   cfg.Path,
		table:  cfg.Storage.TableName,
		utc:    cfg.Storage.TimestampsInUTC,
		logger: cfg.Logger,
	}

	maxPages := cfg.Storage.MaxSizeMB * 1024 * 1024 / storePageSize
	pragmas := []string{
		fmt.Sprintf("PRAGMA page_size = %d", storePageSize),
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.Storage.BusyTimeout.Milliseconds()),
		fmt.Sprintf("PRAGMA max_page_count = %d", maxPages),
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	if err := s.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	s.insertStmt, err = db.Prepare(fmt.Sprintf(
		`INSERT INTO %q (Timestamp, Level, Exception, RenderedMessage, Properties) VALUES (?, ?, ?, ?, ?)`,
		s.table))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare insert statement: %w", err)
	}

	return s, nil
}

// EnsureSchema creates the log table and its timestamp index if they do not
// already exist. It is idempotent and safe to call on every start.
func (s *Store) EnsureSchema(ctx context.Context) error {
	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %q (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			Timestamp TEXT,
			Level VARCHAR(10),
			Exception TEXT,
			RenderedMessage TEXT,
			Properties TEXT
		);
		CREATE INDEX IF NOT EXISTS %q ON %q(Timestamp);
	`, s.table, "idx_"+s.table+"_timestamp", s.table)

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	s.logger.Debug("log table schema ensured", "table", s.table, "path", s.path)
	return nil
}

// WriteBatch inserts every event of the batch, in order, in one transaction.
// The outcome is discriminated: WriteOK committed everything, WriteFull and
// WriteFailed committed nothing. A batch is never split.
func (s *Store) WriteBatch(ctx context.Context, batch []Event) WriteResult {
	if len(batch) == 0 {
		return WriteResult{Status: WriteOK}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return WriteResult{Status: WriteFailed, Err: ErrClosed}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.classify(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	stmt := tx.StmtContext(ctx, s.insertStmt)
	for _, e := range batch {
		_, err := stmt.ExecContext(ctx,
			e.timestampText(s.utc), e.Level, e.Exception, e.RenderedMessage, e.Properties)
		if err != nil {
			return s.classify(fmt.Errorf("failed to insert event: %w", err))
		}
	}

	if err := tx.Commit(); err != nil {
		return s.classify(fmt.Errorf("failed to commit batch: %w", err))
	}
	return WriteResult{Status: WriteOK}
}

// classify maps an engine error onto the discriminated write result.
func (s *Store) classify(err error) WriteResult {
	if isStoreFull(err) {
		return WriteResult{Status: WriteFull, Err: fmt.Errorf("%w: %v", ErrStoreFull, err)}
	}
	return WriteResult{Status: WriteFailed, Err: err}
}

// isStoreFull reports whether err carries the engine's SQLITE_FULL code.
func isStoreFull(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code()&0xff == sqlite3.SQLITE_FULL
	}
	return strings.Contains(err.Error(), "database or disk is full")
}

// DeleteOlderThan removes every entry with a timestamp older than cutoff in
// one statement and returns the number of rows deleted. The cutoff is
// rendered in the stored timestamp layout so the comparison is textual.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}

	text := Event{Timestamp: cutoff}.timestampText(s.utc)
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %q WHERE Timestamp < ?`, s.table), text)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Rollover archives the live store file and truncates the log table. The
// archive callback receives the store path while the store lock is held and
// no transaction is active; the WAL is checkpointed first so the main file
// is complete and consistent when copied.
func (s *Store) Rollover(ctx context.Context, archive func(path string) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("failed to checkpoint before rollover: %w", err)
	}
	if err := archive(s.path); err != nil {
		return fmt.Errorf("failed to archive store: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %q`, s.table)); err != nil {
		return fmt.Errorf("failed to truncate log table: %w", err)
	}
	return nil
}

// Count returns the number of rows in the log table.
func (s *Store) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}

	var n int64
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %q`, s.table)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return n, nil
}

// SizeBytes returns the current store file size as seen by the engine.
func (s *Store) SizeBytes(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}

	var size int64
	err := s.db.QueryRowContext(ctx,
		`SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()`).Scan(&size)
	if err != nil {
		return 0, fmt.Errorf("failed to read store size: %w", err)
	}
	return size, nil
}

// Close releases the prepared statement and the connection. Any operation
// holding the lock finishes first; nothing in flight is aborted.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.insertStmt != nil {
		s.insertStmt.Close()
	}
	return s.db.Close()
}
