package logvault

import (
	"errors"
	"fmt"
)

// Common sentinel errors for the logvault package.
var (
	// ErrClosed is returned when operations are attempted on a closed sink
	// or store.
	ErrClosed = errors.New("sink is closed")

	// ErrStoreFull corresponds to the engine's SQLITE_FULL condition: the
	// store reached its configured page budget.
	ErrStoreFull = errors.New("store is full")

	// ErrSizeLimitExceeded is returned at construction when the requested
	// maximum store size exceeds the engine's addressable ceiling.
	ErrSizeLimitExceeded = errors.New("max store size exceeds engine limit")
)

// WriteStatus classifies the outcome of a batch write.
type WriteStatus int

const (
	// WriteOK means the batch committed.
	WriteOK WriteStatus = iota
	// WriteFull means the engine rejected the batch because the store
	// reached its size cap. Nothing was committed.
	WriteFull
	// WriteFailed means the batch failed for any other engine reason.
	// Nothing was committed.
	WriteFailed
)

// String returns a label for diagnostics output.
func (s WriteStatus) String() string {
	switch s {
	case WriteOK:
		return "ok"
	case WriteFull:
		return "full"
	case WriteFailed:
		return "failed"
	}
	return "unknown"
}

// WriteResult is the discriminated outcome of a batch write. Callers
// dispatch on Status rather than inspecting error types; Err carries the
// engine detail for WriteFull and WriteFailed.
type WriteResult struct {
	Status WriteStatus
	Err    error
}

// ConfigError reports an invalid configuration value. The sink fails fast
// with a ConfigError before any file I/O begins.
type ConfigError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("config %s: %s: %v", e.Field, e.Message, e.Cause)
	}
	return fmt.Sprintf("config %s: %s", e.Field, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}
