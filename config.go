package logvault

import (
	"log/slog"
	"time"
)

// Engine page budget. SQLite addresses the file as fixed-size pages; the
// sink pins the page size and caps the page count, which bounds the file at
// maxSupportedPages * storePageSize bytes.
const (
	storePageSize     = 4096
	maxSupportedPages = 1_280_000
)

// MaxStoreSizeMB is the hard ceiling on Storage.MaxSizeMB, derived from the
// engine's page budget. Requests above it are rejected at construction.
const MaxStoreSizeMB = maxSupportedPages * storePageSize / (1024 * 1024)

// Defaults applied by DefaultConfig and by normalization of zero values.
const (
	DefaultTableName       = "Logs"
	DefaultMaxSizeMB       = 10
	DefaultBatchSize       = 100
	DefaultMaxBufferSize   = 100_000
	DefaultFlushInterval   = 5 * time.Second
	DefaultShutdownTimeout = 5 * time.Second
	DefaultBusyTimeout     = 5000 * time.Millisecond
)

// Retention schedule bounds. The effective retention period is forced up to
// retentionPeriodFloor, and the sweep interval is forced up to
// retentionSweepStep and then truncated down to a multiple of it.
const (
	retentionPeriodFloor = 30 * time.Minute
	retentionSweepStep   = 15 * time.Minute
)

// Config defines sink configuration. Build one with [DefaultConfig] or
// [NewConfigBuilder], or load it from YAML with [LoadConfig].
type Config struct {
	// Path is the SQLite database file. Required.
	Path string

	// Storage holds store file and schema settings.
	Storage StorageConfig

	// Batching holds queue and flush settings.
	Batching BatchingConfig

	// Retention configures the periodic deletion of old entries.
	// A zero Period disables retention.
	Retention RetentionConfig

	// Archive configures rollover archive handling.
	Archive ArchiveConfig

	// Logger receives self-diagnostic output (schema creation, drops,
	// rollover, retention counts, engine errors). Defaults to
	// slog.Default(). Diagnostics are never surfaced to producers.
	Logger *slog.Logger
}

// StorageConfig groups store file settings.
type StorageConfig struct {
	// TableName is the log table name. Default: "Logs".
	TableName string

	// MaxSizeMB caps the store file size in megabytes.
	// Default: 10. Ceiling: MaxStoreSizeMB.
	MaxSizeMB int64

	// RolloverEnabled archives and truncates a full store instead of
	// discarding the failing batch. Default (via DefaultConfig): true.
	RolloverEnabled bool

	// TimestampsInUTC converts event timestamps to UTC before storing.
	// When false, timestamps are stored in local time.
	TimestampsInUTC bool

	// BusyTimeout is the engine lock acquisition timeout.
	// Default: 5 seconds.
	BusyTimeout time.Duration
}

// BatchingConfig groups queue and flush settings.
type BatchingConfig struct {
	// BatchSize is the number of events that triggers a flush and the
	// maximum events per transaction. Default: 100.
	BatchSize int

	// FlushInterval bounds latency for low-volume streams: a flush runs
	// at least this often even if BatchSize is never reached.
	// Default: 5 seconds.
	FlushInterval time.Duration

	// MaxBufferSize is the in-memory queue capacity. Default: 100,000.
	MaxBufferSize int

	// DropPolicy selects which event is discarded on overflow.
	// Default: DropNewest.
	DropPolicy DropPolicy

	// ShutdownTimeout bounds the final flush on Close. Events still
	// unflushed when it expires are discarded. Default: 5 seconds.
	ShutdownTimeout time.Duration
}

// RetentionConfig groups retention sweep settings.
type RetentionConfig struct {
	// Period is the minimum age before an entry is deleted. 0 disables
	// retention. Non-zero periods are forced up to a 30-minute floor.
	Period time.Duration

	// CheckInterval is how often the sweep runs. It is forced up to a
	// 15-minute floor and truncated down to a 15-minute multiple; 0 means
	// the 15-minute default.
	CheckInterval time.Duration
}

// ArchiveConfig groups rollover archive settings.
type ArchiveConfig struct {
	// Dir receives rollover archives. Defaults to the database directory.
	Dir string

	// Compress snappy-compresses archives, appending a ".sz" suffix.
	Compress bool

	// EncryptionPassword, when non-empty, encrypts archives at rest with
	// AES-256-GCM using a PBKDF2-derived key, appending a ".enc" suffix.
	EncryptionPassword string

	// S3, when non-nil, ships finished archives to S3-compatible storage.
	// Upload failures are logged and never affect the write path.
	S3 *S3ArchiveConfig
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig(path string) Config {
	return Config{
		Path: path,
		Storage: StorageConfig{
			TableName:       DefaultTableName,
			MaxSizeMB:       DefaultMaxSizeMB,
			RolloverEnabled: true,
			TimestampsInUTC: false,
			BusyTimeout:     DefaultBusyTimeout,
		},
		Batching: BatchingConfig{
			BatchSize:       DefaultBatchSize,
			FlushInterval:   DefaultFlushInterval,
			MaxBufferSize:   DefaultMaxBufferSize,
			DropPolicy:      DropNewest,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
	}
}

// normalize fills zero values with defaults. It does not touch
// RolloverEnabled: a zero-value Config has rollover off, DefaultConfig
// turns it on.
func (c *Config) normalize() {
	if c.Storage.TableName == "" {
		c.Storage.TableName = DefaultTableName
	}
	if c.Storage.MaxSizeMB == 0 {
		c.Storage.MaxSizeMB = DefaultMaxSizeMB
	}
	if c.Storage.BusyTimeout == 0 {
		c.Storage.BusyTimeout = DefaultBusyTimeout
	}
	if c.Batching.BatchSize == 0 {
		c.Batching.BatchSize = DefaultBatchSize
	}
	if c.Batching.FlushInterval == 0 {
		c.Batching.FlushInterval = DefaultFlushInterval
	}
	if c.Batching.MaxBufferSize == 0 {
		c.Batching.MaxBufferSize = DefaultMaxBufferSize
	}
	if c.Batching.ShutdownTimeout == 0 {
		c.Batching.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Validate checks the configuration before any file I/O. It returns a
// *ConfigError describing the first invalid field.
func (c *Config) Validate() error {
	if c.Path == "" {
		return &ConfigError{Field: "Path", Message: "database file path is required"}
	}
	if c.Storage.MaxSizeMB < 0 {
		return &ConfigError{Field: "Storage.MaxSizeMB", Message: "must be positive"}
	}
	if c.Storage.MaxSizeMB > MaxStoreSizeMB {
		return &ConfigError{
			Field:   "Storage.MaxSizeMB",
			Message: "exceeds engine ceiling",
			Cause:   ErrSizeLimitExceeded,
		}
	}
	if c.Batching.BatchSize < 0 {
		return &ConfigError{Field: "Batching.BatchSize", Message: "must be positive"}
	}
	if c.Batching.MaxBufferSize < 0 {
		return &ConfigError{Field: "Batching.MaxBufferSize", Message: "must be positive"}
	}
	if c.Retention.Period < 0 {
		return &ConfigError{Field: "Retention.Period", Message: "must not be negative"}
	}
	if c.Archive.S3 != nil {
		if c.Archive.S3.Bucket == "" {
			return &ConfigError{Field: "Archive.S3.Bucket", Message: "bucket is required"}
		}
	}
	return nil
}

// effectiveRetentionPeriod forces the configured period up to the 30-minute
// floor. A 5-minute request silently becomes 30 minutes.
func effectiveRetentionPeriod(period time.Duration) time.Duration {
	if period < retentionPeriodFloor {
		return retentionPeriodFloor
	}
	return period
}

// effectiveSweepInterval forces the requested interval up to the 15-minute
// floor, then truncates it down to the nearest 15-minute multiple.
func effectiveSweepInterval(interval time.Duration) time.Duration {
	if interval < retentionSweepStep {
		return retentionSweepStep
	}
	return interval - interval%retentionSweepStep
}
