package logvault

import "time"

// ConfigBuilder provides a fluent API for constructing a [Config]. It starts
// from [DefaultConfig] defaults, so only fields that differ need to be set.
//
//	cfg, err := logvault.NewConfigBuilder("/var/log/app.db").
//	    WithBatchSize(500).
//	    WithRetention(7*24*time.Hour, time.Hour).
//	    Build()
type ConfigBuilder struct {
	cfg Config
}

// NewConfigBuilder creates a builder pre-populated with [DefaultConfig] values.
func NewConfigBuilder(path string) *ConfigBuilder {
	return &ConfigBuilder{cfg: DefaultConfig(path)}
}

// WithTableName sets the log table name.
func (b *ConfigBuilder) WithTableName(name string) *ConfigBuilder {
	b.cfg.Storage.TableName = name
	return b
}

// WithMaxSizeMB caps the store file size in megabytes.
func (b *ConfigBuilder) WithMaxSizeMB(mb int64) *ConfigBuilder {
	b.cfg.Storage.MaxSizeMB = mb
	return b
}

// WithRollover enables or disables rollover on a full store.
func (b *ConfigBuilder) WithRollover(enabled bool) *ConfigBuilder {
	b.cfg.Storage.RolloverEnabled = enabled
	return b
}

// WithUTCTimestamps stores timestamps in UTC instead of local time.
func (b *ConfigBuilder) WithUTCTimestamps(utc bool) *ConfigBuilder {
	b.cfg.Storage.TimestampsInUTC = utc
	return b
}

// WithBatchSize sets the flush threshold and per-transaction batch size.
func (b *ConfigBuilder) WithBatchSize(n int) *ConfigBuilder {
	b.cfg.Batching.BatchSize = n
	return b
}

// WithFlushInterval sets the periodic flush interval.
func (b *ConfigBuilder) WithFlushInterval(d time.Duration) *ConfigBuilder {
	b.cfg.Batching.FlushInterval = d
	return b
}

// WithMaxBufferSize sets the in-memory queue capacity.
func (b *ConfigBuilder) WithMaxBufferSize(n int) *ConfigBuilder {
	b.cfg.Batching.MaxBufferSize = n
	return b
}

// WithDropPolicy selects the overflow drop policy.
func (b *ConfigBuilder) WithDropPolicy(p DropPolicy) *ConfigBuilder {
	b.cfg.Batching.DropPolicy = p
	return b
}

// WithRetention sets the retention period and sweep check interval.
// Pass 0 for checkInterval to use the 15-minute default.
func (b *ConfigBuilder) WithRetention(period, checkInterval time.Duration) *ConfigBuilder {
	b.cfg.Retention.Period = period
	b.cfg.Retention.CheckInterval = checkInterval
	return b
}

// WithArchiveDir sets the directory receiving rollover archives.
func (b *ConfigBuilder) WithArchiveDir(dir string) *ConfigBuilder {
	b.cfg.Archive.Dir = dir
	return b
}

// WithArchiveCompression snappy-compresses rollover archives.
func (b *ConfigBuilder) WithArchiveCompression(enabled bool) *ConfigBuilder {
	b.cfg.Archive.Compress = enabled
	return b
}

// WithArchiveEncryption encrypts rollover archives with a key derived from
// password.
func (b *ConfigBuilder) WithArchiveEncryption(password string) *ConfigBuilder {
	b.cfg.Archive.EncryptionPassword = password
	return b
}

// WithArchiveS3 ships rollover archives to S3-compatible storage.
func (b *ConfigBuilder) WithArchiveS3(s3 S3ArchiveConfig) *ConfigBuilder {
	b.cfg.Archive.S3 = &s3
	return b
}

// Build validates and returns the configuration.
func (b *ConfigBuilder) Build() (Config, error) {
	cfg := b.cfg
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
