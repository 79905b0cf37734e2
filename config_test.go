package logvault

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("logs.db")

	if cfg.Storage.TableName != "Logs" {
		t.Errorf("TableName = %q, want Logs", cfg.Storage.TableName)
	}
	if cfg.Storage.MaxSizeMB != 10 {
		t.Errorf("MaxSizeMB = %d, want 10", cfg.Storage.MaxSizeMB)
	}
	if !cfg.Storage.RolloverEnabled {
		t.Error("rollover should be enabled by default")
	}
	if cfg.Batching.BatchSize != 100 {
		t.Errorf("BatchSize = %d, want 100", cfg.Batching.BatchSize)
	}
	if cfg.Batching.MaxBufferSize != 100_000 {
		t.Errorf("MaxBufferSize = %d, want 100000", cfg.Batching.MaxBufferSize)
	}
}

func TestValidateSizeCeiling(t *testing.T) {
	if MaxStoreSizeMB != 5000 {
		t.Fatalf("MaxStoreSizeMB = %d, want 5000", MaxStoreSizeMB)
	}

	cfg := DefaultConfig("logs.db")
	cfg.Storage.MaxSizeMB = MaxStoreSizeMB
	if err := cfg.Validate(); err != nil {
		t.Errorf("size at the ceiling should validate, got %v", err)
	}

	cfg.Storage.MaxSizeMB = MaxStoreSizeMB + 1
	err := cfg.Validate()
	if err == nil {
		t.Fatal("size above the ceiling should be rejected")
	}
	if !errors.Is(err, ErrSizeLimitExceeded) {
		t.Errorf("error = %v, want ErrSizeLimitExceeded", err)
	}
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Errorf("error = %T, want *ConfigError", err)
	}
}

func TestValidateMissingPath(t *testing.T) {
	cfg := DefaultConfig("")
	if err := cfg.Validate(); err == nil {
		t.Error("empty path should be rejected")
	}
}

// The retention schedule intentionally preserves the quantization quirk of
// the capacity policy: the effective period has a 30-minute floor (a
// 5-minute request silently becomes 30 minutes), and the check interval is
// floored to 15 minutes then truncated down to a 15-minute multiple.
func TestRetentionScheduleQuantization(t *testing.T) {
	periodCases := []struct {
		in, want time.Duration
	}{
		{5 * time.Minute, 30 * time.Minute},
		{29 * time.Minute, 30 * time.Minute},
		{30 * time.Minute, 30 * time.Minute},
		{time.Hour, time.Hour},
		{90 * time.Minute, 90 * time.Minute},
	}
	for _, tc := range periodCases {
		if got := effectiveRetentionPeriod(tc.in); got != tc.want {
			t.Errorf("effectiveRetentionPeriod(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}

	intervalCases := []struct {
		in, want time.Duration
	}{
		{0, 15 * time.Minute},
		{time.Minute, 15 * time.Minute},
		{15 * time.Minute, 15 * time.Minute},
		{20 * time.Minute, 15 * time.Minute},
		{29 * time.Minute, 15 * time.Minute},
		{30 * time.Minute, 30 * time.Minute},
		{44 * time.Minute, 30 * time.Minute},
		{2 * time.Hour, 2 * time.Hour},
	}
	for _, tc := range intervalCases {
		if got := effectiveSweepInterval(tc.in); got != tc.want {
			t.Errorf("effectiveSweepInterval(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestConfigBuilder(t *testing.T) {
	cfg, err := NewConfigBuilder("/tmp/app.db").
		WithTableName("Events").
		WithBatchSize(500).
		WithUTCTimestamps(true).
		WithRetention(24*time.Hour, time.Hour).
		WithArchiveCompression(true).
		Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	if cfg.Storage.TableName != "Events" {
		t.Errorf("TableName = %q, want Events", cfg.Storage.TableName)
	}
	if cfg.Batching.BatchSize != 500 {
		t.Errorf("BatchSize = %d, want 500", cfg.Batching.BatchSize)
	}
	if !cfg.Storage.TimestampsInUTC {
		t.Error("TimestampsInUTC should be set")
	}
	if cfg.Retention.Period != 24*time.Hour {
		t.Errorf("Retention.Period = %v, want 24h", cfg.Retention.Period)
	}
	if !cfg.Archive.Compress {
		t.Error("Archive.Compress should be set")
	}
	// Untouched fields keep their defaults.
	if cfg.Batching.FlushInterval != DefaultFlushInterval {
		t.Errorf("FlushInterval = %v, want default", cfg.Batching.FlushInterval)
	}
}

func TestConfigBuilderRejectsOversize(t *testing.T) {
	_, err := NewConfigBuilder("/tmp/app.db").
		WithMaxSizeMB(MaxStoreSizeMB * 2).
		Build()
	if !errors.Is(err, ErrSizeLimitExceeded) {
		t.Errorf("error = %v, want ErrSizeLimitExceeded", err)
	}
}

func TestParseConfig(t *testing.T) {
	doc := []byte(`
path: /var/log/app.db
storage:
  table_name: AppLogs
  max_size_mb: 100
  rollover_enabled: false
  timestamps_in_utc: true
batching:
  batch_size: 250
  flush_interval: 2s
  drop_policy: oldest
retention:
  period: 72h
  check_interval: 1h
archive:
  compress: true
  s3:
    bucket: log-archives
    region: eu-west-1
    prefix: app/
`)

	cfg, err := ParseConfig(doc)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if cfg.Path != "/var/log/app.db" {
		t.Errorf("Path = %q", cfg.Path)
	}
	if cfg.Storage.TableName != "AppLogs" {
		t.Errorf("TableName = %q, want AppLogs", cfg.Storage.TableName)
	}
	if cfg.Storage.RolloverEnabled {
		t.Error("rollover_enabled: false should disable rollover")
	}
	if !cfg.Storage.TimestampsInUTC {
		t.Error("timestamps_in_utc should be set")
	}
	if cfg.Batching.BatchSize != 250 {
		t.Errorf("BatchSize = %d, want 250", cfg.Batching.BatchSize)
	}
	if cfg.Batching.FlushInterval != 2*time.Second {
		t.Errorf("FlushInterval = %v, want 2s", cfg.Batching.FlushInterval)
	}
	if cfg.Batching.DropPolicy != DropOldest {
		t.Errorf("DropPolicy = %v, want DropOldest", cfg.Batching.DropPolicy)
	}
	if cfg.Retention.Period != 72*time.Hour {
		t.Errorf("Retention.Period = %v, want 72h", cfg.Retention.Period)
	}
	if cfg.Archive.S3 == nil || cfg.Archive.S3.Bucket != "log-archives" {
		t.Errorf("Archive.S3 = %+v, want bucket log-archives", cfg.Archive.S3)
	}
	// Unset fields fall back to defaults.
	if cfg.Batching.MaxBufferSize != DefaultMaxBufferSize {
		t.Errorf("MaxBufferSize = %d, want default", cfg.Batching.MaxBufferSize)
	}
}

func TestParseConfigErrors(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"bad duration", "path: a.db\nretention:\n  period: soon"},
		{"bad drop policy", "path: a.db\nbatching:\n  drop_policy: random"},
		{"missing path", "storage:\n  max_size_mb: 5"},
		{"oversize", "path: a.db\nstorage:\n  max_size_mb: 99999"},
	}
	for _, tc := range cases {
		if _, err := ParseConfig([]byte(tc.doc)); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}
