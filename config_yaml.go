package logvault

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors Config for YAML loading. Durations are strings in
// time.ParseDuration syntax ("90s", "24h").
type fileConfig struct {
	Path    string `yaml:"path"`
	Storage struct {
		TableName       string `yaml:"table_name"`
		MaxSizeMB       int64  `yaml:"max_size_mb"`
		RolloverEnabled *bool  `yaml:"rollover_enabled"`
		TimestampsInUTC bool   `yaml:"timestamps_in_utc"`
		BusyTimeout     string `yaml:"busy_timeout"`
	} `yaml:"storage"`
	Batching struct {
		BatchSize       int    `yaml:"batch_size"`
		FlushInterval   string `yaml:"flush_interval"`
		MaxBufferSize   int    `yaml:"max_buffer_size"`
		DropPolicy      string `yaml:"drop_policy"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	} `yaml:"batching"`
	Retention struct {
		Period        string `yaml:"period"`
		CheckInterval string `yaml:"check_interval"`
	} `yaml:"retention"`
	Archive struct {
		Dir                string           `yaml:"dir"`
		Compress           bool             `yaml:"compress"`
		EncryptionPassword string           `yaml:"encryption_password"`
		S3                 *S3ArchiveConfig `yaml:"s3"`
	} `yaml:"archive"`
}

// LoadConfig reads a YAML configuration file and returns a validated Config.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML configuration data and returns a validated Config.
func ParseConfig(data []byte) (Config, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg := DefaultConfig(fc.Path)

	if fc.Storage.TableName != "" {
		cfg.Storage.TableName = fc.Storage.TableName
	}
	if fc.Storage.MaxSizeMB != 0 {
		cfg.Storage.MaxSizeMB = fc.Storage.MaxSizeMB
	}
	if fc.Storage.RolloverEnabled != nil {
		cfg.Storage.RolloverEnabled = *fc.Storage.RolloverEnabled
	}
	cfg.Storage.TimestampsInUTC = fc.Storage.TimestampsInUTC
	if d, err := parseOptionalDuration("storage.busy_timeout", fc.Storage.BusyTimeout); err != nil {
		return Config{}, err
	} else if d != 0 {
		cfg.Storage.BusyTimeout = d
	}

	if fc.Batching.BatchSize != 0 {
		cfg.Batching.BatchSize = fc.Batching.BatchSize
	}
	if fc.Batching.MaxBufferSize != 0 {
		cfg.Batching.MaxBufferSize = fc.Batching.MaxBufferSize
	}
	if d, err := parseOptionalDuration("batching.flush_interval", fc.Batching.FlushInterval); err != nil {
		return Config{}, err
	} else if d != 0 {
		cfg.Batching.FlushInterval = d
	}
	if d, err := parseOptionalDuration("batching.shutdown_timeout", fc.Batching.ShutdownTimeout); err != nil {
		return Config{}, err
	} else if d != 0 {
		cfg.Batching.ShutdownTimeout = d
	}
	switch fc.Batching.DropPolicy {
	case "", "newest":
		cfg.Batching.DropPolicy = DropNewest
	case "oldest":
		cfg.Batching.DropPolicy = DropOldest
	default:
		return Config{}, &ConfigError{
			Field:   "batching.drop_policy",
			Message: fmt.Sprintf("unknown policy %q (want \"newest\" or \"oldest\")", fc.Batching.DropPolicy),
		}
	}

	if d, err := parseOptionalDuration("retention.period", fc.Retention.Period); err != nil {
		return Config{}, err
	} else {
		cfg.Retention.Period = d
	}
	if d, err := parseOptionalDuration("retention.check_interval", fc.Retention.CheckInterval); err != nil {
		return Config{}, err
	} else {
		cfg.Retention.CheckInterval = d
	}

	cfg.Archive.Dir = fc.Archive.Dir
	cfg.Archive.Compress = fc.Archive.Compress
	cfg.Archive.EncryptionPassword = fc.Archive.EncryptionPassword
	cfg.Archive.S3 = fc.Archive.S3

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parseOptionalDuration(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, &ConfigError{Field: field, Message: "invalid duration", Cause: err}
	}
	return d, nil
}
