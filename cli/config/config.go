package config

import (
	"fmt"
	"time"
)

// Config represents a tram.yaml configuration file.
// All values are optional and act as defaults for tram command flags.
// CLI flags always override config values.
type Config struct {
	Transport string        `yaml:"transport"`
	Addr      string        `yaml:"addr"`
	Progress  string        `yaml:"progress"`
	Capacity  int           `yaml:"segment_capacity"`
	LogLevel  string        `yaml:"log_level"`
	WorkerID  string        `yaml:"worker_id"`
	Redis     RedisConfig   `yaml:"redis"`
	Storage   StorageConfig `yaml:"storage"`
	Alloc     AllocConfig   `yaml:"alloc"`
	Adapter   AdapterConfig `yaml:"adapter"`
}

// RedisConfig holds redis transport defaults from the config file.
type RedisConfig struct {
	URL    string `yaml:"url"`
	Prefix string `yaml:"prefix"`
}

// StorageConfig holds received-transfer storage defaults.
type StorageConfig struct {
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	Bucket      string `yaml:"bucket"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// AllocConfig holds frame allocator defaults.
type AllocConfig struct {
	// MaxBytes caps total live frame memory; 0 means unlimited.
	MaxBytes int64 `yaml:"max_bytes"`
}

// AdapterConfig holds transfer-event adapter defaults from the config file.
type AdapterConfig struct {
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}
