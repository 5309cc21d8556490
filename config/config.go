// Package config loads the YAML configuration of the nosqldb command.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	KeyInt    = "int"
	KeyString = "string"
	KeyUUID   = "uuid"

	PayloadString = "string"
	PayloadList   = "list"
	PayloadNode   = "node"
)

var ErrInvalid = errors.New("invalid config")

// Config holds the settings of the nosqldb command.
type Config struct {
	Log     Log     `yaml:"log"`
	Store   Store   `yaml:"store"`
	Persist Persist `yaml:"persist"`
}

type Log struct {
	// Level is one of debug, info, warn or error.
	Level string `yaml:"level,omitempty"`
}

type Store struct {
	// KeyType selects how key text is parsed: int, string or uuid.
	KeyType string `yaml:"key_type,omitempty"`
	// PayloadType selects the payload kind: string, list or node.
	PayloadType string `yaml:"payload_type,omitempty"`
}

type Persist struct {
	// Interval is the time between two scheduled writes.
	Interval time.Duration `yaml:"interval,omitempty"`
	// Path is the directory of the file storage. An empty path keeps
	// persisted data in memory.
	Path string `yaml:"path,omitempty"`
	// Key is the prefix of the keys written by the scheduler.
	Key string `yaml:"key,omitempty"`
	// MaxRuns stops the scheduler after the given number of writes.
	MaxRuns int `yaml:"max_runs,omitempty"`
}

// Default returns a Config with the default settings.
func Default() Config {
	return Config{
		Log: Log{
			Level: "info",
		},
		Store: Store{
			KeyType:     KeyString,
			PayloadType: PayloadString,
		},
		Persist: Persist{
			Interval: time.Minute,
			Key:      "nosqldb",
		},
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Log.Level != "" {
		c.Log.Level = source.Log.Level
	}
	if source.Store.KeyType != "" {
		c.Store.KeyType = source.Store.KeyType
	}
	if source.Store.PayloadType != "" {
		c.Store.PayloadType = source.Store.PayloadType
	}
	if source.Persist.Interval > 0 {
		c.Persist.Interval = source.Persist.Interval
	}
	if source.Persist.Path != "" {
		c.Persist.Path = source.Persist.Path
	}
	if source.Persist.Key != "" {
		c.Persist.Key = source.Persist.Key
	}
	if source.Persist.MaxRuns > 0 {
		c.Persist.MaxRuns = source.Persist.MaxRuns
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	switch c.Store.KeyType {
	case KeyInt, KeyString, KeyUUID:
	default:
		return fmt.Errorf("%w: unknown key type %q", ErrInvalid, c.Store.KeyType)
	}
	switch c.Store.PayloadType {
	case PayloadString, PayloadList, PayloadNode:
	default:
		return fmt.Errorf("%w: unknown payload type %q", ErrInvalid, c.Store.PayloadType)
	}
	if c.Persist.Interval <= 0 {
		return fmt.Errorf("%w: persist interval must be positive", ErrInvalid)
	}
	if c.Persist.Key == "" {
		return fmt.Errorf("%w: persist key is empty", ErrInvalid)
	}
	return nil
}

// SlogLevel returns the slog level matching the configured level name.
func (l Log) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(l.Level))); err != nil {
		return level, fmt.Errorf("%w: log level: %w", ErrInvalid, err)
	}
	return level, nil
}

// Parse decodes YAML config data and merges it with the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	var loaded Config
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.Merge(&loaded)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads a YAML config file and merges it with the defaults.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}
