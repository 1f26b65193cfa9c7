package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config represents the persistent denguesense configuration stored as
// config.toml in the .denguesense/ directory. The TOML layout uses sections
// for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Assistant   AssistantConfig   `toml:"assistant"`
	API         APIConfig         `toml:"api"`
	Client      ClientConfig      `toml:"client"`
	Storage     StorageConfig     `toml:"storage"`
	EventStream EventStreamConfig `toml:"eventstream"`
	Fixtures    FixturesConfig    `toml:"fixtures"`
	Notify      NotifyConfig      `toml:"notify"`
}

// AssistantConfig holds the AI chat backend settings.
type AssistantConfig struct {
	Endpoint       string   `toml:"endpoint,omitempty"`
	APIKey         string   `toml:"api_key,omitempty"`
	Timeout        Duration `toml:"timeout,omitempty"`
	MaxBufferBytes int      `toml:"max_buffer_bytes,omitempty"`
	MaxRollbacks   int      `toml:"max_rollbacks,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// ClientConfig holds settings for CLI commands that talk to a running API
// server. Values are full URLs (scheme + host + port).
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
}

// StorageConfig selects the report store. Postgres wins over SQLite; with
// neither set, reports live in memory.
type StorageConfig struct {
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// EventStreamConfig selects where report events are published.
type EventStreamConfig struct {
	Provider string   `toml:"provider,omitempty"`
	Brokers  []string `toml:"brokers,omitempty"`
	Topic    string   `toml:"topic,omitempty"`
}

// FixturesConfig points at an optional TOML fixture file.
type FixturesConfig struct {
	Path string `toml:"path,omitempty"`
}

// NotifyConfig holds toast settings.
type NotifyConfig struct {
	Limit int `toml:"limit,omitempty"`
}

// Duration is a time.Duration stored as a string such as "5m".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func intKey(name string, field func(c *Config) *int) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.Itoa(*field(c))
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			if n < 0 {
				return fmt.Errorf("invalid value for %s: must not be negative", name)
			}
			*field(c) = n
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"assistant.endpoint": {
		get: func(c *Config) string { return c.Assistant.Endpoint },
		set: func(c *Config, v string) error { c.Assistant.Endpoint = v; return nil },
	},
	"assistant.api_key": {
		get: func(c *Config) string { return c.Assistant.APIKey },
		set: func(c *Config, v string) error { c.Assistant.APIKey = v; return nil },
	},
	"assistant.timeout": {
		get: func(c *Config) string {
			if c.Assistant.Timeout.Duration == 0 {
				return ""
			}
			return c.Assistant.Timeout.String()
		},
		set: func(c *Config, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid value for assistant.timeout: %w", err)
			}
			c.Assistant.Timeout = Duration{d}
			return nil
		},
	},
	"assistant.max_buffer_bytes": intKey("assistant.max_buffer_bytes", func(c *Config) *int { return &c.Assistant.MaxBufferBytes }),
	"assistant.max_rollbacks":    intKey("assistant.max_rollbacks", func(c *Config) *int { return &c.Assistant.MaxRollbacks }),
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"client.api_target": {
		get: func(c *Config) string { return c.Client.APITarget },
		set: func(c *Config, v string) error { c.Client.APITarget = v; return nil },
	},
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"storage.postgres_dsn": {
		get: func(c *Config) string { return c.Storage.PostgresDSN },
		set: func(c *Config, v string) error { c.Storage.PostgresDSN = v; return nil },
	},
	"eventstream.provider": {
		get: func(c *Config) string { return c.EventStream.Provider },
		set: func(c *Config, v string) error {
			switch v {
			case EventStreamNop, EventStreamKafka:
				c.EventStream.Provider = v
				return nil
			default:
				return fmt.Errorf("invalid value for eventstream.provider: %q (available: nop, kafka)", v)
			}
		},
	},
	"eventstream.brokers": {
		get: func(c *Config) string { return strings.Join(c.EventStream.Brokers, ",") },
		set: func(c *Config, v string) error { c.EventStream.Brokers = splitList(v); return nil },
	},
	"eventstream.topic": {
		get: func(c *Config) string { return c.EventStream.Topic },
		set: func(c *Config, v string) error { c.EventStream.Topic = v; return nil },
	},
	"fixtures.path": {
		get: func(c *Config) string { return c.Fixtures.Path },
		set: func(c *Config, v string) error { c.Fixtures.Path = v; return nil },
	},
	"notify.limit": intKey("notify.limit", func(c *Config) *int { return &c.Notify.Limit }),
}

// splitList parses a comma separated list, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
