package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/denguesense/pkg/dotdir"
)

// EnvPrefix prefixes every environment override, e.g. DENGUESENSE_API_LISTEN.
const EnvPrefix = "DENGUESENSE"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the DENGUESENSE_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (DENGUESENSE_API_LISTEN, DENGUESENSE_ASSISTANT_API_KEY, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: DENGUESENSE_API_LISTEN, DENGUESENSE_STORAGE_SQLITE_PATH, etc.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper builds a Config from the resolved viper values.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		Assistant: AssistantConfig{
			Endpoint:       v.GetString("assistant.endpoint"),
			APIKey:         v.GetString("assistant.api_key"),
			Timeout:        Duration{v.GetDuration("assistant.timeout")},
			MaxBufferBytes: v.GetInt("assistant.max_buffer_bytes"),
			MaxRollbacks:   v.GetInt("assistant.max_rollbacks"),
		},
		API: APIConfig{
			Listen: v.GetString("api.listen"),
		},
		Client: ClientConfig{
			APITarget: v.GetString("client.api_target"),
		},
		Storage: StorageConfig{
			SQLitePath:  v.GetString("storage.sqlite_path"),
			PostgresDSN: v.GetString("storage.postgres_dsn"),
		},
		EventStream: EventStreamConfig{
			Provider: v.GetString("eventstream.provider"),
			Brokers:  brokers(v),
			Topic:    v.GetString("eventstream.topic"),
		},
		Fixtures: FixturesConfig{
			Path: v.GetString("fixtures.path"),
		},
		Notify: NotifyConfig{
			Limit: v.GetInt("notify.limit"),
		},
	}
}

// brokers accepts either a TOML array or a comma separated env value.
func brokers(v *viper.Viper) []string {
	var out []string
	for _, b := range v.GetStringSlice("eventstream.brokers") {
		out = append(out, splitList(b)...)
	}
	return out
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Assistant
	v.SetDefault("assistant.endpoint", d.Assistant.Endpoint)
	v.SetDefault("assistant.api_key", d.Assistant.APIKey)
	v.SetDefault("assistant.timeout", d.Assistant.Timeout.String())
	v.SetDefault("assistant.max_buffer_bytes", d.Assistant.MaxBufferBytes)
	v.SetDefault("assistant.max_rollbacks", d.Assistant.MaxRollbacks)

	// API
	v.SetDefault("api.listen", d.API.Listen)

	// Client
	v.SetDefault("client.api_target", d.Client.APITarget)

	// Storage
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_dsn", d.Storage.PostgresDSN)

	// Event stream
	v.SetDefault("eventstream.provider", d.EventStream.Provider)
	v.SetDefault("eventstream.brokers", d.EventStream.Brokers)
	v.SetDefault("eventstream.topic", d.EventStream.Topic)

	// Fixtures
	v.SetDefault("fixtures.path", d.Fixtures.Path)

	// Notify
	v.SetDefault("notify.limit", d.Notify.Limit)
}
