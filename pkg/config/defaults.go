package config

import "time"

const (
	EventStreamNop   = "nop"
	EventStreamKafka = "kafka"

	defaultAssistantEndpoint = "http://localhost:54321/functions/v1/health-assistant"
	defaultAssistantTimeout  = 5 * time.Minute
	defaultMaxBufferBytes    = 1 << 20
	defaultMaxRollbacks      = 8

	defaultAPIListen       = ":8081"
	defaultClientAPITarget = "http://localhost:8081"

	defaultEventStreamTopic = "denguesense.reports"

	defaultNotifyLimit = 1
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Assistant: AssistantConfig{
			Endpoint:       defaultAssistantEndpoint,
			Timeout:        Duration{defaultAssistantTimeout},
			MaxBufferBytes: defaultMaxBufferBytes,
			MaxRollbacks:   defaultMaxRollbacks,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		EventStream: EventStreamConfig{
			Provider: EventStreamNop,
			Topic:    defaultEventStreamTopic,
		},
		Notify: NotifyConfig{
			Limit: defaultNotifyLimit,
		},
	}
}
