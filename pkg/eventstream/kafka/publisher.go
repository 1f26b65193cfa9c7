// Package kafka publishes report events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/papercomputeco/denguesense/pkg/eventstream"
)

const defaultWriteTimeout = 10 * time.Second

// Config is the Kafka publisher configuration.
type Config struct {
	Brokers []string
	Topic   string

	// WriteTimeout bounds each publish. Zero uses 10s.
	WriteTimeout time.Duration
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes each event as a JSON message keyed by report ID, so all
// events for one report land on the same partition.
type Publisher struct {
	writer  messageWriter
	timeout time.Duration
}

// NewPublisher creates a Kafka publisher. The connection is made lazily on
// the first publish.
func NewPublisher(config Config) (*Publisher, error) {
	if len(config.Brokers) == 0 {
		return nil, errors.New("kafka publisher requires at least one broker")
	}
	if config.Topic == "" {
		return nil, errors.New("kafka publisher requires a topic")
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(config.Brokers...),
		Topic:                  config.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}

	return newPublisher(writer, config.WriteTimeout), nil
}

func newPublisher(writer messageWriter, timeout time.Duration) *Publisher {
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}
	return &Publisher{writer: writer, timeout: timeout}
}

// PublishReport marshals event and writes it to the topic.
func (p *Publisher) PublishReport(ctx context.Context, event *eventstream.ReportSubmittedEvent) error {
	if event == nil {
		return eventstream.ErrNilReportEvent
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling report event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Report.ID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	})
	if err != nil {
		return fmt.Errorf("writing report event: %w", err)
	}

	return nil
}

// Close flushes pending writes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
