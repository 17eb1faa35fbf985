package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/drought-dashboard/internal/config"
	"github.com/couchcryptid/drought-dashboard/internal/domain"
)

// Writer publishes dashboard interaction events to a Kafka topic.
// It implements dashboard.EventPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured events topic. Writes
// are asynchronous so a slow broker never holds up a dashboard response;
// delivery failures are logged from the completion callback.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &Writer{logger: logger}
	w.writer = &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaEventsTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
		Async:                  true,
		Completion:             w.onCompletion,
	}
	return w
}

// Publish enqueues event for delivery. Events are keyed by control so changes
// to one control stay ordered on one partition.
func (w *Writer) Publish(ctx context.Context, event domain.InteractionEvent) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

// Close flushes pending messages and closes the producer.
func (w *Writer) Close() error {
	return w.writer.Close()
}

func (w *Writer) onCompletion(messages []kafkago.Message, err error) {
	if err != nil {
		w.logger.Warn("interaction events not delivered", "count", len(messages), "error", err)
	}
}

// serializeToMessage marshals an InteractionEvent into a Kafka message.
func serializeToMessage(event domain.InteractionEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize interaction event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.Control),
		Value: data,
		Time:  event.OccurredAt,
		Headers: []kafkago.Header{
			{Key: "control", Value: []byte(event.Control)},
			{Key: "occurred_at", Value: []byte(event.OccurredAt.Format(time.RFC3339))},
		},
	}, nil
}
