package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/baylab/nitrogen-dashboard/internal/domain"
)

// Header keys attached to every dashboard message.
const (
	HeaderScenario      = "scenario"
	HeaderSchemaVersion = "schema_version"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes assembled dashboards to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer messageWriter
	topic  string
	logger *zap.Logger
}

// NewWriter creates a Kafka producer for the dashboard topic.
func NewWriter(brokers []string, topic string, logger *zap.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, topic: topic, logger: logger}
}

// Publish writes one dashboard keyed by its scenario id, so every version of
// a scenario lands on the same partition.
func (w *Writer) Publish(ctx context.Context, d *domain.Dashboard) error {
	msg, err := serializeToMessage(d)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish dashboard %s to %s: %w", d.Scenario.ID, w.topic, err)
	}
	w.logger.Debug("dashboard published",
		zap.String("scenario", string(d.Scenario.ID)),
		zap.String("topic", w.topic),
		zap.Int("bytes", len(msg.Value)),
	)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Dashboard into a Kafka message.
func serializeToMessage(d *domain.Dashboard) (kafkago.Message, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize dashboard: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(d.Scenario.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: HeaderScenario, Value: []byte(d.Scenario.ID)},
			{Key: HeaderSchemaVersion, Value: []byte(domain.SchemaVersion)},
		},
	}, nil
}
