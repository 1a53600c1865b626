package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// KafkaSink publishes audit events to a Kafka topic. Failures are
// logged and dropped; the core never blocks on audit delivery longer
// than the write timeout.
type KafkaSink struct {
	writer *kafka.Writer
	logger zerolog.Logger
}

// NewKafkaSink creates a sink writing to topic on the given brokers
func NewKafkaSink(brokers []string, topic string, logger zerolog.Logger) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
		},
		logger: logger,
	}
}

func (s *KafkaSink) Record(ctx context.Context, event Event) {
	value, err := json.Marshal(event)
	if err != nil {
		s.logger.Error().Err(err).Str("kind", event.Kind).Msg("failed to encode audit event")
		return
	}

	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(event.Kind),
		Value: value,
	}
	if err := s.writer.WriteMessages(writeCtx, msg); err != nil {
		s.logger.Error().Err(err).Str("kind", event.Kind).Msg("failed to publish audit event")
	}
}

// Close flushes and closes the underlying writer
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
