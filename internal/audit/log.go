package audit

import (
	"context"

	"github.com/rs/zerolog"
)

// LogSink writes audit events to the structured log. Used when no
// Kafka brokers are configured.
type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Record(_ context.Context, event Event) {
	s.logger.Info().
		Str("audit_id", event.ID).
		Str("kind", event.Kind).
		Str("ticket_id", event.TicketID).
		Str("channel_id", event.ChannelID).
		Interface("detail", event.Detail).
		Time("at", event.Timestamp).
		Msg("audit event")
}
