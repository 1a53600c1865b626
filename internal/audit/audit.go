package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event is one audit record emitted by the automation core
type Event struct {
	ID        string         `json:"id"`
	Kind      string         `json:"kind"`
	TicketID  string         `json:"ticketId,omitempty"`
	ChannelID string         `json:"channelId,omitempty"`
	Detail    map[string]any `json:"detail,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Event kinds recorded by the core
const (
	KindTicketProcessed    = "ticket_processed"
	KindTicketAssigned     = "ticket_assigned"
	KindTicketEscalated    = "ticket_escalated"
	KindEmailDispatched    = "email_dispatched"
	KindEmailFailed        = "email_failed"
	KindChannelTested      = "channel_tested"
	KindManagementNotified = "management_notified"
)

// Sink accepts audit events fire-and-forget. Implementations must
// never return an error or panic back into the core; delivery problems
// are their own concern.
type Sink interface {
	Record(ctx context.Context, event Event)
}

// NewEvent builds an event with id and timestamp filled in
func NewEvent(kind string) Event {
	return Event{
		ID:        uuid.NewString(),
		Kind:      kind,
		Timestamp: time.Now().UTC(),
	}
}

// NoopSink discards every event
type NoopSink struct{}

func (NoopSink) Record(_ context.Context, _ Event) {}
