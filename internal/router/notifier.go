package router

import (
	"context"
	"fmt"
	"time"

	"github.com/luminadesk/backend/internal/audit"
	"github.com/luminadesk/backend/internal/types"
	"github.com/rs/zerolog"
)

// ManagementNotifier emails management about escalations. Calls are
// fire-and-forget: the send runs in its own goroutine and nothing
// propagates back into the rule engine.
type ManagementNotifier struct {
	sender   EmailSender
	sink     audit.Sink
	toAddr   string
	fromAddr string
	logger   zerolog.Logger
}

func NewManagementNotifier(sender EmailSender, sink audit.Sink, toAddr, fromAddr string, logger zerolog.Logger) *ManagementNotifier {
	return &ManagementNotifier{
		sender:   sender,
		sink:     sink,
		toAddr:   toAddr,
		fromAddr: fromAddr,
		logger:   logger,
	}
}

// NotifyManagement implements the engine's notification contract
func (n *ManagementNotifier) NotifyManagement(ticket types.Ticket, ruleName string) {
	if n.toAddr == "" {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				n.logger.Error().Interface("panic", r).Msg("management notification panicked")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		data := types.EmailData{
			To:      n.toAddr,
			From:    n.fromAddr,
			Subject: fmt.Sprintf("[Escalation] Ticket %s: %s", ticket.ID, ticket.Subject),
			Text: fmt.Sprintf("Ticket %s was escalated by rule %q.\n\nPriority: %s\nUrgency: %d\nCustomer: %s <%s>\n\n%s",
				ticket.ID, ruleName, ticket.Priority, ticket.EffectiveUrgency(),
				ticket.CustomerName, ticket.CustomerEmail, ticket.Description),
		}
		if !n.sender.SendEmail(ctx, data) {
			n.logger.Warn().Str("ticket_id", ticket.ID).Msg("management notification send failed")
		}

		event := audit.NewEvent(audit.KindManagementNotified)
		event.TicketID = ticket.ID
		event.Detail = map[string]any{"rule": ruleName}
		n.sink.Record(ctx, event)
	}()
}
