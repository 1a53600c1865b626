package router

import (
	"context"
	"fmt"
	"time"

	"github.com/luminadesk/backend/internal/audit"
	"github.com/luminadesk/backend/internal/automation"
	"github.com/luminadesk/backend/internal/channel"
	"github.com/luminadesk/backend/internal/types"
	"github.com/rs/zerolog"
)

// EmailSender is the dispatcher capability the router needs
type EmailSender interface {
	SendEmail(ctx context.Context, data types.EmailData) bool
}

// TicketMutator commits the mutations the core proposes. It is owned
// by the CRUD layer; a nil mutator means decisions are returned to the
// caller without being applied.
type TicketMutator interface {
	ProposeAssignment(ctx context.Context, ticketID, agentID string) error
	ProposeStatus(ctx context.Context, ticketID string, status types.TicketStatus) error
}

// ChannelDirectory lists the configured channels
type ChannelDirectory interface {
	ListChannelConfigs(ctx context.Context) ([]types.ChannelConfig, error)
}

// Router is the composition point between the rule engine, the channel
// health monitor and the message dispatcher. It runs on ticket create
// and update.
type Router struct {
	engine    *automation.Engine
	channels  ChannelDirectory
	sender    EmailSender
	mutator   TicketMutator
	sink      audit.Sink
	fromAddr  string
	logger    zerolog.Logger
}

// New creates a ticket router. mutator may be nil.
func New(engine *automation.Engine, channels ChannelDirectory, sender EmailSender, mutator TicketMutator, sink audit.Sink, fromAddr string, logger zerolog.Logger) *Router {
	return &Router{
		engine:   engine,
		channels: channels,
		sender:   sender,
		mutator:  mutator,
		sink:     sink,
		fromAddr: fromAddr,
		logger:   logger,
	}
}

// ProcessTicket tags sentiment when missing, runs the rule engine,
// commits proposed mutations through the collaborator, and delivers
// auto-responses when the ticket's email channel is healthy.
func (r *Router) ProcessTicket(ctx context.Context, ticket types.Ticket, agents []types.Agent) automation.Result {
	if ticket.Sentiment == "" {
		ticket.Sentiment = automation.AnalyzeSentiment(ticket.Subject + " " + ticket.Description)
	}

	result := r.engine.ProcessTicket(ticket, agents)

	if result.AssignedAgentID != "" {
		if r.mutator != nil {
			if err := r.mutator.ProposeAssignment(ctx, ticket.ID, result.AssignedAgentID); err != nil {
				r.logger.Error().Err(err).Str("ticket_id", ticket.ID).Msg("assignment proposal rejected")
			} else if err := r.mutator.ProposeStatus(ctx, ticket.ID, types.StatusInProgress); err != nil {
				r.logger.Error().Err(err).Str("ticket_id", ticket.ID).Msg("status proposal rejected")
			}
		}
		event := audit.NewEvent(audit.KindTicketAssigned)
		event.TicketID = ticket.ID
		event.Detail = map[string]any{"agentId": result.AssignedAgentID}
		r.sink.Record(ctx, event)
	}

	if result.Escalated {
		event := audit.NewEvent(audit.KindTicketEscalated)
		event.TicketID = ticket.ID
		r.sink.Record(ctx, event)
	}

	r.deliverAutoResponses(ctx, ticket, result.AutoResponses)

	event := audit.NewEvent(audit.KindTicketProcessed)
	event.TicketID = ticket.ID
	event.Detail = map[string]any{
		"escalated":     result.Escalated,
		"autoResponses": len(result.AutoResponses),
		"aiSuggestions": len(result.AISuggestions),
	}
	r.sink.Record(ctx, event)

	return result
}

// deliverAutoResponses sends template responses over email, but only
// when an active email channel is currently healthy. Sends are
// sequential; a failed send is audited and does not abort the rest.
func (r *Router) deliverAutoResponses(ctx context.Context, ticket types.Ticket, responses []string) {
	if len(responses) == 0 || ticket.CustomerEmail == "" {
		return
	}
	if !r.emailChannelHealthy(ctx) {
		r.logger.Warn().
			Str("ticket_id", ticket.ID).
			Msg("skipping auto-responses, no healthy email channel")
		return
	}

	for _, body := range responses {
		data := types.EmailData{
			To:      ticket.CustomerEmail,
			From:    r.fromAddr,
			Subject: fmt.Sprintf("Re: %s", ticket.Subject),
			Text:    body,
		}
		kind := audit.KindEmailDispatched
		if !r.sender.SendEmail(ctx, data) {
			kind = audit.KindEmailFailed
		}
		event := audit.NewEvent(kind)
		event.TicketID = ticket.ID
		event.Detail = map[string]any{"to": ticket.CustomerEmail}
		r.sink.Record(ctx, event)
	}
}

func (r *Router) emailChannelHealthy(ctx context.Context) bool {
	configs, err := r.channels.ListChannelConfigs(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("channel listing failed")
		return false
	}
	now := time.Now()
	for _, cfg := range configs {
		if cfg.Type == types.ChannelEmail && channel.HealthStatus(cfg, now) == types.ChannelConnected {
			return true
		}
	}
	return false
}
