package automation

import (
	"time"

	"github.com/luminadesk/backend/internal/types"
)

// matchesConditions evaluates a condition set with AND semantics.
// An empty set always matches.
func matchesConditions(conditions []types.Condition, ticket types.Ticket, now time.Time) bool {
	for _, c := range conditions {
		if !matchesCondition(c, ticket, now) {
			return false
		}
	}
	return true
}

func matchesCondition(c types.Condition, ticket types.Ticket, now time.Time) bool {
	switch cond := c.(type) {
	case types.PriorityCondition:
		return ticket.Priority == cond.Priority

	case types.ChannelCondition:
		if len(cond.Channels) == 0 {
			return true
		}
		for _, ch := range cond.Channels {
			if ch == "any" || ch == ticket.Channel {
				return true
			}
		}
		return false

	case types.UrgencyCondition:
		score := ticket.EffectiveUrgency()
		if cond.GTE != nil && score < *cond.GTE {
			return false
		}
		if cond.LTE != nil && score > *cond.LTE {
			return false
		}
		return true

	case types.SentimentCondition:
		return ticket.Sentiment == cond.Sentiment

	case types.TimeOpenCondition:
		return now.Sub(ticket.CreatedAt) >= time.Duration(cond.MinOpen)

	case types.NewTicketCondition:
		return now.Sub(ticket.CreatedAt) < NewTicketWindow

	default:
		// Unknown condition types fail closed so a half-decoded rule
		// cannot fire actions it was not meant to.
		return false
	}
}
