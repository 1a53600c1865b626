package automation

import (
	"time"

	"github.com/luminadesk/backend/internal/types"
)

// DefaultRules is the rule set seeded at startup when the rule store is
// empty. Admins can deactivate or replace them afterwards.
func DefaultRules(now time.Time) []types.AutomationRule {
	gte8 := 8
	return []types.AutomationRule{
		{
			ID:       "auto-assign-high-priority",
			Name:     "Auto-assign high priority tickets",
			Priority: 1,
			IsActive: true,
			Conditions: []types.Condition{
				types.PriorityCondition{Priority: types.PriorityHigh},
			},
			Action:    types.AssignAction{Criteria: types.SelectLeastLoadedSenior},
			CreatedAt: now,
		},
		{
			ID:       "auto-respond-new-tickets",
			Name:     "Welcome response for new tickets",
			Priority: 2,
			IsActive: true,
			Conditions: []types.Condition{
				types.NewTicketCondition{},
				types.ChannelCondition{Channels: []string{"any"}},
			},
			Action:    types.SendTemplateAction{TemplateID: "welcome-response"},
			CreatedAt: now,
		},
		{
			ID:       "escalate-urgent",
			Name:     "Escalate urgent long-open tickets",
			Priority: 3,
			IsActive: true,
			Conditions: []types.Condition{
				types.UrgencyCondition{GTE: &gte8},
				types.TimeOpenCondition{MinOpen: types.Duration(time.Hour)},
			},
			Action:    types.EscalateAction{NotifyManagement: true},
			CreatedAt: now,
		},
		{
			ID:       "ai-response-negative",
			Name:     "Suggest empathetic response for negative sentiment",
			Priority: 4,
			IsActive: true,
			Conditions: []types.Condition{
				types.SentimentCondition{Sentiment: types.SentimentNegative},
			},
			Action:    types.AIResponseAction{Tone: "empathetic", MaxLength: 500},
			CreatedAt: now,
		},
	}
}
