package automation

import (
	"testing"
	"time"

	"github.com/luminadesk/backend/internal/types"
)

func TestMatchesConditions(t *testing.T) {
	now := time.Now()
	gte7, lte3 := 7, 3

	tests := []struct {
		name       string
		conditions []types.Condition
		ticket     types.Ticket
		want       bool
	}{
		{
			name:   "empty set matches everything",
			ticket: types.Ticket{},
			want:   true,
		},
		{
			name:       "priority match",
			conditions: []types.Condition{types.PriorityCondition{Priority: types.PriorityHigh}},
			ticket:     types.Ticket{Priority: types.PriorityHigh},
			want:       true,
		},
		{
			name:       "priority mismatch",
			conditions: []types.Condition{types.PriorityCondition{Priority: types.PriorityHigh}},
			ticket:     types.Ticket{Priority: types.PriorityLow},
			want:       false,
		},
		{
			name:       "channel any sentinel",
			conditions: []types.Condition{types.ChannelCondition{Channels: []string{"any"}}},
			ticket:     types.Ticket{Channel: "sms"},
			want:       true,
		},
		{
			name:       "channel list match",
			conditions: []types.Condition{types.ChannelCondition{Channels: []string{"email", "sms"}}},
			ticket:     types.Ticket{Channel: "sms"},
			want:       true,
		},
		{
			name:       "channel list mismatch",
			conditions: []types.Condition{types.ChannelCondition{Channels: []string{"email"}}},
			ticket:     types.Ticket{Channel: "twitter"},
			want:       false,
		},
		{
			name:       "empty channel list matches",
			conditions: []types.Condition{types.ChannelCondition{}},
			ticket:     types.Ticket{Channel: "twitter"},
			want:       true,
		},
		{
			name:       "urgency gte met",
			conditions: []types.Condition{types.UrgencyCondition{GTE: &gte7}},
			ticket:     types.Ticket{UrgencyScore: 8},
			want:       true,
		},
		{
			name:       "urgency gte unmet",
			conditions: []types.Condition{types.UrgencyCondition{GTE: &gte7}},
			ticket:     types.Ticket{UrgencyScore: 6},
			want:       false,
		},
		{
			name:       "urgency default score is 5",
			conditions: []types.Condition{types.UrgencyCondition{GTE: &gte7}},
			ticket:     types.Ticket{},
			want:       false,
		},
		{
			name:       "urgency lte unmet by default score",
			conditions: []types.Condition{types.UrgencyCondition{LTE: &lte3}},
			ticket:     types.Ticket{},
			want:       false,
		},
		{
			name:       "sentiment match",
			conditions: []types.Condition{types.SentimentCondition{Sentiment: types.SentimentNegative}},
			ticket:     types.Ticket{Sentiment: types.SentimentNegative},
			want:       true,
		},
		{
			name:       "time open met",
			conditions: []types.Condition{types.TimeOpenCondition{MinOpen: types.Duration(time.Hour)}},
			ticket:     types.Ticket{CreatedAt: now.Add(-2 * time.Hour)},
			want:       true,
		},
		{
			name:       "time open unmet",
			conditions: []types.Condition{types.TimeOpenCondition{MinOpen: types.Duration(time.Hour)}},
			ticket:     types.Ticket{CreatedAt: now.Add(-30 * time.Minute)},
			want:       false,
		},
		{
			name:       "new ticket inside window",
			conditions: []types.Condition{types.NewTicketCondition{}},
			ticket:     types.Ticket{CreatedAt: now.Add(-1 * time.Minute)},
			want:       true,
		},
		{
			name:       "new ticket outside window",
			conditions: []types.Condition{types.NewTicketCondition{}},
			ticket:     types.Ticket{CreatedAt: now.Add(-10 * time.Minute)},
			want:       false,
		},
		{
			name: "and semantics",
			conditions: []types.Condition{
				types.PriorityCondition{Priority: types.PriorityHigh},
				types.SentimentCondition{Sentiment: types.SentimentNegative},
			},
			ticket: types.Ticket{Priority: types.PriorityHigh, Sentiment: types.SentimentNeutral},
			want:   false,
		},
		{
			name:       "nil condition fails closed",
			conditions: []types.Condition{nil},
			ticket:     types.Ticket{},
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchesConditions(tt.conditions, tt.ticket, now); got != tt.want {
				t.Errorf("matchesConditions() = %v, want %v", got, tt.want)
			}
		})
	}
}
