package types

import "time"

// TicketStatus represents the lifecycle state of a ticket
type TicketStatus string

const (
	StatusOpen       TicketStatus = "open"
	StatusInProgress TicketStatus = "in-progress"
	StatusResolved   TicketStatus = "resolved"
	StatusClosed     TicketStatus = "closed"
)

// TicketPriority represents the priority of a ticket
type TicketPriority string

const (
	PriorityLow    TicketPriority = "low"
	PriorityMedium TicketPriority = "medium"
	PriorityHigh   TicketPriority = "high"
)

// Sentiment is the classified tone of a customer message
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// DefaultUrgencyScore is assumed when a ticket carries no urgency score
const DefaultUrgencyScore = 5

// Ticket is a customer support request. Tickets are owned by the CRUD
// layer; the automation core only reads them and proposes mutations.
type Ticket struct {
	ID              string         `json:"id"`
	Subject         string         `json:"subject"`
	Description     string         `json:"description"`
	Status          TicketStatus   `json:"status"`
	Priority        TicketPriority `json:"priority"`
	Channel         string         `json:"channel"`
	CustomerName    string         `json:"customerName"`
	CustomerEmail   string         `json:"customerEmail"`
	AssignedAgentID string         `json:"assignedAgentId,omitempty"`
	AutoAssigned    bool           `json:"autoAssigned"`
	UrgencyScore    int            `json:"urgencyScore"` // 1-10, 0 means unset
	Sentiment       Sentiment      `json:"sentiment,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// EffectiveUrgency returns the ticket's urgency score, defaulting when unset
func (t Ticket) EffectiveUrgency() int {
	if t.UrgencyScore == 0 {
		return DefaultUrgencyScore
	}
	return t.UrgencyScore
}

// AgentRole represents an agent's role in the support organization
type AgentRole string

const (
	RoleAgent       AgentRole = "agent"
	RoleSeniorAgent AgentRole = "senior_agent"
	RoleLeadAgent   AgentRole = "lead_agent"
	RoleAdmin       AgentRole = "admin"
)

// IsSenior reports whether the role counts as senior for assignment purposes
func (r AgentRole) IsSenior() bool {
	return r == RoleSeniorAgent || r == RoleLeadAgent
}

// Agent is a member of the support roster. Availability is implied by
// role only; there is no live load tracking in the baseline design.
type Agent struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  AgentRole `json:"role"`
}
