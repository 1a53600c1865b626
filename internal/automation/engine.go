package automation

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/luminadesk/backend/internal/metrics"
	"github.com/luminadesk/backend/internal/types"
	"github.com/rs/zerolog"
)

// NewTicketWindow is how long after creation a ticket counts as new
const NewTicketWindow = 5 * time.Minute

// RuleSource supplies the current rule list. Implementations return a
// snapshot; the engine never mutates it.
type RuleSource interface {
	Rules() []types.AutomationRule
}

// Notifier receives fire-and-forget management notifications for
// escalations. Implementations must not block or panic into the engine.
type Notifier interface {
	NotifyManagement(ticket types.Ticket, ruleName string)
}

// Result is the decision produced by one ProcessTicket call
type Result struct {
	AssignedAgentID string   `json:"assignedAgentId,omitempty"`
	AutoResponses   []string `json:"autoResponses"`
	Escalated       bool     `json:"escalated"`
	AISuggestions   []string `json:"aiSuggestions"`
}

// Engine evaluates automation rules against tickets. It holds no state
// across calls beyond the read-only rule source, so ProcessTicket is
// safe to invoke concurrently for different tickets.
type Engine struct {
	rules    RuleSource
	notifier Notifier
	metrics  *metrics.Metrics
	logger   zerolog.Logger

	// rng backs the round_robin criterion's random pick. Guarded by mu
	// because rand.Rand is not safe for concurrent use.
	mu  sync.Mutex
	rng *rand.Rand
}

// NewEngine creates a rule engine. notifier may be nil when escalation
// notifications are not wired.
func NewEngine(rules RuleSource, notifier Notifier, m *metrics.Metrics, logger zerolog.Logger) *Engine {
	return &Engine{
		rules:    rules,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ProcessTicket evaluates every active rule against the ticket in
// priority order and returns the combined decision. Malformed rules are
// skipped; no failure escapes this method.
func (e *Engine) ProcessTicket(ticket types.Ticket, agents []types.Agent) Result {
	result := Result{
		AutoResponses: []string{},
		AISuggestions: []string{},
	}

	active := make([]types.AutomationRule, 0)
	for _, r := range e.rules.Rules() {
		if r.IsActive {
			active = append(active, r)
		}
	}
	// Stable sort: equal priorities keep definition order
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Priority < active[j].Priority
	})

	now := time.Now()
	for _, rule := range active {
		e.applyRule(rule, ticket, agents, now, &result)
	}
	return result
}

// applyRule evaluates and executes a single rule. The recover keeps a
// broken rule from taking down the whole ProcessTicket call.
func (e *Engine) applyRule(rule types.AutomationRule, ticket types.Ticket, agents []types.Agent, now time.Time, result *Result) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().
				Str("rule_id", rule.ID).
				Interface("panic", r).
				Msg("rule evaluation panicked, skipping")
		}
	}()

	if err := rule.Validate(); err != nil {
		e.logger.Warn().Err(err).Str("rule_id", rule.ID).Msg("skipping malformed rule")
		e.metrics.RecordRuleSkipped()
		return
	}
	e.metrics.RecordRuleEvaluated()

	if !matchesConditions(rule.Conditions, ticket, now) {
		return
	}
	e.metrics.RecordRuleMatched()

	switch action := rule.Action.(type) {
	case types.AssignAction:
		// At most one assignment per ProcessTicket call, and never over
		// an existing assignment.
		if ticket.AssignedAgentID != "" || result.AssignedAgentID != "" {
			return
		}
		if agent := e.findBestAgent(action.Criteria, agents, ticket); agent != nil {
			result.AssignedAgentID = agent.ID
			e.metrics.RecordAssignment()
			e.logger.Info().
				Str("ticket_id", ticket.ID).
				Str("agent_id", agent.ID).
				Str("rule", rule.Name).
				Msg("ticket auto-assigned")
		}

	case types.SendTemplateAction:
		// Unknown template ids are a silent no-op
		if text, ok := ResponseTemplates[action.TemplateID]; ok {
			result.AutoResponses = append(result.AutoResponses, text)
		}

	case types.EscalateAction:
		result.Escalated = true
		if action.NotifyManagement && e.notifier != nil {
			e.notifier.NotifyManagement(ticket, rule.Name)
		}

	case types.AIResponseAction:
		result.AISuggestions = append(result.AISuggestions,
			synthesizeResponse(action.Tone, ticket, action.MaxLength))
	}
}
