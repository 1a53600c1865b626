package automation

import (
	"bytes"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/luminadesk/backend/internal/metrics"
	"github.com/luminadesk/backend/internal/types"
	"github.com/rs/zerolog"
)

type staticRules []types.AutomationRule

func (s staticRules) Rules() []types.AutomationRule { return s }

type recordingNotifier struct {
	tickets []string
	rules   []string
}

func (n *recordingNotifier) NotifyManagement(ticket types.Ticket, ruleName string) {
	n.tickets = append(n.tickets, ticket.ID)
	n.rules = append(n.rules, ruleName)
}

func testEngine(rules []types.AutomationRule, notifier Notifier) (*Engine, *metrics.Metrics) {
	m := metrics.New()
	logger := zerolog.New(&bytes.Buffer{})
	return NewEngine(staticRules(rules), notifier, m, logger), m
}

func assignRule(id string, priority int, conditions ...types.Condition) types.AutomationRule {
	return types.AutomationRule{
		ID:         id,
		Name:       id,
		Conditions: conditions,
		Action:     types.AssignAction{Criteria: types.SelectLeastLoadedSenior},
		IsActive:   true,
		Priority:   priority,
	}
}

func testAgents() []types.Agent {
	return []types.Agent{
		{ID: "agent-1", Name: "Ana", Role: types.RoleAgent},
		{ID: "agent-2", Name: "Sam", Role: types.RoleSeniorAgent},
		{ID: "agent-3", Name: "Kim", Role: types.RoleAdmin},
	}
}

func TestProcessTicketAssignsSeniorForHighPriority(t *testing.T) {
	engine, m := testEngine([]types.AutomationRule{
		assignRule("r1", 1, types.PriorityCondition{Priority: types.PriorityHigh}),
	}, nil)

	ticket := types.Ticket{
		ID:        "t1",
		Priority:  types.PriorityHigh,
		CreatedAt: time.Now(),
	}
	result := engine.ProcessTicket(ticket, testAgents())

	if result.AssignedAgentID != "agent-2" {
		t.Errorf("expected senior agent-2 assigned, got %q", result.AssignedAgentID)
	}
	if m.AssignmentsTotal != 1 {
		t.Errorf("expected 1 assignment recorded, got %d", m.AssignmentsTotal)
	}
}

func TestProcessTicketNoMatchNoAssignment(t *testing.T) {
	engine, _ := testEngine([]types.AutomationRule{
		assignRule("r1", 1, types.PriorityCondition{Priority: types.PriorityHigh}),
	}, nil)

	ticket := types.Ticket{ID: "t1", Priority: types.PriorityLow, CreatedAt: time.Now()}
	result := engine.ProcessTicket(ticket, testAgents())

	if result.AssignedAgentID != "" {
		t.Errorf("expected no assignment, got %q", result.AssignedAgentID)
	}
}

func TestProcessTicketAtMostOneAssignment(t *testing.T) {
	engine, m := testEngine([]types.AutomationRule{
		assignRule("first", 1),
		assignRule("second", 2),
	}, nil)

	ticket := types.Ticket{ID: "t1", Priority: types.PriorityHigh, CreatedAt: time.Now()}
	result := engine.ProcessTicket(ticket, testAgents())

	if result.AssignedAgentID == "" {
		t.Fatal("expected an assignment")
	}
	if m.AssignmentsTotal != 1 {
		t.Errorf("expected exactly 1 assignment, got %d", m.AssignmentsTotal)
	}
}

func TestProcessTicketNeverOverwritesExistingAssignment(t *testing.T) {
	engine, m := testEngine([]types.AutomationRule{assignRule("r1", 1)}, nil)

	ticket := types.Ticket{
		ID:              "t1",
		AssignedAgentID: "agent-9",
		CreatedAt:       time.Now(),
	}
	result := engine.ProcessTicket(ticket, testAgents())

	if result.AssignedAgentID != "" {
		t.Errorf("expected no new assignment, got %q", result.AssignedAgentID)
	}
	if m.AssignmentsTotal != 0 {
		t.Errorf("expected 0 assignments recorded, got %d", m.AssignmentsTotal)
	}
}

func TestProcessTicketPriorityOrder(t *testing.T) {
	templateRule := func(id string, priority int, templateID string) types.AutomationRule {
		return types.AutomationRule{
			ID:       id,
			Name:     id,
			Action:   types.SendTemplateAction{TemplateID: templateID},
			IsActive: true,
			Priority: priority,
		}
	}
	engine, _ := testEngine([]types.AutomationRule{
		templateRule("later", 5, "resolution-followup"),
		templateRule("earlier", 1, "welcome-response"),
	}, nil)

	result := engine.ProcessTicket(types.Ticket{ID: "t1", CreatedAt: time.Now()}, nil)

	if len(result.AutoResponses) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(result.AutoResponses))
	}
	if result.AutoResponses[0] != ResponseTemplates["welcome-response"] {
		t.Errorf("expected priority 1 rule to run first")
	}
}

func TestProcessTicketEqualPrioritiesKeepDefinitionOrder(t *testing.T) {
	templateRule := func(id, templateID string) types.AutomationRule {
		return types.AutomationRule{
			ID:       id,
			Name:     id,
			Action:   types.SendTemplateAction{TemplateID: templateID},
			IsActive: true,
			Priority: 3,
		}
	}
	engine, _ := testEngine([]types.AutomationRule{
		templateRule("a", "welcome-response"),
		templateRule("b", "high-priority-ack"),
	}, nil)

	result := engine.ProcessTicket(types.Ticket{ID: "t1", CreatedAt: time.Now()}, nil)

	if len(result.AutoResponses) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(result.AutoResponses))
	}
	if result.AutoResponses[0] != ResponseTemplates["welcome-response"] ||
		result.AutoResponses[1] != ResponseTemplates["high-priority-ack"] {
		t.Errorf("equal-priority rules ran out of definition order")
	}
}

func TestProcessTicketSkipsInactiveRules(t *testing.T) {
	rule := assignRule("r1", 1)
	rule.IsActive = false
	engine, m := testEngine([]types.AutomationRule{rule}, nil)

	result := engine.ProcessTicket(types.Ticket{ID: "t1", CreatedAt: time.Now()}, testAgents())

	if result.AssignedAgentID != "" {
		t.Errorf("inactive rule fired an assignment")
	}
	if m.RulesEvaluatedTotal != 0 {
		t.Errorf("inactive rule should not be evaluated, got %d", m.RulesEvaluatedTotal)
	}
}

func TestProcessTicketSkipsMalformedRule(t *testing.T) {
	malformed := types.AutomationRule{
		ID:       "broken",
		Name:     "broken",
		IsActive: true,
		Priority: 1,
		// no action
	}
	good := types.AutomationRule{
		ID:       "good",
		Name:     "good",
		Action:   types.SendTemplateAction{TemplateID: "welcome-response"},
		IsActive: true,
		Priority: 2,
	}
	engine, m := testEngine([]types.AutomationRule{malformed, good}, nil)

	result := engine.ProcessTicket(types.Ticket{ID: "t1", CreatedAt: time.Now()}, nil)

	if m.RulesSkippedTotal != 1 {
		t.Errorf("expected 1 rule skipped, got %d", m.RulesSkippedTotal)
	}
	if len(result.AutoResponses) != 1 {
		t.Errorf("later rules should still run after a malformed one, got %d responses", len(result.AutoResponses))
	}
}

func TestProcessTicketUnknownTemplateIsNoOp(t *testing.T) {
	rule := types.AutomationRule{
		ID:       "r1",
		Name:     "r1",
		Action:   types.SendTemplateAction{TemplateID: "does-not-exist"},
		IsActive: true,
		Priority: 1,
	}
	engine, _ := testEngine([]types.AutomationRule{rule}, nil)

	result := engine.ProcessTicket(types.Ticket{ID: "t1", CreatedAt: time.Now()}, nil)

	if len(result.AutoResponses) != 0 {
		t.Errorf("unknown template id produced a response: %v", result.AutoResponses)
	}
}

func TestProcessTicketEscalateNotifiesManagement(t *testing.T) {
	notifier := &recordingNotifier{}
	rule := types.AutomationRule{
		ID:       "escalate",
		Name:     "escalate-urgent",
		Action:   types.EscalateAction{NotifyManagement: true},
		IsActive: true,
		Priority: 1,
	}
	engine, _ := testEngine([]types.AutomationRule{rule}, notifier)

	result := engine.ProcessTicket(types.Ticket{ID: "t1", CreatedAt: time.Now()}, nil)

	if !result.Escalated {
		t.Error("expected ticket to be escalated")
	}
	if len(notifier.tickets) != 1 || notifier.tickets[0] != "t1" {
		t.Errorf("expected one notification for t1, got %v", notifier.tickets)
	}
	if notifier.rules[0] != "escalate-urgent" {
		t.Errorf("expected notification to name the rule, got %q", notifier.rules[0])
	}
}

func TestProcessTicketEscalateWithoutNotify(t *testing.T) {
	notifier := &recordingNotifier{}
	rule := types.AutomationRule{
		ID:       "escalate",
		Name:     "escalate",
		Action:   types.EscalateAction{NotifyManagement: false},
		IsActive: true,
		Priority: 1,
	}
	engine, _ := testEngine([]types.AutomationRule{rule}, notifier)

	result := engine.ProcessTicket(types.Ticket{ID: "t1", CreatedAt: time.Now()}, nil)

	if !result.Escalated {
		t.Error("expected ticket to be escalated")
	}
	if len(notifier.tickets) != 0 {
		t.Errorf("notification sent despite notifyManagement=false")
	}
}

func TestProcessTicketAIResponseTruncation(t *testing.T) {
	rule := types.AutomationRule{
		ID:       "ai",
		Name:     "ai",
		Action:   types.AIResponseAction{Tone: "empathetic", MaxLength: 50},
		IsActive: true,
		Priority: 1,
	}
	engine, _ := testEngine([]types.AutomationRule{rule}, nil)

	result := engine.ProcessTicket(types.Ticket{
		ID:           "t1",
		CustomerName: "Pat",
		Sentiment:    types.SentimentNegative,
		CreatedAt:    time.Now(),
	}, nil)

	if len(result.AISuggestions) != 1 {
		t.Fatalf("expected 1 suggestion, got %d", len(result.AISuggestions))
	}
	got := result.AISuggestions[0]
	if len(got) != 50 {
		t.Errorf("expected suggestion truncated to 50 chars, got %d", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected ellipsis suffix, got %q", got)
	}
}

func TestProcessTicketAIResponseNoLimit(t *testing.T) {
	rule := types.AutomationRule{
		ID:       "ai",
		Name:     "ai",
		Action:   types.AIResponseAction{Tone: "friendly"},
		IsActive: true,
		Priority: 1,
	}
	engine, _ := testEngine([]types.AutomationRule{rule}, nil)

	result := engine.ProcessTicket(types.Ticket{ID: "t1", CreatedAt: time.Now()}, nil)

	if len(result.AISuggestions) != 1 {
		t.Fatalf("expected 1 suggestion, got %d", len(result.AISuggestions))
	}
	if strings.HasSuffix(result.AISuggestions[0], "...") {
		t.Errorf("maxLength 0 should not truncate")
	}
}

func TestTruncateWithEllipsisMultibyte(t *testing.T) {
	s := strings.Repeat("ü", 40)
	got := truncateWithEllipsis(s, 20)

	if !utf8.ValidString(got) {
		t.Fatalf("truncation produced invalid UTF-8: %q", got)
	}
	if utf8.RuneCountInString(got) != 20 {
		t.Errorf("expected 20 runes, got %d", utf8.RuneCountInString(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected ellipsis suffix, got %q", got)
	}
}

func TestFindBestAgentRoundRobinExcludesAdmins(t *testing.T) {
	engine, _ := testEngine(nil, nil)
	agents := []types.Agent{
		{ID: "admin-1", Role: types.RoleAdmin},
		{ID: "admin-2", Role: types.RoleAdmin},
	}
	if got := engine.findBestAgent(types.SelectRoundRobin, agents, types.Ticket{}); got != nil {
		t.Errorf("round robin over admins only should yield nil, got %v", got)
	}

	agents = append(agents, types.Agent{ID: "agent-1", Role: types.RoleAgent})
	for i := 0; i < 20; i++ {
		got := engine.findBestAgent(types.SelectRoundRobin, agents, types.Ticket{})
		if got == nil || got.ID != "agent-1" {
			t.Fatalf("round robin picked an admin: %v", got)
		}
	}
}

func TestFindBestAgentPriorityBased(t *testing.T) {
	engine, _ := testEngine(nil, nil)
	agents := testAgents()

	high := engine.findBestAgent(types.SelectPriorityBased, agents, types.Ticket{Priority: types.PriorityHigh})
	if high == nil || high.ID != "agent-2" {
		t.Errorf("high priority should prefer a senior, got %v", high)
	}

	low := engine.findBestAgent(types.SelectPriorityBased, agents, types.Ticket{Priority: types.PriorityLow})
	if low == nil || low.ID != "agent-1" {
		t.Errorf("low priority should take the first agent, got %v", low)
	}
}

func TestFindBestAgentEmptyRoster(t *testing.T) {
	engine, _ := testEngine(nil, nil)
	if got := engine.findBestAgent(types.SelectLeastLoadedSenior, nil, types.Ticket{}); got != nil {
		t.Errorf("empty roster should yield nil, got %v", got)
	}
}

func TestDefaultRulesScenario(t *testing.T) {
	now := time.Now()
	notifier := &recordingNotifier{}
	engine, _ := testEngine(DefaultRules(now), notifier)

	// A fresh high-priority ticket: assignment plus welcome response,
	// no escalation yet.
	fresh := types.Ticket{
		ID:        "t1",
		Priority:  types.PriorityHigh,
		Channel:   "email",
		CreatedAt: now.Add(-1 * time.Minute),
	}
	result := engine.ProcessTicket(fresh, testAgents())

	if result.AssignedAgentID != "agent-2" {
		t.Errorf("expected senior assignment, got %q", result.AssignedAgentID)
	}
	if len(result.AutoResponses) != 1 || result.AutoResponses[0] != ResponseTemplates["welcome-response"] {
		t.Errorf("expected welcome response, got %v", result.AutoResponses)
	}
	if result.Escalated {
		t.Error("fresh ticket should not be escalated")
	}

	// An old, urgent, negative ticket: escalation with notification and
	// an AI suggestion, no welcome response.
	stale := types.Ticket{
		ID:           "t2",
		Priority:     types.PriorityMedium,
		UrgencyScore: 9,
		Sentiment:    types.SentimentNegative,
		CreatedAt:    now.Add(-2 * time.Hour),
	}
	result = engine.ProcessTicket(stale, testAgents())

	if !result.Escalated {
		t.Error("expected stale urgent ticket to escalate")
	}
	if len(notifier.tickets) != 1 || notifier.tickets[0] != "t2" {
		t.Errorf("expected management notification for t2, got %v", notifier.tickets)
	}
	if len(result.AutoResponses) != 0 {
		t.Errorf("stale ticket should not get the welcome response, got %v", result.AutoResponses)
	}
	if len(result.AISuggestions) != 1 {
		t.Errorf("expected AI suggestion for negative sentiment, got %d", len(result.AISuggestions))
	}
}

func TestDefaultRulesAssignAndEscalateInOnePass(t *testing.T) {
	now := time.Now()
	notifier := &recordingNotifier{}
	engine, _ := testEngine(DefaultRules(now), notifier)

	// High priority, urgency 9, open for 90 minutes: the assignment
	// rule and the escalation rule both fire on the same ticket.
	ticket := types.Ticket{
		ID:           "t3",
		Priority:     types.PriorityHigh,
		UrgencyScore: 9,
		Channel:      "email",
		CreatedAt:    now.Add(-90 * time.Minute),
	}
	result := engine.ProcessTicket(ticket, testAgents())

	if result.AssignedAgentID != "agent-2" {
		t.Errorf("expected senior assignment, got %q", result.AssignedAgentID)
	}
	if !result.Escalated {
		t.Error("expected escalation in the same pass as the assignment")
	}
	if len(notifier.tickets) != 1 || notifier.tickets[0] != "t3" {
		t.Errorf("expected one management notification for t3, got %v", notifier.tickets)
	}
}
