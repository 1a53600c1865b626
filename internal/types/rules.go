package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// Condition is one predicate of an automation rule. A rule's condition
// set is evaluated with AND semantics; an empty set always matches.
type Condition interface {
	// Kind returns the wire tag for this condition variant
	Kind() string
}

// PriorityCondition matches tickets with an exact priority
type PriorityCondition struct {
	Priority TicketPriority `json:"priority"`
}

func (PriorityCondition) Kind() string { return "priority" }

// ChannelCondition matches tickets whose channel is in Channels.
// The sentinel value "any" (or an empty list) matches every channel.
type ChannelCondition struct {
	Channels []string `json:"channels"`
}

func (ChannelCondition) Kind() string { return "channel" }

// UrgencyCondition range-checks the ticket's urgency score
type UrgencyCondition struct {
	GTE *int `json:"gte,omitempty"`
	LTE *int `json:"lte,omitempty"`
}

func (UrgencyCondition) Kind() string { return "urgencyScore" }

// SentimentCondition matches tickets with an exact sentiment
type SentimentCondition struct {
	Sentiment Sentiment `json:"sentiment"`
}

func (SentimentCondition) Kind() string { return "sentiment" }

// TimeOpenCondition matches tickets that have been open at least MinOpen
type TimeOpenCondition struct {
	MinOpen Duration `json:"gte"`
}

func (TimeOpenCondition) Kind() string { return "timeOpen" }

// NewTicketCondition matches tickets created within the new-ticket window
type NewTicketCondition struct{}

func (NewTicketCondition) Kind() string { return "isNewTicket" }

// SelectionCriteria names an agent-selection strategy for assign actions
type SelectionCriteria string

const (
	SelectLeastLoadedSenior SelectionCriteria = "least_loaded_senior_agent"
	SelectPriorityBased     SelectionCriteria = "priority_based"

	// SelectRoundRobin is historical naming: the reference behavior is an
	// unweighted random pick over non-admin agents with no rotation state.
	SelectRoundRobin SelectionCriteria = "round_robin"
)

// Action is the tagged action descriptor of an automation rule
type Action interface {
	// Kind returns the wire tag for this action variant
	Kind() string
}

// AssignAction assigns the ticket to an agent chosen by Criteria
type AssignAction struct {
	Criteria SelectionCriteria `json:"criteria"`
}

func (AssignAction) Kind() string { return "assign" }

// SendTemplateAction appends a canned response looked up by template id
type SendTemplateAction struct {
	TemplateID string `json:"templateId"`
}

func (SendTemplateAction) Kind() string { return "send_template" }

// EscalateAction marks the ticket escalated, optionally notifying management
type EscalateAction struct {
	NotifyManagement bool `json:"notifyManagement"`
}

func (EscalateAction) Kind() string { return "escalate" }

// AIResponseAction synthesizes a tone-aware suggested response
type AIResponseAction struct {
	Tone      string `json:"tone"`
	MaxLength int    `json:"maxLength"`
}

func (AIResponseAction) Kind() string { return "ai_response" }

// AutomationRule is one priority-ordered condition/action pair.
// Lower Priority values are evaluated first; ties keep definition order.
type AutomationRule struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Conditions []Condition `json:"conditions"`
	Action     Action      `json:"action"`
	IsActive   bool        `json:"isActive"`
	Priority   int         `json:"priority"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// Validate reports whether the rule is well-formed enough to evaluate
func (r AutomationRule) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("rule has no id")
	}
	if r.Action == nil {
		return fmt.Errorf("rule %s has no action", r.ID)
	}
	for _, c := range r.Conditions {
		if c == nil {
			return fmt.Errorf("rule %s has a nil condition", r.ID)
		}
	}
	if a, ok := r.Action.(AIResponseAction); ok && a.MaxLength < 0 {
		return fmt.Errorf("rule %s has negative maxLength", r.ID)
	}
	return nil
}

// Duration marshals a time.Duration as integer milliseconds, matching
// how rule definitions store elapsed-time thresholds.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).Milliseconds())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var ms int64
	if err := json.Unmarshal(b, &ms); err != nil {
		return err
	}
	*d = Duration(time.Duration(ms) * time.Millisecond)
	return nil
}

type conditionEnvelope struct {
	Kind string          `json:"kind"`
	Body json.RawMessage `json:"-"`
}

// MarshalJSON encodes the rule with kind-tagged condition and action envelopes
func (r AutomationRule) MarshalJSON() ([]byte, error) {
	type wireRule struct {
		ID         string            `json:"id"`
		Name       string            `json:"name"`
		Conditions []json.RawMessage `json:"conditions"`
		Action     json.RawMessage   `json:"action"`
		IsActive   bool              `json:"isActive"`
		Priority   int               `json:"priority"`
		CreatedAt  time.Time         `json:"createdAt"`
	}
	w := wireRule{
		ID:        r.ID,
		Name:      r.Name,
		IsActive:  r.IsActive,
		Priority:  r.Priority,
		CreatedAt: r.CreatedAt,
	}
	for _, c := range r.Conditions {
		raw, err := marshalTagged(c.Kind(), c)
		if err != nil {
			return nil, err
		}
		w.Conditions = append(w.Conditions, raw)
	}
	if r.Action != nil {
		raw, err := marshalTagged(r.Action.Kind(), r.Action)
		if err != nil {
			return nil, err
		}
		w.Action = raw
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes kind-tagged envelopes back into the typed AST.
// An unknown kind is an error; callers treat it as a malformed rule.
func (r *AutomationRule) UnmarshalJSON(b []byte) error {
	type wireRule struct {
		ID         string            `json:"id"`
		Name       string            `json:"name"`
		Conditions []json.RawMessage `json:"conditions"`
		Action     json.RawMessage   `json:"action"`
		IsActive   bool              `json:"isActive"`
		Priority   int               `json:"priority"`
		CreatedAt  time.Time         `json:"createdAt"`
	}
	var w wireRule
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	r.ID = w.ID
	r.Name = w.Name
	r.IsActive = w.IsActive
	r.Priority = w.Priority
	r.CreatedAt = w.CreatedAt
	r.Conditions = nil
	for _, raw := range w.Conditions {
		c, err := unmarshalCondition(raw)
		if err != nil {
			return err
		}
		r.Conditions = append(r.Conditions, c)
	}
	if len(w.Action) > 0 {
		a, err := unmarshalAction(w.Action)
		if err != nil {
			return err
		}
		r.Action = a
	}
	return nil
}

func marshalTagged(kind string, v any) (json.RawMessage, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	// Splice the kind tag into the object
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]json.RawMessage{}
	}
	kindRaw, _ := json.Marshal(kind)
	fields["kind"] = kindRaw
	return json.Marshal(fields)
}

func unmarshalCondition(raw json.RawMessage) (Condition, error) {
	var env conditionEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	var c Condition
	switch env.Kind {
	case "priority":
		var v PriorityCondition
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		c = v
	case "channel":
		var v ChannelCondition
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		c = v
	case "urgencyScore":
		var v UrgencyCondition
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		c = v
	case "sentiment":
		var v SentimentCondition
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		c = v
	case "timeOpen":
		var v TimeOpenCondition
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		c = v
	case "isNewTicket":
		c = NewTicketCondition{}
	default:
		return nil, fmt.Errorf("unknown condition kind %q", env.Kind)
	}
	return c, nil
}

func unmarshalAction(raw json.RawMessage) (Action, error) {
	var env conditionEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	var a Action
	switch env.Kind {
	case "assign":
		var v AssignAction
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		a = v
	case "send_template":
		var v SendTemplateAction
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		a = v
	case "escalate":
		var v EscalateAction
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		a = v
	case "ai_response":
		var v AIResponseAction
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		a = v
	default:
		return nil, fmt.Errorf("unknown action kind %q", env.Kind)
	}
	return a, nil
}
