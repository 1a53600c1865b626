package automation

import (
	"fmt"
	"strings"

	"github.com/luminadesk/backend/internal/types"
)

// ResponseTemplates is the fixed table of canned auto-responses keyed
// by template id. Unknown ids are silently skipped by the engine.
var ResponseTemplates = map[string]string{
	"welcome-response": "Thank you for contacting support. We have received your " +
		"request and a member of our team will get back to you shortly.",
	"high-priority-ack": "We have flagged your request as high priority. An agent " +
		"is reviewing it now and you will hear from us as soon as possible.",
	"resolution-followup": "Your ticket has been resolved. If anything still looks " +
		"wrong, just reply to this message and we will reopen it.",
}

// findBestAgent selects an agent according to the rule's criteria.
// Selection is deterministic and order-stable for every criterion
// except round_robin, which preserves the reference behavior of an
// unweighted random pick over non-admin agents.
func (e *Engine) findBestAgent(criteria types.SelectionCriteria, agents []types.Agent, ticket types.Ticket) *types.Agent {
	if len(agents) == 0 {
		return nil
	}

	switch criteria {
	case types.SelectLeastLoadedSenior:
		return preferSenior(agents)

	case types.SelectPriorityBased:
		if ticket.Priority == types.PriorityHigh {
			return preferSenior(agents)
		}
		return &agents[0]

	case types.SelectRoundRobin:
		eligible := make([]int, 0, len(agents))
		for i, a := range agents {
			if a.Role != types.RoleAdmin {
				eligible = append(eligible, i)
			}
		}
		if len(eligible) == 0 {
			return nil
		}
		e.mu.Lock()
		idx := eligible[e.rng.Intn(len(eligible))]
		e.mu.Unlock()
		return &agents[idx]

	default:
		return &agents[0]
	}
}

// preferSenior returns the first senior or lead agent, falling back to
// the first agent overall.
func preferSenior(agents []types.Agent) *types.Agent {
	for i := range agents {
		if agents[i].Role.IsSenior() {
			return &agents[i]
		}
	}
	return &agents[0]
}

// synthesizeResponse builds a canned, tone-aware suggested reply from
// local heuristics. There is no model call behind this.
func synthesizeResponse(tone string, ticket types.Ticket, maxLength int) string {
	var b strings.Builder

	switch tone {
	case "empathetic":
		b.WriteString(fmt.Sprintf("Hi %s, we're really sorry you're running into this. ", displayName(ticket)))
	case "friendly":
		b.WriteString(fmt.Sprintf("Hey %s, thanks for reaching out! ", displayName(ticket)))
	default:
		b.WriteString(fmt.Sprintf("Hello %s, thank you for contacting us. ", displayName(ticket)))
	}

	if ticket.Sentiment == types.SentimentNegative {
		b.WriteString("We understand this has been frustrating, and we apologize for the inconvenience. ")
	}

	if ticket.Priority == types.PriorityHigh {
		b.WriteString("Your request has been marked high priority and is being handled ahead of the queue. ")
	} else {
		b.WriteString("We're looking into your request and will follow up with details soon. ")
	}

	b.WriteString("If you have any additional information that could help, please reply to this message.")

	return truncateWithEllipsis(b.String(), maxLength)
}

// truncateWithEllipsis limits a string to maxLength runes. Cutting on
// runes rather than bytes keeps multibyte text valid UTF-8.
func truncateWithEllipsis(s string, maxLength int) string {
	if maxLength <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(runes[:maxLength])
	}
	return string(runes[:maxLength-3]) + "..."
}

func displayName(ticket types.Ticket) string {
	if ticket.CustomerName != "" {
		return ticket.CustomerName
	}
	return "there"
}
