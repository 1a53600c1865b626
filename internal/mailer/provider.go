package mailer

import (
	"context"
	"strings"

	"github.com/luminadesk/backend/internal/types"
)

// SendOutcome is the normalized result of one provider attempt.
// Provider-specific errors are flattened into a message string for
// logging; nothing provider-shaped escapes the dispatcher.
type SendOutcome struct {
	Success     bool
	StatusCode  int
	Error       string
	AuthFailure bool
}

// Provider is the capability contract one email provider implements.
// Adding a provider means adding one implementation, not editing a
// central switch.
type Provider interface {
	Name() ProviderName
	// Configured reports whether the provider has the credentials it
	// needs. An unconfigured provider is never attempted.
	Configured() bool
	Send(ctx context.Context, data types.EmailData) SendOutcome
}

// normalize trims addresses and drops empty optional fields before any
// vendor call sees the payload.
func normalize(data types.EmailData) types.EmailData {
	data.To = strings.TrimSpace(data.To)
	data.From = strings.TrimSpace(data.From)
	data.CC = cleanAddresses(data.CC)
	data.BCC = cleanAddresses(data.BCC)
	return data
}

func cleanAddresses(addrs []string) []string {
	var out []string
	for _, a := range addrs {
		a = strings.TrimSpace(a)
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

func failure(err error) SendOutcome {
	return SendOutcome{Error: err.Error()}
}
