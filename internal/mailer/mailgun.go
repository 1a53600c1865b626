package mailer

import (
	"context"

	"github.com/luminadesk/backend/internal/types"
	"github.com/mailgun/mailgun-go/v4"
)

// MailgunProvider sends through the Mailgun messages API
type MailgunProvider struct {
	domain string
	apiKey string
}

func NewMailgunProvider(domain, apiKey string) *MailgunProvider {
	return &MailgunProvider{domain: domain, apiKey: apiKey}
}

func (p *MailgunProvider) Name() ProviderName { return ProviderMailgun }

func (p *MailgunProvider) Configured() bool {
	return p.domain != "" && p.apiKey != ""
}

func (p *MailgunProvider) Send(ctx context.Context, data types.EmailData) SendOutcome {
	data = normalize(data)

	mg := mailgun.NewMailgun(p.domain, p.apiKey)
	msg := mg.NewMessage(data.From, data.Subject, data.Text, data.To)
	for _, cc := range data.CC {
		msg.AddCC(cc)
	}
	for _, bcc := range data.BCC {
		msg.AddBCC(bcc)
	}
	if data.HTML != "" {
		msg.SetHtml(data.HTML)
	}

	if _, _, err := mg.Send(ctx, msg); err != nil {
		return failure(err)
	}
	return SendOutcome{Success: true}
}
