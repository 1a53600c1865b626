package mailer

import (
	"context"
	"fmt"
	"net/http"

	"github.com/luminadesk/backend/internal/types"
	sendgrid "github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridProvider sends through the SendGrid v3 API
type SendGridProvider struct {
	apiKey string
}

func NewSendGridProvider(apiKey string) *SendGridProvider {
	return &SendGridProvider{apiKey: apiKey}
}

func (p *SendGridProvider) Name() ProviderName { return ProviderSendGrid }

func (p *SendGridProvider) Configured() bool { return p.apiKey != "" }

func (p *SendGridProvider) Send(ctx context.Context, data types.EmailData) SendOutcome {
	data = normalize(data)

	msg := mail.NewV3Mail()
	msg.SetFrom(mail.NewEmail("", data.From))
	msg.Subject = data.Subject

	pers := mail.NewPersonalization()
	pers.AddTos(mail.NewEmail("", data.To))
	for _, cc := range data.CC {
		pers.AddCCs(mail.NewEmail("", cc))
	}
	for _, bcc := range data.BCC {
		pers.AddBCCs(mail.NewEmail("", bcc))
	}
	msg.AddPersonalizations(pers)

	msg.AddContent(mail.NewContent("text/plain", data.Text))
	if data.HTML != "" {
		msg.AddContent(mail.NewContent("text/html", data.HTML))
	}

	client := sendgrid.NewSendClient(p.apiKey)
	resp, err := client.SendWithContext(ctx, msg)
	if err != nil {
		return failure(err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return SendOutcome{Success: true, StatusCode: resp.StatusCode}
	}
	return SendOutcome{
		StatusCode: resp.StatusCode,
		Error:      fmt.Sprintf("sendgrid returned %d: %s", resp.StatusCode, resp.Body),
		// 401 covers both invalid keys and IP access restrictions
		AuthFailure: resp.StatusCode == http.StatusUnauthorized,
	}
}
