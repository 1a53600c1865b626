package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/luminadesk/backend/internal/types"
)

const mailjetSendURL = "https://api.mailjet.com/v3.1/send"

// MailjetProvider sends through the Mailjet v3.1 send API. The API is a
// single authenticated POST, called directly rather than through an SDK.
type MailjetProvider struct {
	apiKey    string
	secretKey string
	client    *http.Client
}

func NewMailjetProvider(apiKey, secretKey string) *MailjetProvider {
	return &MailjetProvider{
		apiKey:    apiKey,
		secretKey: secretKey,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *MailjetProvider) Name() ProviderName { return ProviderMailjet }

func (p *MailjetProvider) Configured() bool {
	return p.apiKey != "" && p.secretKey != ""
}

type mailjetRecipient struct {
	Email string `json:"Email"`
}

type mailjetMessage struct {
	From     mailjetRecipient   `json:"From"`
	To       []mailjetRecipient `json:"To"`
	CC       []mailjetRecipient `json:"Cc,omitempty"`
	BCC      []mailjetRecipient `json:"Bcc,omitempty"`
	Subject  string             `json:"Subject"`
	TextPart string             `json:"TextPart"`
	HTMLPart string             `json:"HTMLPart,omitempty"`
}

func (p *MailjetProvider) Send(ctx context.Context, data types.EmailData) SendOutcome {
	data = normalize(data)

	msg := mailjetMessage{
		From:     mailjetRecipient{Email: data.From},
		To:       []mailjetRecipient{{Email: data.To}},
		Subject:  data.Subject,
		TextPart: data.Text,
		HTMLPart: data.HTML,
	}
	for _, cc := range data.CC {
		msg.CC = append(msg.CC, mailjetRecipient{Email: cc})
	}
	for _, bcc := range data.BCC {
		msg.BCC = append(msg.BCC, mailjetRecipient{Email: bcc})
	}

	payload, err := json.Marshal(map[string]any{"Messages": []mailjetMessage{msg}})
	if err != nil {
		return failure(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, mailjetSendURL, bytes.NewReader(payload))
	if err != nil {
		return failure(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(p.apiKey, p.secretKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return failure(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return SendOutcome{Success: true, StatusCode: resp.StatusCode}
	}
	return SendOutcome{
		StatusCode:  resp.StatusCode,
		Error:       fmt.Sprintf("mailjet returned %d", resp.StatusCode),
		AuthFailure: resp.StatusCode == http.StatusUnauthorized,
	}
}
