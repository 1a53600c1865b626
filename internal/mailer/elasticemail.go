package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/luminadesk/backend/internal/types"
)

const elasticEmailSendURL = "https://api.elasticemail.com/v2/email/send"

// ElasticEmailProvider sends through the Elastic Email v2 API, a
// form-encoded POST that answers with a success envelope.
type ElasticEmailProvider struct {
	apiKey string
	client *http.Client
}

func NewElasticEmailProvider(apiKey string) *ElasticEmailProvider {
	return &ElasticEmailProvider{
		apiKey: apiKey,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *ElasticEmailProvider) Name() ProviderName { return ProviderElasticEmail }

func (p *ElasticEmailProvider) Configured() bool { return p.apiKey != "" }

func (p *ElasticEmailProvider) Send(ctx context.Context, data types.EmailData) SendOutcome {
	data = normalize(data)

	form := url.Values{}
	form.Set("apikey", p.apiKey)
	form.Set("from", data.From)
	form.Set("to", data.To)
	form.Set("subject", data.Subject)
	form.Set("bodyText", data.Text)
	if data.HTML != "" {
		form.Set("bodyHtml", data.HTML)
	}
	if len(data.CC) > 0 {
		form.Set("msgCC", strings.Join(data.CC, ";"))
	}
	if len(data.BCC) > 0 {
		form.Set("msgBcc", strings.Join(data.BCC, ";"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, elasticEmailSendURL, strings.NewReader(form.Encode()))
	if err != nil {
		return failure(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return failure(err)
	}
	defer resp.Body.Close()

	var envelope struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return failure(fmt.Errorf("elasticemail: decoding response: %w", err))
	}
	if !envelope.Success {
		return SendOutcome{
			StatusCode:  resp.StatusCode,
			Error:       fmt.Sprintf("elasticemail: %s", envelope.Error),
			AuthFailure: strings.Contains(strings.ToLower(envelope.Error), "access denied"),
		}
	}
	return SendOutcome{Success: true, StatusCode: resp.StatusCode}
}
