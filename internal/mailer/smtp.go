package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/luminadesk/backend/internal/types"
)

// SMTPProvider delivers mail over a plain SMTP connection with
// optional STARTTLS and PLAIN auth.
type SMTPProvider struct {
	cfg     SMTPConfig
	timeout time.Duration
}

func NewSMTPProvider(cfg SMTPConfig) *SMTPProvider {
	return &SMTPProvider{cfg: cfg, timeout: 15 * time.Second}
}

func (p *SMTPProvider) Name() ProviderName { return ProviderSMTP }

func (p *SMTPProvider) Configured() bool { return p.cfg.Host != "" }

func (p *SMTPProvider) Send(ctx context.Context, data types.EmailData) SendOutcome {
	data = normalize(data)

	addr := net.JoinHostPort(p.cfg.Host, fmt.Sprintf("%d", p.cfg.Port))
	dialer := net.Dialer{Timeout: p.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return failure(err)
	}
	_ = conn.SetDeadline(time.Now().Add(p.timeout))

	client, err := smtp.NewClient(conn, p.cfg.Host)
	if err != nil {
		conn.Close()
		return failure(err)
	}
	defer client.Close()

	if err := client.Hello("luminadesk.local"); err != nil {
		return failure(err)
	}
	if p.cfg.UseTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: p.cfg.Host}); err != nil {
				return failure(err)
			}
		}
	}
	if p.cfg.Username != "" {
		auth := smtp.PlainAuth("", p.cfg.Username, p.cfg.Password, p.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return SendOutcome{Error: err.Error(), AuthFailure: true}
		}
	}

	if err := client.Mail(data.From); err != nil {
		return failure(err)
	}
	for _, rcpt := range recipients(data) {
		if err := client.Rcpt(rcpt); err != nil {
			return failure(err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return failure(err)
	}
	if _, err := w.Write(buildMessage(data)); err != nil {
		w.Close()
		return failure(err)
	}
	if err := w.Close(); err != nil {
		return failure(err)
	}
	if err := client.Quit(); err != nil {
		return failure(err)
	}
	return SendOutcome{Success: true}
}

func recipients(data types.EmailData) []string {
	out := []string{data.To}
	out = append(out, data.CC...)
	out = append(out, data.BCC...)
	return out
}

// buildMessage assembles the RFC 5322 payload. HTML bodies go out as
// multipart/alternative with the plain text part first.
func buildMessage(data types.EmailData) []byte {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("From: %s\r\n", data.From))
	b.WriteString(fmt.Sprintf("To: %s\r\n", data.To))
	if len(data.CC) > 0 {
		b.WriteString(fmt.Sprintf("Cc: %s\r\n", strings.Join(data.CC, ", ")))
	}
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", data.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")

	if data.HTML == "" {
		b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		b.WriteString(data.Text)
		return []byte(b.String())
	}

	const boundary = "luminadesk-alt-boundary"
	b.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary))
	b.WriteString(fmt.Sprintf("--%s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n", boundary, data.Text))
	b.WriteString(fmt.Sprintf("--%s\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s\r\n", boundary, data.HTML))
	b.WriteString(fmt.Sprintf("--%s--\r\n", boundary))
	return []byte(b.String())
}
