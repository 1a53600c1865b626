package channel

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/luminadesk/backend/internal/types"
)

// TestResult is the uniform outcome of a connection test. Testers never
// return Go errors to their callers; failures surface as a
// human-readable Error string suitable for the admin UI.
type TestResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Tester checks whether one channel type's configuration is usable.
// Only the email tester performs live network I/O; the remaining
// channel types are validated by credential presence alone. That
// asymmetry is a deliberate limitation of the baseline design.
type Tester interface {
	Test(ctx context.Context, cfg types.ChannelConfig) TestResult
}

// staticTester passes when every required field for the channel type is
// present. No network calls are made.
type staticTester struct{}

func (staticTester) Test(_ context.Context, cfg types.ChannelConfig) TestResult {
	if missing := missingRequiredFields(cfg); len(missing) > 0 {
		return TestResult{
			Error: fmt.Sprintf("Missing required configuration: %s", strings.Join(missing, ", ")),
		}
	}
	return TestResult{Success: true}
}

// smtpTester verifies the outbound mail settings with a live SMTP
// handshake: dial, EHLO, optional STARTTLS, optional AUTH.
type smtpTester struct {
	timeout time.Duration
}

func (t smtpTester) Test(ctx context.Context, cfg types.ChannelConfig) TestResult {
	if missing := missingRequiredFields(cfg); len(missing) > 0 {
		return TestResult{
			Error: fmt.Sprintf("Missing required configuration: %s", strings.Join(missing, ", ")),
		}
	}

	out := cfg.Settings.Email.Outbound
	port := out.Port
	if port == 0 {
		port = 587
	}
	addr := net.JoinHostPort(out.Server, fmt.Sprintf("%d", port))

	dialer := net.Dialer{Timeout: t.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return TestResult{Error: classifySMTPError(err, out.Server)}
	}
	// Hard deadline on the whole handshake so a stalled server cannot
	// hang the admin request.
	_ = conn.SetDeadline(time.Now().Add(t.timeout))

	client, err := smtp.NewClient(conn, out.Server)
	if err != nil {
		conn.Close()
		return TestResult{Error: classifySMTPError(err, out.Server)}
	}
	defer client.Close()

	if err := client.Hello("luminadesk.local"); err != nil {
		return TestResult{Error: classifySMTPError(err, out.Server)}
	}

	if out.UseTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: out.Server}); err != nil {
				return TestResult{Error: classifySMTPError(err, out.Server)}
			}
		}
	}

	if out.Username != "" {
		auth := smtp.PlainAuth("", out.Username, out.Password, out.Server)
		if err := client.Auth(auth); err != nil {
			return TestResult{Error: classifySMTPError(err, out.Server)}
		}
	}

	return TestResult{Success: true}
}

// classifySMTPError maps an SMTP/network error into one of the
// user-facing failure categories.
func classifySMTPError(err error, server string) string {
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "535") ||
		strings.Contains(msg, "authentication failed") ||
		strings.Contains(msg, "username and password not accepted") ||
		strings.Contains(msg, "invalid credentials") ||
		strings.Contains(msg, "auth"):
		return "Authentication failed: check your username and password. " +
			"For Gmail, Outlook and most hosted providers you need an App Password, " +
			"not your account password."

	case isTimeout(err) || strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded"):
		return fmt.Sprintf("Connection to %s timed out, the server did not respond. "+
			"Check your network and firewall settings.", server)

	case strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "network is unreachable"):
		return fmt.Sprintf("Could not connect to %s, verify the server address and port.", server)

	default:
		return fmt.Sprintf("Connection test failed: %v", err)
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
