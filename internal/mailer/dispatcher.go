package mailer

import (
	"context"

	"github.com/luminadesk/backend/internal/metrics"
	"github.com/luminadesk/backend/internal/types"
	"github.com/rs/zerolog"
)

// DispatchPublisher receives dispatch outcomes for the live status
// feed. Calls are fire-and-forget.
type DispatchPublisher interface {
	PublishDispatch(provider string, to string, success bool)
}

// Dispatcher routes outgoing email through the statically configured
// active provider, with a bounded fallback chain that applies only to
// SendGrid authentication failures. Attempts are strictly sequential,
// never parallel, so a flaky provider cannot cause duplicate sends.
type Dispatcher struct {
	active    Provider
	providers map[ProviderName]Provider
	fallback  []ProviderName
	publisher DispatchPublisher
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewDispatcher builds every provider from cfg and selects the active
// one. publisher may be nil.
func NewDispatcher(cfg Config, publisher DispatchPublisher, m *metrics.Metrics, logger zerolog.Logger) *Dispatcher {
	providers := map[ProviderName]Provider{
		ProviderSendGrid:     NewSendGridProvider(cfg.SendGridAPIKey),
		ProviderMailgun:      NewMailgunProvider(cfg.MailgunDomain, cfg.MailgunAPIKey),
		ProviderMailjet:      NewMailjetProvider(cfg.MailjetAPIKey, cfg.MailjetSecretKey),
		ProviderElasticEmail: NewElasticEmailProvider(cfg.ElasticEmailAPIKey),
		ProviderSMTP:         NewSMTPProvider(cfg.SMTP),
	}
	return &Dispatcher{
		active:    providers[cfg.ActiveProvider],
		providers: providers,
		fallback:  []ProviderName{ProviderMailgun, ProviderSMTP},
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// newDispatcherWithProviders wires explicit providers; used by tests
func newDispatcherWithProviders(active Provider, providers map[ProviderName]Provider, m *metrics.Metrics, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		active:    active,
		providers: providers,
		fallback:  []ProviderName{ProviderMailgun, ProviderSMTP},
		metrics:   m,
		logger:    logger,
	}
}

// SendEmail attempts delivery through the active provider. A provider
// whose own credentials are missing is a configuration error: it fails
// immediately with no network calls and no fallback. Only a SendGrid
// authentication failure (HTTP 401, including IP restrictions) walks
// the fallback chain, attempting each configured entry in order and
// stopping at the first success. Provider errors never propagate to
// the caller.
func (d *Dispatcher) SendEmail(ctx context.Context, data types.EmailData) bool {
	if d.active == nil {
		d.logger.Error().Msg("no active email provider selected")
		return false
	}
	if !d.active.Configured() {
		d.logger.Error().
			Str("provider", string(d.active.Name())).
			Msg("active email provider is not configured")
		d.metrics.RecordEmailFailed()
		return false
	}

	outcome := d.active.Send(ctx, data)
	d.report(d.active, data, outcome)
	if outcome.Success {
		return true
	}

	if d.active.Name() == ProviderSendGrid && outcome.AuthFailure {
		for _, name := range d.fallback {
			p := d.providers[name]
			if p == nil || !p.Configured() {
				continue
			}
			d.metrics.RecordFallbackAttempt()
			d.logger.Warn().
				Str("provider", string(name)).
				Msg("sendgrid auth failure, attempting fallback provider")

			outcome = p.Send(ctx, data)
			d.report(p, data, outcome)
			if outcome.Success {
				return true
			}
		}
	}
	return false
}

func (d *Dispatcher) report(p Provider, data types.EmailData, outcome SendOutcome) {
	if outcome.Success {
		d.metrics.RecordEmailSent()
		d.logger.Info().
			Str("provider", string(p.Name())).
			Str("to", data.To).
			Msg("email sent")
	} else {
		d.metrics.RecordEmailFailed()
		d.logger.Error().
			Str("provider", string(p.Name())).
			Str("to", data.To).
			Int("status", outcome.StatusCode).
			Str("error", outcome.Error).
			Msg("email send failed")
	}
	if d.publisher != nil {
		d.publisher.PublishDispatch(string(p.Name()), data.To, outcome.Success)
	}
}
