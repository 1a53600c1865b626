package channel

import (
	"time"

	"github.com/luminadesk/backend/internal/types"
)

// HealthWindow is how long a successful sync keeps a channel counted as
// connected without re-testing.
const HealthWindow = 24 * time.Hour

// HealthStatus derives the connectivity classification of a channel
// from its stored configuration. It is pure and side-effect-free:
// identical input always yields the identical result. It must not be
// confused with TestConnection, which performs live I/O.
func HealthStatus(cfg types.ChannelConfig, now time.Time) types.ChannelStatus {
	if !cfg.IsActive {
		return types.ChannelDisconnected
	}
	if missing := missingRequiredFields(cfg); len(missing) > 0 {
		return types.ChannelError
	}
	if cfg.LastSync != nil && now.Sub(*cfg.LastSync) < HealthWindow && cfg.Status == types.ChannelConnected {
		return types.ChannelConnected
	}
	if cfg.Status == "" {
		return types.ChannelDisconnected
	}
	return cfg.Status
}

// missingRequiredFields lists the configuration fields a channel of
// this type needs but does not have. An unknown type reports itself.
func missingRequiredFields(cfg types.ChannelConfig) []string {
	var missing []string
	switch cfg.Type {
	case types.ChannelEmail:
		s := cfg.Settings.Email
		if s == nil {
			return []string{"email settings"}
		}
		if s.Inbound.Server == "" {
			missing = append(missing, "inbound server")
		}
		if s.Outbound.Server == "" {
			missing = append(missing, "outbound server")
		}
	case types.ChannelSMS:
		s := cfg.Settings.SMS
		if s == nil {
			return []string{"sms settings"}
		}
		if s.AccountSID == "" {
			missing = append(missing, "account SID")
		}
		if s.AuthToken == "" {
			missing = append(missing, "auth token")
		}
		if s.PhoneNumber == "" {
			missing = append(missing, "phone number")
		}
	case types.ChannelWhatsApp:
		s := cfg.Settings.WhatsApp
		if s == nil {
			return []string{"whatsapp settings"}
		}
		if s.BusinessAccountID == "" {
			missing = append(missing, "business account id")
		}
		if s.AccessToken == "" {
			missing = append(missing, "access token")
		}
		if s.PhoneNumberID == "" {
			missing = append(missing, "phone number id")
		}
	case types.ChannelTwitter:
		s := cfg.Settings.Twitter
		if s == nil {
			return []string{"twitter settings"}
		}
		if s.APIKey == "" {
			missing = append(missing, "API key")
		}
		if s.APISecret == "" {
			missing = append(missing, "API secret")
		}
		if s.AccessToken == "" {
			missing = append(missing, "access token")
		}
		if s.AccessTokenSecret == "" {
			missing = append(missing, "access token secret")
		}
	case types.ChannelFacebook:
		s := cfg.Settings.Facebook
		if s == nil {
			return []string{"facebook settings"}
		}
		if s.PageID == "" {
			missing = append(missing, "page id")
		}
		if s.AccessToken == "" {
			missing = append(missing, "access token")
		}
	default:
		missing = append(missing, "unsupported channel type")
	}
	return missing
}
