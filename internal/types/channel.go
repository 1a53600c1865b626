package types

import "time"

// ChannelType identifies a communication channel integration
type ChannelType string

const (
	ChannelEmail    ChannelType = "email"
	ChannelSMS      ChannelType = "sms"
	ChannelWhatsApp ChannelType = "whatsapp"
	ChannelTwitter  ChannelType = "twitter"
	ChannelFacebook ChannelType = "facebook"
)

// ChannelStatus is the connection state of a channel
type ChannelStatus string

const (
	ChannelConnected    ChannelStatus = "connected"
	ChannelDisconnected ChannelStatus = "disconnected"
	ChannelError        ChannelStatus = "error"
	ChannelConnecting   ChannelStatus = "connecting"
)

// MailServer holds connection settings for one SMTP/IMAP endpoint
type MailServer struct {
	Server   string `json:"server"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	UseTLS   bool   `json:"useTLS"`
}

// EmailSettings holds inbound and outbound mail server settings
type EmailSettings struct {
	Inbound  MailServer `json:"inboundSettings"`
	Outbound MailServer `json:"outboundSettings"`
}

// SMSSettings holds Twilio-style SMS credentials
type SMSSettings struct {
	AccountSID  string `json:"accountSid"`
	AuthToken   string `json:"authToken"`
	PhoneNumber string `json:"phoneNumber"`
}

// WhatsAppSettings holds WhatsApp Business API credentials
type WhatsAppSettings struct {
	BusinessAccountID string `json:"businessAccountId"`
	AccessToken       string `json:"accessToken"`
	PhoneNumberID     string `json:"phoneNumberId"`
}

// TwitterSettings holds Twitter/X API credentials
type TwitterSettings struct {
	APIKey            string `json:"apiKey"`
	APISecret         string `json:"apiSecret"`
	AccessToken       string `json:"accessToken"`
	AccessTokenSecret string `json:"accessTokenSecret"`
}

// FacebookSettings holds Facebook page credentials
type FacebookSettings struct {
	PageID      string `json:"pageId"`
	AccessToken string `json:"accessToken"`
}

// ChannelSettings carries the provider credentials for a channel.
// Only the member matching the channel type is populated.
type ChannelSettings struct {
	Email    *EmailSettings    `json:"email,omitempty"`
	SMS      *SMSSettings      `json:"sms,omitempty"`
	WhatsApp *WhatsAppSettings `json:"whatsapp,omitempty"`
	Twitter  *TwitterSettings  `json:"twitter,omitempty"`
	Facebook *FacebookSettings `json:"facebook,omitempty"`
}

// ChannelConfig is the persisted configuration plus live status of one
// channel. Credentials are written by admin CRUD; status, errorMessage
// and lastSync are written by the health monitor. The two writers never
// touch the same fields.
type ChannelConfig struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Type          ChannelType     `json:"type"`
	Status        ChannelStatus   `json:"status"`
	IsActive      bool            `json:"isActive"`
	IsOnline      bool            `json:"isOnline"`
	Settings      ChannelSettings `json:"settings"`
	ErrorMessage  string          `json:"errorMessage,omitempty"`
	LastErrorTime *time.Time      `json:"lastErrorTime,omitempty"`
	LastSync      *time.Time      `json:"lastSync,omitempty"`
}
