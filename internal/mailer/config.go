package mailer

import (
	"os"
	"strconv"
)

// ProviderName identifies one of the supported email providers
type ProviderName string

const (
	ProviderSendGrid     ProviderName = "sendgrid"
	ProviderMailgun      ProviderName = "mailgun"
	ProviderMailjet      ProviderName = "mailjet"
	ProviderElasticEmail ProviderName = "elasticemail"
	ProviderSMTP         ProviderName = "smtp"
)

// SMTPConfig holds outbound SMTP settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	UseTLS   bool
}

// Config holds credentials for every provider plus the statically
// selected active one. Credentials come from the environment, never
// from code.
type Config struct {
	ActiveProvider ProviderName

	SendGridAPIKey string

	MailgunDomain string
	MailgunAPIKey string

	MailjetAPIKey    string
	MailjetSecretKey string

	ElasticEmailAPIKey string

	SMTP SMTPConfig
}

// LoadConfig loads mailer configuration from environment variables
func LoadConfig() Config {
	port, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		port = 587
	}
	return Config{
		ActiveProvider: ProviderName(getEnv("EMAIL_PROVIDER", "smtp")),

		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),

		MailgunDomain: os.Getenv("MAILGUN_DOMAIN"),
		MailgunAPIKey: os.Getenv("MAILGUN_API_KEY"),

		MailjetAPIKey:    os.Getenv("MAILJET_API_KEY"),
		MailjetSecretKey: os.Getenv("MAILJET_SECRET_KEY"),

		ElasticEmailAPIKey: os.Getenv("ELASTICEMAIL_API_KEY"),

		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     port,
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			UseTLS:   getEnv("SMTP_USE_TLS", "true") == "true",
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
