package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Port               string
	AllowedOrigins     []string
	LogLevel           string
	EmailFrom          string
	ManagementEmail    string
	KafkaBrokers       []string
	KafkaAuditTopic    string
	ChannelTestTimeout time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Port:            getEnv("PORT", "8080"),
		AllowedOrigins:  strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173"), ","),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		EmailFrom:       getEnv("EMAIL_FROM", "support@luminadesk.io"),
		ManagementEmail: getEnv("MANAGEMENT_EMAIL", ""),
		KafkaAuditTopic: getEnv("KAFKA_AUDIT_TOPIC", "luminadesk.audit"),
	}

	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		config.KafkaBrokers = strings.Split(brokers, ",")
		for i, b := range config.KafkaBrokers {
			config.KafkaBrokers[i] = strings.TrimSpace(b)
		}
	}

	testTimeout, err := strconv.Atoi(getEnv("CHANNEL_TEST_TIMEOUT", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid CHANNEL_TEST_TIMEOUT: %w", err)
	}
	if testTimeout <= 0 {
		return nil, fmt.Errorf("CHANNEL_TEST_TIMEOUT must be positive, got %d", testTimeout)
	}
	config.ChannelTestTimeout = time.Duration(testTimeout) * time.Second

	// Trim spaces from allowed origins
	for i, origin := range config.AllowedOrigins {
		config.AllowedOrigins[i] = strings.TrimSpace(origin)
	}

	return config, nil
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
