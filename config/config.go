package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server ServerConfig
	Store  StoreConfig
	Email  EmailConfig
	Redis  RedisConfig
	AWS    AWSConfig
	Event  EventConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// StoreConfig holds the hosted data store endpoint and credential.
// Both may be empty at startup; the store client reports ConfigError on
// first use instead of crashing the process.
type StoreConfig struct {
	URL        string
	APIKey     string
	Table      string
	TimeoutSec int
}

// EmailConfig holds the transactional email provider settings.
type EmailConfig struct {
	BaseURL     string
	APIKey      string
	FromAddress string
	TimeoutSec  int
}

// RedisConfig holds Redis connection settings for the event queue.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AWSConfig holds credentials and the optional CSV export archive bucket.
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	ExportsBucket   string
}

// EventConfig holds the static conference logistics rendered into the
// confirmation email.
type EventConfig struct {
	Dates     string
	Venue     string
	Booth     string
	BookTitle string
}

// Timeout returns the store call timeout as a duration.
func (c StoreConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// Timeout returns the email provider call timeout as a duration.
func (c EmailConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load() // .env

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"),
		},
		Store: StoreConfig{
			URL:        getEnv("STORE_URL", ""),
			APIKey:     getEnv("STORE_API_KEY", ""),
			Table:      getEnv("STORE_TABLE", "thit_registrations"),
			TimeoutSec: getEnvInt("STORE_TIMEOUT_SEC", 10),
		},
		Email: EmailConfig{
			BaseURL:     getEnv("EMAIL_BASE_URL", "https://api.resend.com"),
			APIKey:      getEnv("EMAIL_API_KEY", ""),
			FromAddress: getEnv("EMAIL_FROM_ADDRESS", "noreply@certinal.com"),
			TimeoutSec:  getEnvInt("EMAIL_TIMEOUT_SEC", 10),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			ExportsBucket:   getEnv("AWS_S3_EXPORTS_BUCKET", ""),
		},
		Event: EventConfig{
			Dates:     getEnv("EVENT_DATES", "January 30-31, 2026"),
			Venue:     getEnv("EVENT_VENUE", "HICC, Hyderabad, India"),
			Booth:     getEnv("EVENT_BOOTH", "#121"),
			BookTitle: getEnv("EVENT_BOOK_TITLE", "When the CIO Holds the Scalpel"),
		},
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
