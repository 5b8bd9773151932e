package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	// Text completion
	CompletionAPIKey  string
	CompletionBaseURL string
	CompletionModel   string

	// Wholesale pricing API
	PricingAPIBaseURL string
	PricingAPIKey     string

	// Invoice provider
	InvoiceAPIBaseURL string
	InvoiceAPIKey     string

	// Supabase
	SupabaseURL            string
	SupabasePublishableKey string
	SupabaseJWTSecret      string
	SupabaseStorageBucket  string

	// Database
	DatabaseURL string

	// Optional infrastructure
	RedisAddr    string
	KafkaBrokers string

	// Sessions
	SessionTimeoutMinutes int
	MaxHistory            int

	// Server
	Port        string
	Environment string
	BaseURL     string
}

func Load() (*Config, error) {
	cfg := &Config{
		CompletionAPIKey:  getEnv("COMPLETION_API_KEY", ""),
		CompletionBaseURL: getEnv("COMPLETION_API_BASE_URL", "https://api.openai.com/v1"),
		CompletionModel:   getEnv("COMPLETION_MODEL", "gpt-4o-mini"),

		PricingAPIBaseURL: getEnv("PRICING_API_BASE_URL", ""),
		PricingAPIKey:     getEnv("PRICING_API_KEY", ""),

		InvoiceAPIBaseURL: getEnv("INVOICE_API_BASE_URL", ""),
		InvoiceAPIKey:     getEnv("INVOICE_API_KEY", ""),

		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabasePublishableKey: getEnv("SUPABASE_PUBLISHABLE_KEY", ""),
		SupabaseJWTSecret:      getEnv("SUPABASE_JWT_SECRET", ""),
		SupabaseStorageBucket:  getEnv("SUPABASE_STORAGE_BUCKET", "design-uploads"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:    getEnv("REDIS_ADDR", ""),
		KafkaBrokers: getEnv("KAFKA_BROKERS", ""),

		SessionTimeoutMinutes: getEnvInt("SESSION_TIMEOUT_MINUTES", 30),
		MaxHistory:            getEnvInt("SESSION_MAX_HISTORY", 50),

		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.CompletionAPIKey == "" {
		return fmt.Errorf("COMPLETION_API_KEY is required")
	}
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabasePublishableKey == "" {
		return fmt.Errorf("SUPABASE_PUBLISHABLE_KEY is required")
	}
	if c.SupabaseJWTSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}
