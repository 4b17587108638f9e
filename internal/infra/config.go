package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	AuthSecret  string

	GoogleAPIKey string
	VeoModel     string
	VeoBaseURL   string

	StorageBackend   string
	StoragePath      string
	StorageBaseURL   string
	GCSBucket        string
	SignedURLExpiry  time.Duration
	FrontendBaseURL  string
	StripeSecretKey  string
	StripeWebhookKey string
	CreditsPerGrant  int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		AuthSecret:  os.Getenv("AUTH_SECRET"),

		GoogleAPIKey: os.Getenv("GOOGLE_API_KEY"),
		VeoModel:     getEnv("VEO_MODEL", "models/veo-3.1"),
		VeoBaseURL:   getEnv("VEO_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),

		StorageBackend:   getEnv("STORAGE_BACKEND", "filesystem"),
		StoragePath:      getEnv("STORAGE_PATH", "./data/assets"),
		StorageBaseURL:   getEnv("STORAGE_BASE_URL", "http://localhost:8080/static"),
		GCSBucket:        os.Getenv("GCS_BUCKET_NAME"),
		SignedURLExpiry:  time.Hour * time.Duration(getEnvInt("SIGNED_URL_EXPIRY_HOURS", 24*30)),
		FrontendBaseURL:  getEnv("FRONTEND_BASE_URL", "http://localhost:3000"),
		StripeSecretKey:  os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookKey: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		CreditsPerGrant:  getEnvInt("CREDITS_PER_PURCHASE", 10),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.AuthSecret == "" {
		return nil, fmt.Errorf("AUTH_SECRET is required")
	}

	if cfg.StorageBackend == "gcs" && cfg.GCSBucket == "" {
		return nil, fmt.Errorf("GCS_BUCKET_NAME is required when STORAGE_BACKEND=gcs")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
