// Package config loads server configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the server configuration.
type Config struct {
	DevMode  bool
	LogLevel string
	BaseURL  string // e.g. http://localhost:8080
	Port     int

	Auth      Auth
	SMTP      SMTP
	Stripe    Stripe
	Gemini    Gemini
	ImgBB     ImgBB
	S3        S3
	Redis     Redis
	Sheets    Sheets
	Scheduler Scheduler
	Policy    Policy
}

// Auth configures the identity provider.
type Auth struct {
	AdminEmail string
	JWTSecret  string
	TokenTTL   time.Duration
}

// SMTP configures outgoing mail.
type SMTP struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

// Stripe configures subscription billing.
type Stripe struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
	// Prices maps plan ids to Stripe price ids, from BETNA_STRIPE_PRICES
	// formatted as "plan=price_xxx,plan2=price_yyy".
	Prices map[string]string
	APIURL string // override for tests and stripe-mock
}

// Gemini configures the hosted language model.
type Gemini struct {
	APIKey  string
	Model   string
	History int
}

// ImgBB configures the default image host.
type ImgBB struct {
	APIKey string
}

// S3 configures S3-compatible image storage. Takes precedence over ImgBB when Bucket is set.
type S3 struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
}

// Redis configures cross-instance change notification.
type Redis struct {
	URL string
}

// Sheets configures the catalogue export.
type Sheets struct {
	SpreadsheetID   string
	CredentialsPath string
}

// Scheduler configures background jobs. Empty expressions disable a job.
type Scheduler struct {
	CleanupCron      string
	SubscriptionCron string
	ExportCron       string // only used when Sheets is configured
}

// Policy holds the lifecycle switches that are off unless explicitly enabled.
type Policy struct {
	RequireSubscription bool
	ReverifyOnEdit      bool
}

// FromEnv builds a Config from environment variables, loading .env first if present.
func FromEnv() Config {
	// A missing .env file is the normal case in production.
	_ = godotenv.Load()

	return Config{
		DevMode:  os.Getenv("BETNA_DEV_MODE") == "true",
		LogLevel: envOrDefault("BETNA_LOG_LEVEL", ""),
		BaseURL:  envOrDefault("BETNA_BASE_URL", "http://localhost:8080"),
		Port:     envInt("BETNA_PORT", 8080),
		Auth: Auth{
			AdminEmail: strings.ToLower(os.Getenv("BETNA_ADMIN_EMAIL")),
			JWTSecret:  os.Getenv("BETNA_JWT_SECRET"),
			TokenTTL:   envDuration("BETNA_TOKEN_TTL", 30*24*time.Hour),
		},
		SMTP: SMTP{
			Host: os.Getenv("BETNA_SMTP_HOST"),
			Port: envOrDefault("BETNA_SMTP_PORT", "587"),
			User: os.Getenv("BETNA_SMTP_USER"),
			Pass: os.Getenv("BETNA_SMTP_PASS"),
			From: os.Getenv("BETNA_SMTP_FROM"),
		},
		Stripe: Stripe{
			SecretKey:     os.Getenv("BETNA_STRIPE_SECRET_KEY"),
			WebhookSecret: os.Getenv("BETNA_STRIPE_WEBHOOK_SECRET"),
			SuccessURL:    envOrDefault("BETNA_STRIPE_SUCCESS_URL", "http://localhost:8080/billing/success"),
			CancelURL:     envOrDefault("BETNA_STRIPE_CANCEL_URL", "http://localhost:8080/billing/cancel"),
			Prices:        parsePairs(os.Getenv("BETNA_STRIPE_PRICES")),
			APIURL:        os.Getenv("BETNA_STRIPE_API_URL"),
		},
		Gemini: Gemini{
			APIKey:  os.Getenv("BETNA_GEMINI_API_KEY"),
			Model:   envOrDefault("BETNA_GEMINI_MODEL", "gemini-2.0-flash"),
			History: envInt("BETNA_GEMINI_HISTORY", 10),
		},
		ImgBB: ImgBB{
			APIKey: os.Getenv("BETNA_IMGBB_API_KEY"),
		},
		S3: S3{
			Bucket:          os.Getenv("BETNA_S3_BUCKET"),
			Region:          envOrDefault("BETNA_S3_REGION", "us-east-1"),
			Endpoint:        os.Getenv("BETNA_S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("BETNA_S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("BETNA_S3_SECRET_ACCESS_KEY"),
			PublicBaseURL:   os.Getenv("BETNA_S3_PUBLIC_BASE_URL"),
		},
		Redis: Redis{
			URL: os.Getenv("BETNA_REDIS_URL"),
		},
		Sheets: Sheets{
			SpreadsheetID:   os.Getenv("BETNA_SHEETS_ID"),
			CredentialsPath: os.Getenv("BETNA_SHEETS_CREDENTIALS"),
		},
		Scheduler: Scheduler{
			CleanupCron:      envOrDefault("BETNA_CLEANUP_CRON", "@hourly"),
			SubscriptionCron: envOrDefault("BETNA_SUBSCRIPTION_CRON", "@daily"),
			ExportCron:       os.Getenv("BETNA_EXPORT_CRON"),
		},
		Policy: Policy{
			RequireSubscription: os.Getenv("BETNA_REQUIRE_SUBSCRIPTION") == "true",
			ReverifyOnEdit:      os.Getenv("BETNA_REVERIFY_ON_EDIT") == "true",
		},
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// parsePairs parses "a=1,b=2" into a map, skipping malformed entries.
func parsePairs(s string) map[string]string {
	out := make(map[string]string)
	for _, part := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || k == "" || v == "" {
			continue
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out
}
