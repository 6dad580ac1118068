package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, k := range []string{"BETNA_BASE_URL", "BETNA_PORT", "BETNA_SMTP_PORT", "BETNA_TOKEN_TTL", "BETNA_REQUIRE_SUBSCRIPTION", "BETNA_GEMINI_MODEL"} {
		t.Setenv(k, "")
	}

	cfg := FromEnv()

	if cfg.BaseURL != "http://localhost:8080" {
		t.Errorf("base url = %q", cfg.BaseURL)
	}
	if cfg.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Port)
	}
	if cfg.SMTP.Port != "587" {
		t.Errorf("smtp port = %q, want 587", cfg.SMTP.Port)
	}
	if cfg.Auth.TokenTTL != 30*24*time.Hour {
		t.Errorf("token ttl = %v", cfg.Auth.TokenTTL)
	}
	if cfg.Policy.RequireSubscription || cfg.Policy.ReverifyOnEdit {
		t.Error("expected lifecycle policies off by default")
	}
	if cfg.Gemini.Model == "" {
		t.Error("expected a default model name")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BETNA_PORT", "9090")
	t.Setenv("BETNA_ADMIN_EMAIL", "Admin@Betna.td")
	t.Setenv("BETNA_TOKEN_TTL", "2h")
	t.Setenv("BETNA_REVERIFY_ON_EDIT", "true")
	t.Setenv("BETNA_STRIPE_PRICES", "mensuel=price_1, annuel=price_2,broken")

	cfg := FromEnv()

	if cfg.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Port)
	}
	if cfg.Auth.AdminEmail != "admin@betna.td" {
		t.Errorf("admin email = %q, want lowercased", cfg.Auth.AdminEmail)
	}
	if cfg.Auth.TokenTTL != 2*time.Hour {
		t.Errorf("token ttl = %v, want 2h", cfg.Auth.TokenTTL)
	}
	if !cfg.Policy.ReverifyOnEdit {
		t.Error("expected ReverifyOnEdit on")
	}
	if len(cfg.Stripe.Prices) != 2 || cfg.Stripe.Prices["annuel"] != "price_2" {
		t.Errorf("prices = %v", cfg.Stripe.Prices)
	}
}

func TestFromEnvBadNumbersFallBack(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BETNA_PORT", "eighty")
	t.Setenv("BETNA_TOKEN_TTL", "forever")

	cfg := FromEnv()

	if cfg.Port != 8080 {
		t.Errorf("port = %d, want fallback 8080", cfg.Port)
	}
	if cfg.Auth.TokenTTL != 30*24*time.Hour {
		t.Errorf("token ttl = %v, want fallback", cfg.Auth.TokenTTL)
	}
}
