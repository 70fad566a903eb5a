package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, name := range []string{"PORT", "REQUEST_TIMEOUT_SECONDS", "MONGODB_DATABASE", "MONGODB_COLLECTION_OFFERS", "CACHE_TTL_SECONDS", "PAYMENT_CURRENCY", "CORS_ALLOW_ORIGINS"} {
		t.Setenv(name, "")
	}

	cfg, _ := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.RequestTimeout != 15*time.Second {
		t.Fatalf("expected 15s request timeout, got %s", cfg.RequestTimeout)
	}
	if cfg.Collections.Offers != "offers" {
		t.Fatalf("expected offers collection, got %q", cfg.Collections.Offers)
	}
	if cfg.PaymentCurrency != "usd" {
		t.Fatalf("expected usd, got %q", cfg.PaymentCurrency)
	}
	if len(cfg.CORSAllowOrigins) != 1 || cfg.CORSAllowOrigins[0] != "*" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSAllowOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CACHE_TTL_SECONDS", "30")
	t.Setenv("PAYMENT_CURRENCY", "BDT")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("JWT_EXPIRY_HOURS", "not-a-number")

	cfg, _ := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected port override, got %q", cfg.Port)
	}
	if cfg.CacheTTL != 30*time.Second {
		t.Fatalf("expected 30s ttl, got %s", cfg.CacheTTL)
	}
	if cfg.PaymentCurrency != "bdt" {
		t.Fatalf("expected lower-cased currency, got %q", cfg.PaymentCurrency)
	}
	if len(cfg.CORSAllowOrigins) != 2 || cfg.CORSAllowOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSAllowOrigins)
	}
	if cfg.JWTExpiry != 24*time.Hour {
		t.Fatalf("expected fallback expiry, got %s", cfg.JWTExpiry)
	}
}
