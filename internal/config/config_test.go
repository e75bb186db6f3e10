package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfig_UsesCheckoutSecretKeyAlias(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "CHECKOUT_API_KEY")
	setEnvWithCleanup(t, "CHECKOUT_SECRET_KEY", "alias-only-key")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.CheckoutAPIKey != "alias-only-key" {
		t.Fatalf("expected CheckoutAPIKey from alias env var, got %q", cfg.CheckoutAPIKey)
	}
}

func TestLoadConfig_CheckoutAPIKeyTakesPrecedenceOverAlias(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "CHECKOUT_API_KEY", "primary-key")
	setEnvWithCleanup(t, "CHECKOUT_SECRET_KEY", "alias-key")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.CheckoutAPIKey != "primary-key" {
		t.Fatalf("expected CheckoutAPIKey to prioritize CHECKOUT_API_KEY, got %q", cfg.CheckoutAPIKey)
	}
}

func TestLoadConfig_DefaultCurrencyIsUSD(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "CHECKOUT_CURRENCY")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.CheckoutCurrency != "usd" {
		t.Fatalf("expected default currency usd, got %q", cfg.CheckoutCurrency)
	}
}

func TestAllowedOriginList_SplitsAndTrims(t *testing.T) {
	cfg := Config{AllowedOrigins: " https://app.example.com , https://admin.example.com ,"}
	origins := cfg.AllowedOriginList()
	if len(origins) != 2 {
		t.Fatalf("expected 2 origins, got %d (%v)", len(origins), origins)
	}
	if origins[0] != "https://app.example.com" || origins[1] != "https://admin.example.com" {
		t.Fatalf("unexpected origins: %v", origins)
	}
}

func setEnvWithCleanup(t *testing.T, key string, value string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}

func unsetEnvWithCleanup(t *testing.T, key string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}
