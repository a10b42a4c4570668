package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	// Save original env vars
	original := map[string]string{
		"PORT":         os.Getenv("PORT"),
		"DATABASE_URL": os.Getenv("DATABASE_URL"),
		"REDIS_ADDR":   os.Getenv("REDIS_ADDR"),
		"CACHE_TTL":    os.Getenv("CACHE_TTL"),
		"PROMPT_OUT":   os.Getenv("PROMPT_OUT"),
	}
	defer func() {
		for key, value := range original {
			if value == "" {
				_ = os.Unsetenv(key)
			} else {
				_ = os.Setenv(key, value)
			}
		}
	}()
	for key := range original {
		_ = os.Unsetenv(key)
	}

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Expected Port '8080', got '%s'", cfg.Port)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("Expected RedisAddr 'localhost:6379', got '%s'", cfg.RedisAddr)
	}
	if cfg.CacheTTL != 6*time.Hour {
		t.Errorf("Expected CacheTTL 6h, got %s", cfg.CacheTTL)
	}
	if cfg.PromptOut != "prompt_out.txt" {
		t.Errorf("Expected PromptOut 'prompt_out.txt', got '%s'", cfg.PromptOut)
	}
}

func TestLoadOverrides(t *testing.T) {
	original := map[string]string{
		"PORT":      os.Getenv("PORT"),
		"CACHE_TTL": os.Getenv("CACHE_TTL"),
		"EMAIL_TO":  os.Getenv("EMAIL_TO"),
	}
	defer func() {
		for key, value := range original {
			if value == "" {
				_ = os.Unsetenv(key)
			} else {
				_ = os.Setenv(key, value)
			}
		}
	}()

	_ = os.Setenv("PORT", "9000")
	_ = os.Setenv("CACHE_TTL", "30m")
	_ = os.Setenv("EMAIL_TO", "me@example.com")

	cfg := Load()

	if cfg.Port != "9000" {
		t.Errorf("Expected Port '9000', got '%s'", cfg.Port)
	}
	if cfg.CacheTTL != 30*time.Minute {
		t.Errorf("Expected CacheTTL 30m, got %s", cfg.CacheTTL)
	}
	if cfg.EmailTo != "me@example.com" {
		t.Errorf("Expected EmailTo 'me@example.com', got '%s'", cfg.EmailTo)
	}
}

func TestLoadInvalidTTL(t *testing.T) {
	original := os.Getenv("CACHE_TTL")
	defer func() {
		if original == "" {
			_ = os.Unsetenv("CACHE_TTL")
		} else {
			_ = os.Setenv("CACHE_TTL", original)
		}
	}()
	_ = os.Setenv("CACHE_TTL", "not-a-duration")

	defer func() {
		if recover() == nil {
			t.Error("Expected panic for invalid CACHE_TTL")
		}
	}()
	Load()
}
