// Package config handles application configuration from environment variables
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"postgres://localhost:5432/planner?sslmode=disable"`
	RedisAddr   string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	// APIBase is where the renderer fetches the live plan before falling
	// back to the database.
	APIBase string `env:"PLANNER_API_BASE" envDefault:"http://localhost:8080"`

	ProfilePath  string `env:"PROFILE_PATH" envDefault:"profile.json"`
	TemplatePath string `env:"PROMPT_TEMPLATE_PATH"`
	PromptOut    string `env:"PROMPT_OUT" envDefault:"prompt_out.txt"`

	GarminTokenFile string        `env:"GARMIN_TOKEN_FILE" envDefault:"garmin_tokens.json"`
	GarminBaseURL   string        `env:"GARMIN_BASE_URL"`
	CacheDir        string        `env:"CACHE_DIR"`
	CacheTTL        time.Duration `env:"CACHE_TTL" envDefault:"6h"`

	SMTPAddr  string `env:"SMTP_ADDR" envDefault:"localhost:1025"`
	EmailFrom string `env:"EMAIL_FROM" envDefault:"planner@localhost"`
	EmailTo   string `env:"EMAIL_TO"`
}

// Load reads configuration from environment variables, panicking on
// malformed values.
func Load() Config {
	return env.Must(env.ParseAs[Config]())
}
