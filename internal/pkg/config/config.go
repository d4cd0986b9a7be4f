package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,       default=8080"`
	Env       string `env:"ENV,        default=development"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	// JWTSecret signs operator tokens for the admin API. Admin routes are not
	// mounted when it is empty.
	JWTSecret string `env:"JWT_SECRET"`

	// WebAppURL is the public base URL the mini-app is served from.
	WebAppURL string `env:"WEBAPP_URL"`
	StaticDir string `env:"STATIC_DIR"`
	Workers   int    `env:"WORKERS, default=8"`

	Telegram   TelegramConfig
	Generation GenerationConfig
	RateLimit  RateLimitConfig
	Mongo      MongoConfig
	Redis      RedisConfig
}

type TelegramConfig struct {
	BotToken      string        `env:"TELEGRAM_BOT_TOKEN, required"`
	APIURL        string        `env:"TELEGRAM_API_URL,   default=https://api.telegram.org"`
	WebhookSecret string        `env:"WEBHOOK_SECRET"`
	InitDataTTL   time.Duration `env:"INITDATA_MAX_AGE,   default=0s"`
}

type GenerationConfig struct {
	APIKey  string        `env:"OPENAI_API_KEY"`
	BaseURL string        `env:"OPENAI_BASE_URL"`
	Model   string        `env:"OPENAI_MODEL,       default=gpt-4o-mini"`
	Timeout time.Duration `env:"GENERATION_TIMEOUT, default=30s"`
	// StalledAfter is how long a record may sit in builder_in_progress before
	// the startup sweep releases it. It must exceed Timeout.
	StalledAfter time.Duration `env:"GENERATION_STALLED_AFTER, default=5m"`
}

type RateLimitConfig struct {
	RPS   float64 `env:"RATE_LIMIT_RPS,   default=5"`
	Burst int     `env:"RATE_LIMIT_BURST, default=10"`
}

// MongoConfig selects the persistent store. An empty URI keeps user records in
// memory.
type MongoConfig struct {
	URI      string `env:"MONGO_URI"`
	Database string `env:"MONGO_DB, default=bolingo"`
}

// RedisConfig enables webhook update de-duplication when Addr is set.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
// A missing TELEGRAM_BOT_TOKEN is reported as an error.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom is Load with an explicit lookuper, used by tests.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if strings.TrimSpace(cfg.Telegram.BotToken) == "" {
		return nil, fmt.Errorf("config: TELEGRAM_BOT_TOKEN is empty")
	}
	cfg.WebAppURL = strings.TrimRight(strings.TrimSpace(cfg.WebAppURL), "/")
	if cfg.Generation.StalledAfter <= cfg.Generation.Timeout {
		cfg.Generation.StalledAfter = 2 * cfg.Generation.Timeout
	}
	return &cfg, nil
}

// GenerationEnabled reports whether an external text generator is configured.
func (c *Config) GenerationEnabled() bool {
	return strings.TrimSpace(c.Generation.APIKey) != ""
}
