package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"zaptalk/internal/domain"
	"zaptalk/internal/integrations/paramstore"
)

// DefaultEnvFiles are loaded, when present, before the environment is parsed.
var DefaultEnvFiles = []string{".env", "../.env"}

// Config is built once at startup and passed by value.
type Config struct {
	BotToken     string `env:"BOT_TOKEN,notEmpty"`
	DatabaseURL  string `env:"DATABASE_URL,notEmpty"`
	GeminiAPIKey string `env:"GEMINI_API_KEY,notEmpty"`

	GeminiModel   string `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	GeminiBaseURL string `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta/openai/"`

	LLMTimeout     time.Duration `env:"LLM_TIMEOUT" envDefault:"30s"`
	StoreTimeout   time.Duration `env:"STORE_TIMEOUT" envDefault:"5s"`
	PollTimeout    time.Duration `env:"POLL_TIMEOUT" envDefault:"60s"`
	MaxConcurrency int           `env:"MAX_CONCURRENCY" envDefault:"8"`

	PersonaCharacter string `env:"PERSONA_CHARACTER" envDefault:"Gojo Satoru"`
	PersonaSeries    string `env:"PERSONA_SERIES" envDefault:"Jujutsu Kaisen"`

	UpdatesLink string `env:"UPDATES_LINK" envDefault:"https://t.me/WorkGlows"`
	SupportLink string `env:"SUPPORT_LINK" envDefault:"https://t.me/TheCryptoElders"`
	AddBotLink  string `env:"ADD_BOT_LINK" envDefault:"https://t.me/zaptalkbot?startgroup=true"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	MetricsAddr   string `env:"METRICS_ADDR"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`
	LambdaName    string `env:"AWS_LAMBDA_FUNCTION_NAME"`
}

// LoadEnvFiles loads each existing file into the process environment. Variables that
// are already set keep their values.
func LoadEnvFiles(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("config: load %s: %w", path, err)
		}
	}
	return nil
}

// Load parses the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if cfg.MaxConcurrency < 1 {
		return Config{}, fmt.Errorf("config: MAX_CONCURRENCY must be positive, got %d", cfg.MaxConcurrency)
	}
	if cfg.LLMTimeout <= 0 || cfg.StoreTimeout <= 0 || cfg.PollTimeout <= 0 {
		return Config{}, errors.New("config: timeouts must be positive")
	}
	return cfg, nil
}

// NeedsSecrets reports whether any secret is an SSM reference.
func (c Config) NeedsSecrets() bool {
	return paramstore.IsReference(c.BotToken) ||
		paramstore.IsReference(c.DatabaseURL) ||
		paramstore.IsReference(c.GeminiAPIKey)
}

// ResolveSecrets returns a copy of c with every SSM reference replaced by its value.
func (c Config) ResolveSecrets(ctx context.Context, g paramstore.Getter) (Config, error) {
	fields := []struct {
		key string
		val *string
	}{
		{"BOT_TOKEN", &c.BotToken},
		{"DATABASE_URL", &c.DatabaseURL},
		{"GEMINI_API_KEY", &c.GeminiAPIKey},
	}
	for _, f := range fields {
		resolved, err := paramstore.Resolve(ctx, g, *f.val)
		if err != nil {
			return Config{}, fmt.Errorf("config: resolve %s: %w", f.key, err)
		}
		*f.val = strings.TrimSpace(resolved)
	}
	return c, nil
}

// InLambda reports whether the process runs inside AWS Lambda.
func (c Config) InLambda() bool {
	return c.LambdaName != ""
}

type StoreKind string

const (
	StorePostgres StoreKind = "postgres"
	StoreDynamoDB StoreKind = "dynamodb"
)

// StoreTarget is the status store selected by DATABASE_URL.
type StoreTarget struct {
	Kind  StoreKind
	DSN   string
	Table string
}

// Store interprets DATABASE_URL. postgres:// and postgresql:// select Postgres;
// dynamodb://<table> selects DynamoDB.
func (c Config) Store() (StoreTarget, error) {
	raw := strings.TrimSpace(c.DatabaseURL)
	if paramstore.IsReference(raw) {
		return StoreTarget{}, errors.New("config: DATABASE_URL has not been resolved")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return StoreTarget{}, errors.New("config: DATABASE_URL is not a valid URL")
	}
	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		return StoreTarget{Kind: StorePostgres, DSN: raw}, nil
	case "dynamodb":
		table := strings.Trim(u.Host+u.Path, "/")
		if table == "" {
			return StoreTarget{}, errors.New("config: dynamodb:// URL must name a table")
		}
		return StoreTarget{Kind: StoreDynamoDB, Table: table}, nil
	default:
		return StoreTarget{}, fmt.Errorf("config: unsupported DATABASE_URL scheme %q", u.Scheme)
	}
}

// Links returns the button rows attached to /start and /help.
func (c Config) Links() [][]domain.Link {
	var rows [][]domain.Link
	var first []domain.Link
	if c.UpdatesLink != "" {
		first = append(first, domain.Link{Text: "Updates", URL: c.UpdatesLink})
	}
	if c.SupportLink != "" {
		first = append(first, domain.Link{Text: "Support", URL: c.SupportLink})
	}
	if len(first) > 0 {
		rows = append(rows, first)
	}
	if c.AddBotLink != "" {
		rows = append(rows, []domain.Link{{Text: "Add Me To Your Group", URL: c.AddBotLink}})
	}
	return rows
}
