// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.concierge/config.yaml or ./config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - AI: provider, model, embedder for generative collaborators
//   - Engine: decision thresholds and generative-call policy (see routing.go)
//   - Routing: popularity order, override table, site allow-lists, locales
//   - Storage: PostgreSQL connection (see storage.go)
//   - Observability: OTLP trace export (see observability.go)
//
// Tables loaded here are immutable after Load: components receive the
// Config by reference and never mutate it. An operator-triggered refresh
// replaces the whole Config value, not individual maps.
//
// Error Handling: sentinel errors for errors.Is() checks, wrapped with
// fmt.Errorf("%w: details", ErrXxx).
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates a required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidThreshold indicates a similarity threshold is out of [0,1].
	ErrInvalidThreshold = errors.New("invalid threshold")

	// ErrInvalidGenPolicy indicates the generative-call policy is invalid.
	ErrInvalidGenPolicy = errors.New("invalid generative call policy")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")

	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidSiteTable indicates a site routing table entry is malformed.
	ErrInvalidSiteTable = errors.New("invalid site table")
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderGemini   = "gemini"
	ProviderOpenAI   = "openai"
	ProviderGoogleAI = "googleai"
)

// DefaultGeminiEmbedderModel is the default Gemini embedder model.
// gemini-embedding-001 supports truncation to 768 dimensions, which is
// what the kb_articles.embedding pgvector column is sized for.
const DefaultGeminiEmbedderModel = "gemini-embedding-001"

// Config stores application configuration.
// SECURITY: sensitive fields are masked in String(); never log the raw struct.
type Config struct {
	// AI provider and model configuration
	Provider      string  `mapstructure:"provider" json:"provider"`
	ModelName     string  `mapstructure:"model_name" json:"model_name"`
	Temperature   float32 `mapstructure:"temperature" json:"temperature"`
	MaxTokens     int     `mapstructure:"max_tokens" json:"max_tokens"`
	EmbedderModel string  `mapstructure:"embedder_model" json:"embedder_model"`

	// Engine thresholds and generative-call policy (see routing.go)
	Engine EngineConfig `mapstructure:"engine" json:"engine"`

	// Per-site routing tables (see routing.go)
	Routing RoutingConfig `mapstructure:"routing" json:"routing"`

	// Storage configuration (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in String
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// HTTP server configuration
	ServeAddr   string   `mapstructure:"serve_addr" json:"serve_addr"`
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`
	TrustProxy  bool     `mapstructure:"trust_proxy" json:"trust_proxy"`
	RateBurst   int      `mapstructure:"rate_burst" json:"rate_burst"`

	// Observability configuration (see observability.go)
	Otel OtelConfig `mapstructure:"otel" json:"otel"`
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".concierge")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is not an error; defaults apply.
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL has highest priority for PostgreSQL settings.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	// AI defaults
	viper.SetDefault("provider", ProviderGemini)
	viper.SetDefault("model_name", "gemini-2.5-flash")
	viper.SetDefault("temperature", 0.3)
	viper.SetDefault("max_tokens", 2048)
	viper.SetDefault("embedder_model", DefaultGeminiEmbedderModel)

	// Engine defaults (operator-tunable decision constants)
	viper.SetDefault("engine.answer_threshold", DefaultAnswerThreshold)
	viper.SetDefault("engine.membership_threshold", DefaultMembershipThreshold)
	viper.SetDefault("engine.popularity_threshold", DefaultPopularityThreshold)
	viper.SetDefault("engine.gen_timeout_ms", DefaultGenTimeoutMS)
	viper.SetDefault("engine.gen_max_attempts", DefaultGenMaxAttempts)
	viper.SetDefault("engine.gen_retry_delay_ms", DefaultGenRetryDelayMS)
	viper.SetDefault("engine.gen_rate_per_second", DefaultGenRatePerSecond)
	viper.SetDefault("engine.gen_rate_burst", DefaultGenRateBurst)

	// Routing defaults
	viper.SetDefault("routing.default_locale", "en")

	// PostgreSQL defaults (local development database)
	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "concierge")
	viper.SetDefault("postgres_password", "concierge_dev_password")
	viper.SetDefault("postgres_db_name", "concierge")
	viper.SetDefault("postgres_ssl_mode", "disable")

	// HTTP server defaults
	viper.SetDefault("serve_addr", "127.0.0.1:3400")
	viper.SetDefault("trust_proxy", false)
	viper.SetDefault("rate_burst", 0)

	// Otel defaults
	viper.SetDefault("otel.agent_host", "localhost:4318")
	viper.SetDefault("otel.environment", "dev")
	viper.SetDefault("otel.service_name", "concierge")
}

// bindEnvVariables binds environment variable overrides explicitly.
// GEMINI_API_KEY / OPENAI_API_KEY are read directly by Genkit plugins,
// not via Viper; Validate checks their presence for the selected provider.
func bindEnvVariables() {
	// Hardcoded keys cannot fail to bind; a panic here is a bug, not a
	// runtime condition.
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("provider", "CONCIERGE_PROVIDER")
	mustBind("model_name", "CONCIERGE_MODEL_NAME")
	mustBind("engine.answer_threshold", "CONCIERGE_ANSWER_THRESHOLD")
	mustBind("engine.membership_threshold", "CONCIERGE_MEMBERSHIP_THRESHOLD")
	mustBind("engine.popularity_threshold", "CONCIERGE_POPULARITY_THRESHOLD")
	mustBind("engine.gen_timeout_ms", "CONCIERGE_GEN_TIMEOUT_MS")
	mustBind("serve_addr", "CONCIERGE_SERVE_ADDR")
	mustBind("otel.agent_host", "CONCIERGE_OTEL_AGENT_HOST")
}

// maskedValue is the placeholder for masked sensitive data.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging. Short secrets are
// fully masked to prevent substring matching; longer ones keep the first
// and last two characters for debug utility.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// FullModelName returns the provider-qualified model name for Genkit.
// Examples: "googleai/gemini-2.5-flash", "openai/gpt-4o".
// If ModelName already contains a "/", it is returned as-is.
func (c *Config) FullModelName() string {
	if strings.Contains(c.ModelName, "/") {
		return c.ModelName
	}
	if c.Provider == ProviderOpenAI {
		return ProviderOpenAI + "/" + c.ModelName
	}
	return ProviderGoogleAI + "/" + c.ModelName
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	return fmt.Sprintf("Config{provider: %s, model: %s, postgres: %s@%s:%d/%s password=%s}",
		c.Provider, c.ModelName,
		c.PostgresUser, c.PostgresHost, c.PostgresPort, c.PostgresDBName,
		maskSecret(c.PostgresPassword))
}
