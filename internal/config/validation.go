package config

import (
	"fmt"
	"os"
	"slices"
)

// validSSLModes are the PostgreSQL sslmode values accepted by pgx.
var validSSLModes = []string{"disable", "allow", "prefer", "require", "verify-ca", "verify-full"}

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	// Provider and API key. Genkit plugins read the keys directly from
	// the environment, so presence is checked here rather than stored.
	switch c.Provider {
	case ProviderGemini, ProviderGoogleAI:
		if os.Getenv("GEMINI_API_KEY") == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY environment variable is required", ErrMissingAPIKey)
		}
	case ProviderOpenAI:
		if os.Getenv("OPENAI_API_KEY") == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY environment variable is required", ErrMissingAPIKey)
		}
	default:
		return fmt.Errorf("%w: %q (supported: gemini, googleai, openai)", ErrInvalidProvider, c.Provider)
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}
	if c.Temperature < 0.0 || c.Temperature > 2.0 {
		return fmt.Errorf("%w: must be between 0.0 and 2.0, got %.2f", ErrInvalidTemperature, c.Temperature)
	}
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidEmbedderModel)
	}

	if err := c.Engine.validate(); err != nil {
		return err
	}
	if err := c.Routing.validate(); err != nil {
		return err
	}

	// PostgreSQL configuration
	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host cannot be empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: database name cannot be empty", ErrInvalidPostgresDBName)
	}
	if !slices.Contains(validSSLModes, c.PostgresSSLMode) {
		return fmt.Errorf("%w: %q (supported: %v)", ErrInvalidPostgresSSLMode, c.PostgresSSLMode, validSSLModes)
	}

	return nil
}

func (e *EngineConfig) validate() error {
	for name, v := range map[string]float64{
		"answer_threshold":     e.AnswerThreshold,
		"membership_threshold": e.MembershipThreshold,
		"popularity_threshold": e.PopularityThreshold,
	} {
		if v < 0.0 || v > 1.0 {
			return fmt.Errorf("%w: %s must be between 0.0 and 1.0, got %.3f", ErrInvalidThreshold, name, v)
		}
	}

	if e.GenTimeoutMS < 100 {
		return fmt.Errorf("%w: gen_timeout_ms must be at least 100, got %d", ErrInvalidGenPolicy, e.GenTimeoutMS)
	}
	if e.GenMaxAttempts < 1 || e.GenMaxAttempts > 10 {
		return fmt.Errorf("%w: gen_max_attempts must be between 1 and 10, got %d", ErrInvalidGenPolicy, e.GenMaxAttempts)
	}
	if e.GenRetryDelayMS < 0 {
		return fmt.Errorf("%w: gen_retry_delay_ms cannot be negative, got %d", ErrInvalidGenPolicy, e.GenRetryDelayMS)
	}
	if e.GenRatePerSecond <= 0 {
		return fmt.Errorf("%w: gen_rate_per_second must be positive, got %.2f", ErrInvalidGenPolicy, e.GenRatePerSecond)
	}
	if e.GenRateBurst < 1 {
		return fmt.Errorf("%w: gen_rate_burst must be at least 1, got %d", ErrInvalidGenPolicy, e.GenRateBurst)
	}

	return nil
}

func (r *RoutingConfig) validate() error {
	// Override targets must name a corrective id; an empty "correct"
	// field would silently blank out rank 0 at runtime.
	for key, entry := range r.Overrides {
		if entry["correct"] == "" {
			return fmt.Errorf("%w: override %q has no correct id", ErrInvalidSiteTable, key)
		}
	}
	for site, lines := range r.SiteProductLines {
		if site == "" {
			return fmt.Errorf("%w: empty site code in site_product_lines", ErrInvalidSiteTable)
		}
		for _, l := range lines {
			if l == "" {
				return fmt.Errorf("%w: empty product line for site %q", ErrInvalidSiteTable, site)
			}
		}
	}
	return nil
}
