package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validator validates configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateTrackerURL validates a tracker base URL
func (v *Validator) ValidateTrackerURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("tracker base URL cannot be empty")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid tracker base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("tracker base URL must use http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("tracker base URL must include a host")
	}

	return nil
}

// ValidateAPIKey validates an embedding API key format
func (v *Validator) ValidateAPIKey(key string, provider string) error {
	if provider == "hash" {
		// Hash provider needs no key
		return nil
	}

	if key == "" {
		return fmt.Errorf("%s API key cannot be empty", provider)
	}

	if provider == "openai" && !strings.HasPrefix(key, "sk-") {
		return fmt.Errorf("invalid OpenAI API key format (should start with sk-)")
	}

	return nil
}

// ValidateImport validates import pacing settings
func (v *Validator) ValidateImport(cfg ImportConfig) error {
	if cfg.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if cfg.BatchSize > 1000 {
		return fmt.Errorf("batch size must not exceed 1000")
	}
	if cfg.DelayBetweenBatches < 0 {
		return fmt.Errorf("delay between batches cannot be negative")
	}
	if cfg.MaxSyncResults <= 0 {
		return fmt.Errorf("max sync results must be positive")
	}
	return nil
}

// Validate validates the full configuration
func (v *Validator) Validate(cfg *Config) error {
	if cfg.Tracker.BaseURL != "" {
		if err := v.ValidateTrackerURL(cfg.Tracker.BaseURL); err != nil {
			return err
		}
	}

	if err := v.ValidateAPIKey(cfg.Embedding.APIKey, cfg.Embedding.Provider); err != nil {
		return err
	}

	if cfg.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive")
	}

	return v.ValidateImport(cfg.Import)
}
