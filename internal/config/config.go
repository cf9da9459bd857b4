package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Google holds OAuth client credentials for the Google APIs.
type Google struct {
	ClientID     string
	ClientSecret string
}

// PII controls the validation gate policy.
type PII struct {
	// Enabled toggles outbound scanning. Disabling it approves every
	// draft unscanned and is meant for tests only.
	Enabled bool
	// Redactable categories are sanitized in place. HardBlock categories
	// block the draft outright. Category names not listed in either set
	// block by default.
	Redactable []string
	HardBlock  []string
}

// Retry tunes plan execution.
type Retry struct {
	MaxAttempts   uint
	BaseDelay     time.Duration
	ActionTimeout time.Duration
	MaxParallel   int
}

// Search tunes mailbox and contact lookups.
type Search struct {
	// MaxResults caps Gmail search results.
	MaxResults int64
	// ContextTopK is how many retrieved snippets feed the planner.
	ContextTopK int
}

// Config is the full runtime configuration.
type Config struct {
	Google   Google
	PII      PII
	Retry    Retry
	Search   Search
	Timezone string
	LogLevel string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		PII: PII{
			Enabled:    true,
			Redactable: []string{"SSN", "CREDIT_CARD", "API_KEY", "PHONE", "EMAIL"},
			HardBlock:  nil,
		},
		Retry: Retry{
			MaxAttempts:   3,
			BaseDelay:     500 * time.Millisecond,
			ActionTimeout: 30 * time.Second,
			MaxParallel:   4,
		},
		Search: Search{
			MaxResults:  20,
			ContextTopK: 5,
		},
		Timezone: "UTC",
		LogLevel: "info",
	}
}

// FromEnv builds a Config from the environment on top of the defaults.
func FromEnv() (Config, error) {
	cfg := Default()

	cfg.Google.ClientID = os.Getenv("GOOGLE_CLIENT_ID")
	cfg.Google.ClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")

	if v := os.Getenv("DRAFTGATE_PII_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DRAFTGATE_PII_ENABLED %q: %w", v, err)
		}
		cfg.PII.Enabled = enabled
	}
	if v := os.Getenv("DRAFTGATE_REDACTABLE_CATEGORIES"); v != "" {
		cfg.PII.Redactable = splitList(v)
	}
	if v := os.Getenv("DRAFTGATE_HARD_BLOCK_CATEGORIES"); v != "" {
		cfg.PII.HardBlock = splitList(v)
	}

	if v := os.Getenv("DRAFTGATE_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil || n == 0 {
			return Config{}, fmt.Errorf("invalid DRAFTGATE_MAX_ATTEMPTS %q", v)
		}
		cfg.Retry.MaxAttempts = uint(n)
	}
	if v := os.Getenv("DRAFTGATE_BASE_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DRAFTGATE_BASE_DELAY %q: %w", v, err)
		}
		cfg.Retry.BaseDelay = d
	}
	if v := os.Getenv("DRAFTGATE_ACTION_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DRAFTGATE_ACTION_TIMEOUT %q: %w", v, err)
		}
		cfg.Retry.ActionTimeout = d
	}
	if v := os.Getenv("DRAFTGATE_MAX_PARALLEL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid DRAFTGATE_MAX_PARALLEL %q", v)
		}
		cfg.Retry.MaxParallel = n
	}

	if v := os.Getenv("DRAFTGATE_MAX_RESULTS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid DRAFTGATE_MAX_RESULTS %q", v)
		}
		cfg.Search.MaxResults = n
	}
	if v := os.Getenv("DRAFTGATE_CONTEXT_TOP_K"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("invalid DRAFTGATE_CONTEXT_TOP_K %q", v)
		}
		cfg.Search.ContextTopK = n
	}

	if v := os.Getenv("DRAFTGATE_TIMEZONE"); v != "" {
		cfg.Timezone = v
	}
	if v := os.Getenv("DRAFTGATE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	return cfg, nil
}

// Validate checks cross-field constraints not enforced during loading.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	for _, name := range c.PII.Redactable {
		for _, blocked := range c.PII.HardBlock {
			if strings.EqualFold(name, blocked) {
				return fmt.Errorf("category %q listed as both redactable and hard block", name)
			}
		}
	}
	return nil
}

// Location resolves the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, strings.ToUpper(p))
		}
	}
	return out
}
