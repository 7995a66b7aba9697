package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"biotriage/domain/scoring"
	"biotriage/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Scoring scoring.Config
	API     APIConfig
	Paths   PathConfig
	Workers int
}

// APIConfig holds the external completion service settings
type APIConfig struct {
	APIKey        string
	BaseURL       string
	Model         string
	SystemContext string
	MaxTokens     int
	Temperature   float64
	Timeout       time.Duration
	RetryAttempts int
	Enabled       bool
}

// PathConfig holds file system paths
type PathConfig struct {
	OutputFile string
	FlaggedDir string
}

// Load builds the configuration for one run: the named profile supplies
// scoring defaults, the optional YAML file overrides them, and environment
// variables supply connectivity. The result is validated before any row is
// processed; a failure here is fatal.
func Load(profile, overridePath string) (*Config, error) {
	scoringCfg, err := scoring.ProfileByName(profile)
	if err != nil {
		return nil, err
	}

	if overridePath != "" {
		scoringCfg, err = applyOverrideFile(scoringCfg, overridePath)
		if err != nil {
			return nil, err
		}
	}

	config := &Config{
		Scoring: scoringCfg,
		API:     loadAPIConfig(),
		Paths: PathConfig{
			OutputFile: getEnvOrDefault("OUTPUT_FILE", "output/analysis.xlsx"),
			FlaggedDir: getEnvOrDefault("FLAGGED_DIR", "output/rationales"),
		},
		Workers: getEnvIntOrDefault("TRIAGE_WORKERS", 0),
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrapf(err, "configuration validation failed for profile %s", scoringCfg.Profile)
	}
	return config, nil
}

func loadAPIConfig() APIConfig {
	enabled := getEnvBoolOrDefault("ENABLE_EXTERNAL_API", true)
	apiKey := os.Getenv("KIMI_API_KEY")
	if enabled && apiKey == "" {
		log.Printf("[Config] KIMI_API_KEY not set, external rationale narratives disabled")
		enabled = false
	}
	return APIConfig{
		APIKey:        apiKey,
		BaseURL:       getEnvOrDefault("KIMI_BASE_URL", "https://api.moonshot.cn/v1"),
		Model:         getEnvOrDefault("LLM_MODEL", "kimi-k2-0905-preview"),
		SystemContext: getEnvOrDefault("LLM_SYSTEM_CONTEXT", ""),
		MaxTokens:     getEnvIntOrDefault("MAX_TOKENS", 512),
		Temperature:   getEnvFloatOrDefault("TEMPERATURE", 0.6),
		Timeout:       getEnvDurationOrDefault("LLM_TIMEOUT", 60*time.Second),
		RetryAttempts: getEnvIntOrDefault("LLM_RETRY_ATTEMPTS", 2),
		Enabled:       enabled,
	}
}

// Validate checks the assembled configuration. Only configuration problems
// abort a run; everything else is handled per row.
func (c *Config) Validate() error {
	if err := c.Scoring.Validate(); err != nil {
		return err
	}
	if c.API.MaxTokens < 1 || c.API.MaxTokens > 8192 {
		return errors.ConfigInvalidf("MAX_TOKENS must lie in [1,8192], got %d", c.API.MaxTokens)
	}
	if c.API.RetryAttempts < 0 || c.API.RetryAttempts > 5 {
		return errors.ConfigInvalidf("LLM_RETRY_ATTEMPTS must lie in [0,5], got %d", c.API.RetryAttempts)
	}
	if c.API.Timeout < time.Second {
		return errors.ConfigInvalid("LLM_TIMEOUT must be at least 1s")
	}
	if c.Workers < 0 {
		return errors.ConfigInvalid("TRIAGE_WORKERS must not be negative")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
