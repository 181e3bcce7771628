package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/pagecraft/internal/engine"
	"github.com/dgallion1/pagecraft/internal/fallback"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	// Auth
	APIKey string `yaml:"api_key"`

	// Request limits
	MaxUploadBytes      int64 `yaml:"max_upload_bytes"`
	MaxInstructionChars int   `yaml:"max_instruction_chars"`

	// Engine defaults, overridable per request
	AutoDetectNav          bool `yaml:"auto_detect_nav"`
	Prettify               bool `yaml:"prettify"`
	PreferExternalFallback bool `yaml:"prefer_external_fallback"`

	// Generative fallback
	FallbackProvider       string        `yaml:"fallback_provider"`
	FallbackModel          string        `yaml:"fallback_model"`
	FallbackAPIKey         string        `yaml:"fallback_api_key"`
	FallbackBaseURL        string        `yaml:"fallback_base_url"`
	FallbackTimeout        time.Duration `yaml:"fallback_timeout"`
	FallbackMaxTokens      int64         `yaml:"fallback_max_tokens"`
	FallbackMaxInputTokens int           `yaml:"fallback_max_input_tokens"`
	FallbackTemperature    float64       `yaml:"fallback_temperature"`

	// Result state
	ResultTTL   time.Duration `yaml:"result_ttl"`
	StatsWindow time.Duration `yaml:"stats_window"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	opts := engine.DefaultOptions()
	return Config{
		Port:                   "8090",
		LogLevel:               "info",
		MaxUploadBytes:         10 << 20,
		MaxInstructionChars:    1000,
		AutoDetectNav:          opts.AutoDetectNav,
		Prettify:               opts.Prettify,
		PreferExternalFallback: opts.PreferExternalFallback,
		FallbackProvider:       fallback.ProviderOpenAI,
		FallbackTimeout:        60 * time.Second,
		FallbackMaxTokens:      3000,
		FallbackMaxInputTokens: 100000,
		FallbackTemperature:    0.2,
		ResultTTL:              time.Hour,
		StatsWindow:            time.Hour,
	}
}

// Load layers defaults, the YAML file named by PAGECRAFT_CONFIG, and
// environment variables, in that order.
func Load() (Config, error) {
	cfg := Defaults()

	if path := os.Getenv("PAGECRAFT_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return cfg, err
		}
	}

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.LogLevel = envOr("LOG_LEVEL", cfg.LogLevel)
	cfg.APIKey = envOr("PAGECRAFT_API_KEY", cfg.APIKey)

	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.MaxInstructionChars = envInt("MAX_INSTRUCTION_CHARS", cfg.MaxInstructionChars)

	cfg.AutoDetectNav = envBool("AUTO_DETECT_NAV", cfg.AutoDetectNav)
	cfg.Prettify = envBool("PRETTIFY", cfg.Prettify)
	cfg.PreferExternalFallback = envBool("PREFER_EXTERNAL_FALLBACK", cfg.PreferExternalFallback)

	cfg.FallbackProvider = strings.ToLower(envOr("FALLBACK_PROVIDER", cfg.FallbackProvider))
	cfg.FallbackModel = envOr("FALLBACK_MODEL", cfg.FallbackModel)
	cfg.FallbackAPIKey = envOr("FALLBACK_API_KEY", cfg.FallbackAPIKey)
	cfg.FallbackBaseURL = envOr("FALLBACK_BASE_URL", cfg.FallbackBaseURL)
	cfg.FallbackTimeout = envDuration("FALLBACK_TIMEOUT", cfg.FallbackTimeout)
	cfg.FallbackMaxTokens = envInt64("FALLBACK_MAX_TOKENS", cfg.FallbackMaxTokens)
	cfg.FallbackMaxInputTokens = envInt("FALLBACK_MAX_INPUT_TOKENS", cfg.FallbackMaxInputTokens)
	cfg.FallbackTemperature = envFloat("FALLBACK_TEMPERATURE", cfg.FallbackTemperature)

	// Provider-specific key variables as a last resort.
	if cfg.FallbackAPIKey == "" {
		switch cfg.FallbackProvider {
		case fallback.ProviderOpenAI:
			cfg.FallbackAPIKey = os.Getenv("OPENAI_API_KEY")
		case fallback.ProviderAnthropic:
			cfg.FallbackAPIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}

	cfg.ResultTTL = envDuration("RESULT_TTL", cfg.ResultTTL)
	cfg.StatsWindow = envDuration("STATS_WINDOW", cfg.StatsWindow)

	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if !fallback.IsKnownProvider(c.FallbackProvider) {
		errs = append(errs, fmt.Errorf("unknown FALLBACK_PROVIDER %q", c.FallbackProvider))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	if c.MaxInstructionChars <= 0 {
		errs = append(errs, errors.New("MAX_INSTRUCTION_CHARS must be positive"))
	}
	if c.FallbackTimeout <= 0 {
		errs = append(errs, errors.New("FALLBACK_TIMEOUT must be positive"))
	}
	if c.FallbackMaxTokens <= 0 {
		errs = append(errs, errors.New("FALLBACK_MAX_TOKENS must be positive"))
	}
	if c.ResultTTL <= 0 {
		errs = append(errs, errors.New("RESULT_TTL must be positive"))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// EngineOptions are the per-request defaults.
func (c Config) EngineOptions() engine.Options {
	return engine.Options{
		AutoDetectNav:          c.AutoDetectNav,
		Prettify:               c.Prettify,
		PreferExternalFallback: c.PreferExternalFallback,
	}
}

// Fallback returns the provider settings.
func (c Config) Fallback() fallback.Config {
	return fallback.Config{
		Provider:       c.FallbackProvider,
		Model:          c.FallbackModel,
		APIKey:         c.FallbackAPIKey,
		BaseURL:        c.FallbackBaseURL,
		MaxTokens:      c.FallbackMaxTokens,
		MaxInputTokens: c.FallbackMaxInputTokens,
		Temperature:    c.FallbackTemperature,
		Timeout:        c.FallbackTimeout,
	}
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	lvl, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q", s)
	}
	return lvl, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
