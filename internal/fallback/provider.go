package fallback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrEmptyReply is returned when a provider answers with no usable text.
var ErrEmptyReply = errors.New("empty reply from provider")

// ErrInputTooLarge is returned, without calling the provider, for prompts
// over the configured token estimate.
var ErrInputTooLarge = errors.New("input too large for fallback")

// Provider ids accepted in configuration.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
	ProviderNone      = "none"
)

// Provider sends one system+user exchange to a language model.
type Provider interface {
	Name() string
	Model() string
	Complete(ctx context.Context, system, user string) (string, error)
}

// Config selects and tunes a provider.
type Config struct {
	Provider       string
	Model          string
	APIKey         string
	BaseURL        string
	MaxTokens      int64
	MaxInputTokens int
	Temperature    float64
	Timeout        time.Duration
}

var defaultModels = map[string]string{
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderAnthropic: "claude-3-5-haiku-latest",
	ProviderOllama:    "llama3.1",
}

// IsKnownProvider reports whether name is a provider id NewProvider accepts.
func IsKnownProvider(name string) bool {
	switch strings.ToLower(name) {
	case ProviderOpenAI, ProviderAnthropic, ProviderOllama, ProviderNone, "":
		return true
	}
	return false
}

// NewProvider builds the configured provider. It returns (nil, nil) when the
// fallback is disabled or the hosted provider has no credentials.
func NewProvider(cfg Config) (Provider, error) {
	name := strings.ToLower(cfg.Provider)
	if cfg.Model == "" {
		cfg.Model = defaultModels[name]
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 3000
	}

	switch name {
	case ProviderNone, "":
		return nil, nil
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, nil
		}
		return NewOpenAI(cfg), nil
	case ProviderAnthropic:
		if cfg.APIKey == "" {
			return nil, nil
		}
		return NewAnthropic(cfg), nil
	case ProviderOllama:
		return NewOllama(cfg)
	default:
		return nil, fmt.Errorf("unknown fallback provider %q", cfg.Provider)
	}
}
