package fallback

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

const defaultOllamaURL = "http://localhost:11434"

// OllamaProvider talks to a local Ollama server. It needs no credentials.
type OllamaProvider struct {
	client      *api.Client
	model       string
	maxTokens   int64
	temperature float64
}

func NewOllama(cfg Config) (*OllamaProvider, error) {
	base := cfg.BaseURL
	if base == "" {
		base = defaultOllamaURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse ollama url: %w", err)
	}
	return &OllamaProvider{
		client:      api.NewClient(u, &http.Client{}),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}, nil
}

func (p *OllamaProvider) Name() string  { return ProviderOllama }
func (p *OllamaProvider) Model() string { return p.model }

func (p *OllamaProvider) Complete(ctx context.Context, system, user string) (string, error) {
	stream := false
	req := &api.ChatRequest{
		Model: p.model,
		Messages: []api.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Stream: &stream,
		Options: map[string]any{
			"temperature": p.temperature,
			"num_predict": p.maxTokens,
		},
	}

	var sb strings.Builder
	err := p.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		sb.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}
	return sb.String(), nil
}
