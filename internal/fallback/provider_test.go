package fallback

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(Config{Provider: ProviderNone, APIKey: "k"})
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = NewProvider(Config{Provider: ProviderOpenAI})
	require.NoError(t, err)
	assert.Nil(t, p, "hosted provider without a key is unavailable")

	p, err = NewProvider(Config{Provider: "OpenAI", APIKey: "k"})
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, ProviderOpenAI, p.Name())
	assert.Equal(t, "gpt-4o-mini", p.Model())

	p, err = NewProvider(Config{Provider: ProviderAnthropic, APIKey: "k", Model: "custom"})
	require.NoError(t, err)
	assert.Equal(t, "custom", p.Model())

	p, err = NewProvider(Config{Provider: ProviderOllama})
	require.NoError(t, err)
	assert.Equal(t, ProviderOllama, p.Name())

	_, err = NewProvider(Config{Provider: "mystery"})
	assert.Error(t, err)
}

func TestIsKnownProvider(t *testing.T) {
	for _, name := range []string{"openai", "ANTHROPIC", "ollama", "none", ""} {
		assert.True(t, IsKnownProvider(name), name)
	}
	assert.False(t, IsKnownProvider("gemini"))
}

type capturedChat struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content any    `json:"content"`
	} `json:"messages"`
	System any `json:"system"`
}

func TestOpenAIProvider_Complete(t *testing.T) {
	var got capturedChat
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"x","object":"chat.completion","created":0,"model":"m",`+
			`"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"<p>ok</p>"}}]}`)
	}))
	defer srv.Close()

	p := NewOpenAI(Config{APIKey: "test-key", BaseURL: srv.URL + "/", Model: "gpt-test", MaxTokens: 100})
	out, err := p.Complete(context.Background(), "sys", "usr")
	require.NoError(t, err)
	assert.Equal(t, "<p>ok</p>", out)
	assert.Equal(t, "gpt-test", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Role)
}

func TestOpenAIProvider_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":{"message":"down","type":"server_error"}}`)
	}))
	defer srv.Close()

	p := NewOpenAI(Config{APIKey: "k", BaseURL: srv.URL + "/", Model: "m"})
	_, err := p.Complete(context.Background(), "sys", "usr")
	assert.Error(t, err)
}

func TestAnthropicProvider_Complete(t *testing.T) {
	var got capturedChat
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"), r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"msg_1","type":"message","role":"assistant","model":"m",`+
			`"content":[{"type":"text","text":"<h1>"},{"type":"text","text":"Hi</h1>"}],`+
			`"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":1}}`)
	}))
	defer srv.Close()

	p := NewAnthropic(Config{APIKey: "test-key", BaseURL: srv.URL + "/", Model: "claude-test", MaxTokens: 100})
	out, err := p.Complete(context.Background(), "sys", "usr")
	require.NoError(t, err)
	assert.Equal(t, "<h1>Hi</h1>", out)
	assert.Equal(t, "claude-test", got.Model)
	assert.NotNil(t, got.System)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
}

func TestAnthropicProvider_NoTextBlocks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"msg_1","type":"message","role":"assistant","model":"m","content":[],`+
			`"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":0}}`)
	}))
	defer srv.Close()

	p := NewAnthropic(Config{APIKey: "k", BaseURL: srv.URL + "/", Model: "m", MaxTokens: 10})
	_, err := p.Complete(context.Background(), "sys", "usr")
	assert.ErrorIs(t, err, ErrEmptyReply)
}

func TestOllamaProvider_Complete(t *testing.T) {
	var got capturedChat
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"model":"m","created_at":"2024-01-01T00:00:00Z","message":{"role":"assistant","content":"plain reply"},"done":true}`+"\n")
	}))
	defer srv.Close()

	p, err := NewOllama(Config{BaseURL: srv.URL, Model: "llama-test"})
	require.NoError(t, err)
	out, err := p.Complete(context.Background(), "sys", "usr")
	require.NoError(t, err)
	assert.Equal(t, "plain reply", out)
	assert.Equal(t, "llama-test", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
}

func TestOllamaProvider_BadURL(t *testing.T) {
	_, err := NewOllama(Config{BaseURL: "://nope"})
	assert.Error(t, err)
}
