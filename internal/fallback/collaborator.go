package fallback

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Collaborator adapts a Provider to the engine's generative fallback: it
// frames the prompt, bounds the call, and cleans up the reply.
type Collaborator struct {
	provider       Provider
	stats          *Stats
	timeout        time.Duration
	maxInputTokens int
	log            *slog.Logger
}

func NewCollaborator(p Provider, stats *Stats, timeout time.Duration, log *slog.Logger) *Collaborator {
	if stats == nil {
		stats = NewStats(time.Hour)
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Collaborator{provider: p, stats: stats, timeout: timeout, log: log}
}

// WithMaxInputTokens makes TryTransform refuse prompts whose estimated size
// exceeds n. Zero means no limit.
func (c *Collaborator) WithMaxInputTokens(n int) *Collaborator {
	c.maxInputTokens = n
	return c
}

func (c *Collaborator) Provider() Provider { return c.provider }
func (c *Collaborator) Stats() *Stats      { return c.stats }

// TryTransform asks the provider to carry out instruction on input. The
// reply has any surrounding code fence removed; a blank reply is an error.
func (c *Collaborator) TryTransform(ctx context.Context, instruction, input string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	user := BuildUserPrompt(instruction, input)
	if c.maxInputTokens > 0 {
		if n := EstimateTokens(SystemPrompt) + EstimateTokens(user); n > c.maxInputTokens {
			return "", fmt.Errorf("%w: about %d tokens, limit %d", ErrInputTooLarge, n, c.maxInputTokens)
		}
	}

	start := time.Now()
	out, err := c.provider.Complete(ctx, SystemPrompt, user)
	elapsed := time.Since(start)

	if err == nil {
		out = stripCodeBlock(out)
		if strings.TrimSpace(out) == "" {
			err = ErrEmptyReply
		}
	}
	c.stats.Record(elapsed, err != nil)

	log := c.log.With("provider", c.provider.Name(), "model", c.provider.Model(), "duration_ms", elapsed.Milliseconds())
	if err != nil {
		log.Warn("fallback call failed", "error", err)
		return "", fmt.Errorf("%s: %w", c.provider.Name(), err)
	}
	log.Debug("fallback call complete", "bytes", len(out))
	return out, nil
}

// New builds a Collaborator for cfg. It returns nil when no provider is
// available, so callers can leave the engine without a fallback.
func New(cfg Config, stats *Stats, log *slog.Logger) (*Collaborator, error) {
	p, err := NewProvider(cfg)
	if err != nil || p == nil {
		return nil, err
	}
	return NewCollaborator(p, stats, cfg.Timeout, log).WithMaxInputTokens(cfg.MaxInputTokens), nil
}
