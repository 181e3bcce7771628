package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/dgallion1/pagecraft/internal/document"
)

// ErrInvalidInput rejects a request before any transformation runs.
var ErrInvalidInput = errors.New("invalid input")

// GenerativeFallback produces a complete replacement output for an
// instruction the caller would rather hand to a language model.
// Any error means "no result"; the engine then uses its own rules.
type GenerativeFallback interface {
	TryTransform(ctx context.Context, instruction, input string) (string, error)
}

// Options are the per-call switches.
type Options struct {
	AutoDetectNav          bool `json:"auto_detect_nav" yaml:"auto_detect_nav"`
	Prettify               bool `json:"prettify" yaml:"prettify"`
	PreferExternalFallback bool `json:"use_fallback" yaml:"use_fallback"`
}

// DefaultOptions match the interactive defaults: everything on.
func DefaultOptions() Options {
	return Options{AutoDetectNav: true, Prettify: true, PreferExternalFallback: true}
}

// Source records which path produced a result.
type Source string

const (
	SourceRules      Source = "rules"
	SourceGenerative Source = "generative"
)

// Result is the outcome of one transformation.
type Result struct {
	Output     string         `json:"output"`
	Kind       OutputKind     `json:"kind"`
	Source     Source         `json:"source"`
	Operations OperationSet   `json:"operations"`
	Headings   []HeadingEntry `json:"headings,omitempty"`
}

// Engine applies instructions to text. It holds no per-request state and is
// safe for concurrent use.
type Engine struct {
	fallback GenerativeFallback
	log      *slog.Logger
}

// New creates an Engine. fallback may be nil.
func New(fallback GenerativeFallback, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Engine{fallback: fallback, log: log}
}

// HasFallback reports whether a generative collaborator is wired in.
func (e *Engine) HasFallback() bool { return e.fallback != nil }

// Transform applies instruction to input.
func (e *Engine) Transform(ctx context.Context, input, instruction string, opts Options) (*Result, error) {
	if input == "" {
		return nil, fmt.Errorf("%w: input is empty", ErrInvalidInput)
	}
	if instruction == "" {
		return nil, fmt.Errorf("%w: instruction is empty", ErrInvalidInput)
	}

	markup := IsMarkup(input)
	ops := Classify(instruction)
	log := e.log.With("markup", markup, "operations", ops.Names())

	res := &Result{Source: SourceRules, Operations: ops}

	if opts.PreferExternalFallback && e.fallback != nil {
		out, err := e.fallback.TryTransform(ctx, instruction, input)
		switch {
		case err != nil:
			log.Warn("generative fallback failed, using rules", "error", err)
		case strings.TrimSpace(out) == "":
			log.Warn("generative fallback returned nothing, using rules")
		default:
			res.Output = out
			res.Source = SourceGenerative
		}
	}

	prettified := false
	if res.Source == SourceRules {
		var err error
		if markup {
			res.Output, res.Headings, prettified, err = applyMarkup(input, ops, opts)
		} else {
			res.Output = applyText(input, ops)
		}
		if err != nil {
			// The parser repairs anything it is given, so this only trips on
			// render failures; fall back to the untouched input.
			log.Error("markup transform failed, returning input", "error", err)
			res.Output = input
			res.Headings = nil
			prettified = false
		}
	}

	if opts.Prettify && !prettified && looksLikeMarkup(res.Output) {
		pretty, err := document.Prettify(res.Output)
		if err != nil {
			log.Debug("prettify failed, keeping raw output", "error", err)
		} else {
			res.Output = pretty
		}
	}

	res.Kind = ClassifyOutput(res.Output)
	log.Info("transform complete", "source", res.Source, "kind", res.Kind, "bytes", len(res.Output))
	return res, nil
}

// applyMarkup runs the gated synthesizers on a parsed copy of input. The bool
// result is true when the prettify step has been settled on the tree itself;
// a failed layout leaves the compact render.
func applyMarkup(input string, ops OperationSet, opts Options) (string, []HeadingEntry, bool, error) {
	runNav := ops.AddNavigation && opts.AutoDetectNav
	if !runNav && !ops.ApplyTheme {
		return input, nil, false, nil
	}

	doc, err := document.Parse(input)
	if err != nil {
		return "", nil, false, err
	}
	var headings []HeadingEntry
	if runNav {
		headings = AddNavigation(doc)
	}
	if ops.ApplyTheme {
		ApplyTheme(doc)
	}

	if opts.Prettify {
		if pretty, err := doc.Prettify(); err == nil {
			return pretty, headings, true, nil
		}
	}
	out, err := doc.Render()
	if err != nil {
		return "", nil, false, err
	}
	return out, headings, opts.Prettify, nil
}

func applyText(input string, ops OperationSet) string {
	switch {
	case ops.ConvertToTable:
		return ConvertToTable(input)
	case ops.WrapParagraphs:
		return WrapParagraphs(input)
	default:
		return input
	}
}

var looseTagPattern = regexp.MustCompile(`<[a-zA-Z]+[^>]*>`)

func looksLikeMarkup(s string) bool {
	lower := strings.ToLower(s)
	if strings.Contains(lower, "<html") || strings.Contains(lower, "<body") {
		return true
	}
	return looseTagPattern.MatchString(s)
}
