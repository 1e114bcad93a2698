// Package enrich turns a URL into bookmark metadata with a single model call,
// falling back to deterministic defaults whenever that call cannot be used.
package enrich

import (
	"context"
	"errors"
)

// Generator sends one prompt to a text model and returns its raw answer.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

var (
	// ErrNotConfigured is the fallback cause when no model credentials are set.
	ErrNotConfigured = errors.New("enrichment model not configured")
	// ErrInvalidResponse wraps answers that are not the expected JSON object.
	ErrInvalidResponse = errors.New("invalid model response")
)
