// Package agent talks to the hosted text-generation service.
package agent

import (
	"context"
)

// Generator turns a prompt into generated text.
// Implementations must return a non-empty string or an error.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Ensure GeminiClient implements Generator.
var _ Generator = (*GeminiClient)(nil)
