package agent

import (
	"context"
	"log/slog"
	"time"
)

// loggingGenerator records one structured log line per generation call.
type loggingGenerator struct {
	next   Generator
	logger *slog.Logger
}

// WithLogging wraps g so that every call logs latency, prompt size and outcome.
// Prompt text is never logged.
func WithLogging(g Generator, logger *slog.Logger) Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &loggingGenerator{next: g, logger: logger}
}

func (l *loggingGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	text, err := l.next.Generate(ctx, prompt)
	latency := time.Since(start)

	if err != nil {
		l.logger.Warn("Generation failed",
			"prompt_length", len(prompt),
			"latency_ms", latency.Milliseconds(),
			"kind", KindOf(err),
			"error", err,
		)
		return "", err
	}

	l.logger.Info("Generation completed",
		"prompt_length", len(prompt),
		"response_length", len(text),
		"latency_ms", latency.Milliseconds(),
	)
	return text, nil
}
