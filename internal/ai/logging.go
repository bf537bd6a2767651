package ai

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"
)

// LoggingProvider is a decorator that logs every model request.
type LoggingProvider struct {
	inner  Provider
	logger *slog.Logger
}

// WithLogging wraps a Provider with request logging.
func WithLogging(p Provider, logger *slog.Logger) Provider {
	return &LoggingProvider{inner: p, logger: logger}
}

func (l *LoggingProvider) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	text, err := l.inner.Generate(ctx, prompt)

	attrs := []any{
		slog.String("model", l.inner.ModelID()),
		slog.String("purpose", PurposeFrom(ctx)),
		slog.Int("prompt_chars", utf8.RuneCountInString(prompt)),
		slog.Duration("latency", time.Since(start)),
	}
	if err != nil {
		l.logger.Warn("llm request failed", append(attrs, slog.Any("error", err))...)
		return "", err
	}
	l.logger.Debug("llm request", append(attrs, slog.Int("response_chars", utf8.RuneCountInString(text)))...)
	return text, nil
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}
