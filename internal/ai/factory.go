package ai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jimmyBizMobile/SensAI/internal/config"
)

// NewProvider creates the configured Provider wrapped with request logging.
// Retries are not applied here; callers wrap whole operations (generate and
// parse) with the retry executor.
func NewProvider(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.Model)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.Model, cfg.OpenAIBaseURL)
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.AnthropicAPIKey, cfg.Model)
	case "mock":
		base = newOfflineProvider()
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	return WithLogging(base, logger), nil
}

// newOfflineProvider answers without a network call so the bot can be run
// end to end without credentials.
func newOfflineProvider() *MockProvider {
	m := NewMockProvider()
	m.Handler = func(ctx context.Context, prompt string) (string, error) {
		if PurposeFrom(ctx) == "quiz" {
			return "猫が好きです。|ねこがすきです。|好き|〜が好き|が marks the object of 好き.", nil
		}
		return "[offline] " + prompt, nil
	}
	return m
}
