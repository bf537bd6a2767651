package ai

import "context"

// Provider generates a text completion for a single prompt.
// Implementations block until the model answers or ctx is done.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// resolveModel maps a friendly model name to a provider model ID.
// Unknown names are passed through so direct model IDs keep working.
func resolveModel(name, fallback string, models map[string]string) string {
	if name == "" {
		name = fallback
	}
	if id, ok := models[name]; ok {
		return id
	}
	return name
}
