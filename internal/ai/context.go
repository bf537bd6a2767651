package ai

import "context"

type contextKey string

const purposeKey contextKey = "llm_purpose"

// WithPurpose labels the request for logging ("check", "grammar", "quiz", "grade").
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey, purpose)
}

// PurposeFrom extracts the purpose label from the context.
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey).(string); ok {
		return v
	}
	return "unknown"
}
