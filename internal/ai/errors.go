package ai

import (
	"fmt"
	"time"
)

// ErrRateLimit indicates the provider answered with 429.
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrProviderUnavailable indicates the provider is down or unreachable.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
	}
	return "LLM provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrEmptyResponse indicates the model returned no text at all.
type ErrEmptyResponse struct {
	Model string
}

func (e *ErrEmptyResponse) Error() string {
	return fmt.Sprintf("empty response from %s", e.Model)
}
