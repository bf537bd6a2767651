package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const (
	DefaultMaxRetries = 3
	DefaultDelay      = 2 * time.Second
)

// ErrExhausted is matched by every ExhaustedError.
var ErrExhausted = errors.New("retries exhausted")

// ExhaustedError is returned when every attempt failed.
type ExhaustedError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s: %d attempts failed: %v", e.Op, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

func (e *ExhaustedError) Is(target error) bool { return target == ErrExhausted }

// Executor runs an operation with a bounded number of attempts and a fixed
// delay between them.
type Executor struct {
	MaxRetries int
	Delay      time.Duration
	Logger     *slog.Logger

	// OnFailure is called after every failed attempt, before any delay.
	OnFailure func(attempt int, err error)

	sleep func(ctx context.Context, d time.Duration) error
}

// New returns an Executor with the given limits.
func New(maxRetries int, delay time.Duration, logger *slog.Logger) *Executor {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{MaxRetries: maxRetries, Delay: delay, Logger: logger}
}

// Do invokes op until it succeeds or MaxRetries attempts have failed.
// The delay between attempts is cut short when ctx is cancelled.
func Do[T any](ctx context.Context, e *Executor, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	attempts := e.MaxRetries
	if attempts <= 0 {
		attempts = DefaultMaxRetries
	}
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		logger.Warn("attempt failed",
			slog.String("op", op),
			slog.Int("attempt", attempt),
			slog.Int("max", attempts),
			slog.Any("error", err),
		)
		if e.OnFailure != nil {
			e.OnFailure(attempt, err)
		}

		if attempt == attempts {
			break
		}
		if err := e.wait(ctx); err != nil {
			return zero, err
		}
	}

	return zero, &ExhaustedError{Op: op, Attempts: attempts, Err: lastErr}
}

func (e *Executor) wait(ctx context.Context) error {
	if e.sleep != nil {
		return e.sleep(ctx, e.Delay)
	}
	if e.Delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(e.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
