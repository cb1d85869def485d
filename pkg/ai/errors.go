// Package ai provides common types shared by the speech provider
// implementations. It defines the error taxonomy used across STT and TTS
// providers: service failures are recoverable (the session loop continues),
// device and request failures are fatal for the current attempt.
package ai

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrRecoverable indicates a temporary failure that may succeed if retried.
	// Examples: transcription service timeout, synthesis service overload.
	// The session loop logs these and continues listening.
	ErrRecoverable = errors.New("recoverable speech provider error")

	// ErrFatal indicates a failure that will not succeed if retried.
	// Examples: microphone permission denied, invalid API key, malformed audio.
	// The current attempt is abandoned; the user must re-trigger.
	ErrFatal = errors.New("fatal speech provider error")
)

// RetryConfig configures retry behavior for recoverable provider errors.
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig provides sensible defaults for provider retries.
var DefaultRetryConfig = RetryConfig{
	MaxRetries:    3,
	InitialDelay:  100 * time.Millisecond,
	MaxDelay:      5 * time.Second,
	BackoffFactor: 2.0,
}

// Retry runs op, retrying recoverable failures with exponential backoff up
// to cfg.MaxRetries extra attempts. Fatal errors and context cancellation
// return immediately with the last error.
func Retry(ctx context.Context, cfg RetryConfig, op func() error) error {
	delay := cfg.InitialDelay
	for attempt := 0; ; attempt++ {
		err := op()
		if err == nil || !IsRecoverable(err) || attempt >= cfg.MaxRetries {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return err
		}

		delay = time.Duration(float64(delay) * cfg.BackoffFactor)
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
}

// IsRecoverable checks if an error is recoverable and should be retried.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrRecoverable)
}

// IsFatal checks if an error is fatal and should not be retried.
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatal)
}

// ProviderError wraps an underlying error with retry classification.
type ProviderError struct {
	Underlying error
	Retryable  bool
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Underlying.Error()
}

func (e *ProviderError) Unwrap() error {
	if e.Retryable {
		return ErrRecoverable
	}
	return ErrFatal
}

// NewRecoverableError creates a recoverable error with context.
func NewRecoverableError(underlying error, message string) error {
	return &ProviderError{Underlying: underlying, Retryable: true, Message: message}
}

// NewFatalError creates a fatal error with context.
func NewFatalError(underlying error, message string) error {
	return &ProviderError{Underlying: underlying, Retryable: false, Message: message}
}
