package retry

import (
	"context"
	"time"
)

// RetryableFunc is a function that can be retried
type RetryableFunc func() error

// ErrorClassifier determines if an error is retryable
type ErrorClassifier func(error) bool

// RetryOptions defines the configuration for retries
type RetryOptions struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	Classifier      ErrorClassifier
}

// DefaultOptions returns a set of sensible default retry options
func DefaultOptions() RetryOptions {
	return RetryOptions{
		MaxAttempts:     5,
		InitialInterval: 1 * time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
		Classifier: func(err error) bool {
			return true // Default to retry all errors
		},
	}
}

// Do executes the function with exponential backoff retries
func Do(ctx context.Context, fn RetryableFunc, opts RetryOptions) error {
	var lastErr error
	interval := opts.InitialInterval

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		if opts.Classifier != nil && !opts.Classifier(err) {
			return err
		}

		// Don't wait on last attempt
		if attempt == opts.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
			next := float64(interval) * opts.Multiplier
			if next > float64(opts.MaxInterval) {
				interval = opts.MaxInterval
			} else {
				interval = time.Duration(next)
			}
		}
	}

	return lastErr
}
