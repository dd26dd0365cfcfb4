package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token usage through the
// decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// ErrTransientEmbedding marks an embedding failure as retryable (rate
// limits, network errors, 5xx responses). Providers wrap such failures so
// the retry decorator can tell them apart from permanent ones.
var ErrTransientEmbedding = errors.New("transient embedding error")

// RetryingEmbedder retries transient failures with exponential backoff.
// After the attempt budget is exhausted the last error is wrapped with
// ErrEmbeddingUnavailable and returned to the caller.
type RetryingEmbedder struct {
	inner        Embedder
	maxAttempts  int
	initialDelay time.Duration
	maxDelay     time.Duration
	sleep        func(ctx context.Context, d time.Duration) error
}

// NewRetryingEmbedder creates a retry decorator. Zero or negative
// parameters fall back to the defaults: 5 attempts, 1s initial delay, 60s cap.
func NewRetryingEmbedder(inner Embedder, maxAttempts int, initialDelay, maxDelay time.Duration) *RetryingEmbedder {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if initialDelay <= 0 {
		initialDelay = time.Second
	}
	if maxDelay <= 0 {
		maxDelay = 60 * time.Second
	}
	return &RetryingEmbedder{
		inner:        inner,
		maxAttempts:  maxAttempts,
		initialDelay: initialDelay,
		maxDelay:     maxDelay,
		sleep:        sleepContext,
	}
}

// WithSleep overrides the backoff sleep (tests).
func (r *RetryingEmbedder) WithSleep(sleep func(ctx context.Context, d time.Duration) error) *RetryingEmbedder {
	r.sleep = sleep
	return r
}

// Embed delegates to the inner embedder, retrying transient failures.
func (r *RetryingEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	delay := r.initialDelay
	var lastErr error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		result, err := r.inner.Embed(ctx, text)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !errors.Is(err, ErrTransientEmbedding) {
			return EmbeddingResult{}, fmt.Errorf("embed: %w: %w", ErrEmbeddingUnavailable, err)
		}
		if attempt == r.maxAttempts {
			break
		}

		if err := r.sleep(ctx, delay); err != nil {
			return EmbeddingResult{}, fmt.Errorf("embed canceled: %w: %w", ErrEmbeddingUnavailable, err)
		}

		delay *= 2
		if delay > r.maxDelay {
			delay = r.maxDelay
		}
	}

	return EmbeddingResult{}, fmt.Errorf(
		"embed failed after %d attempts: %w: %w", r.maxAttempts, ErrEmbeddingUnavailable, lastErr,
	)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
