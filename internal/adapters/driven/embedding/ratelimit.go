// Package embedding holds helpers shared by the embedding service adapters.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// DefaultBackoff is used when a 429 response carries no Retry-After header.
const DefaultBackoff = 10 * time.Second

// RateLimitError reports a 429 response from an embedding provider.
type RateLimitError struct {
	// RetryAfter is how long the provider asked callers to wait.
	RetryAfter time.Duration
}

// Error implements error.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

// RateLimitErrorFromResponse builds a RateLimitError from a 429 response.
func RateLimitErrorFromResponse(resp *http.Response) *RateLimitError {
	wait := DefaultBackoff
	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
		wait = time.Duration(secs) * time.Second
	}
	return &RateLimitError{RetryAfter: wait}
}

// RateLimiter paces embedding requests with a token bucket.
// It also honours backoff periods reported by the provider.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
}

// NewRateLimiter creates a limiter allowing requestsPerSecond with a burst of one.
func NewRateLimiter(requestsPerSecond float64) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

// Wait blocks until a request can be made without exceeding the rate limit.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if time.Now().Before(retryAt) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(retryAt)):
		}
	}

	return r.limiter.Wait(ctx)
}

// RecordRateLimitError sets a backoff period before the next request.
func (r *RateLimiter) RecordRateLimitError(wait time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if wait <= 0 {
		wait = DefaultBackoff
	}
	r.retryAt = time.Now().Add(wait)
}

// Ensure RateLimited implements the interface.
var _ driven.EmbeddingService = (*RateLimited)(nil)

// RateLimited wraps an EmbeddingService so every Embed call waits for the limiter.
type RateLimited struct {
	driven.EmbeddingService
	limiter *RateLimiter
}

// NewRateLimited wraps svc. A non-positive rate returns svc unchanged.
func NewRateLimited(svc driven.EmbeddingService, requestsPerSecond float64) driven.EmbeddingService {
	if requestsPerSecond <= 0 {
		return svc
	}
	return &RateLimited{
		EmbeddingService: svc,
		limiter:          NewRateLimiter(requestsPerSecond),
	}
}

// Embed waits for the limiter, then delegates.
func (r *RateLimited) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingFailed, err)
	}

	vec, err := r.EmbeddingService.Embed(ctx, text)
	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		r.limiter.RecordRateLimitError(rlErr.RetryAfter)
	}
	return vec, err
}
