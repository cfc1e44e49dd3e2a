package tasks

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/crucible-dev/crucible/internal/ports"
)

// rateLimitedTask enforces a token bucket rate limit in front of another
// task. This keeps a high-concurrency run from overwhelming the rate
// limits of the endpoint under test.
type rateLimitedTask struct {
	next    ports.Task
	limiter *rate.Limiter
}

// RateLimited wraps a task with a token bucket limiter. limit is the
// sustained requests per second and burst allows temporary spikes above it.
func RateLimited(next ports.Task, limit rate.Limit, burst int) ports.Task {
	return &rateLimitedTask{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Run waits for rate limit permission before forwarding the invocation.
// The wait respects context cancellation.
func (t *rateLimitedTask) Run(ctx context.Context, input any) (any, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return t.next.Run(ctx, input)
}
