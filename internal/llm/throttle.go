package llm

import (
	"context"
	"fmt"

	"github.com/planproof/planproof/internal/worker"
)

// ThrottledProvider wraps a Provider with per-endpoint rate limiting so
// concurrent page reviews share one request budget.
type ThrottledProvider struct {
	inner   Provider
	limiter *worker.Limiter
}

// NewThrottledProvider wraps provider with limiter. A nil limiter returns the
// provider unchanged.
func NewThrottledProvider(provider Provider, limiter *worker.Limiter) Provider {
	if limiter == nil {
		return provider
	}
	return &ThrottledProvider{inner: provider, limiter: limiter}
}

func (t *ThrottledProvider) Name() string {
	return t.inner.Name()
}

func (t *ThrottledProvider) IsAvailable(ctx context.Context) bool {
	return t.inner.IsAvailable(ctx)
}

func (t *ThrottledProvider) Infer(ctx context.Context, req InferRequest) (*InferResponse, error) {
	endpoint := t.inner.Name()
	if req.Model != "" {
		endpoint += "/" + req.Model
	}
	if err := t.limiter.Wait(ctx, endpoint); err != nil {
		return nil, fmt.Errorf("rate limit wait for %s: %w", endpoint, err)
	}
	return t.inner.Infer(ctx, req)
}
