package provider

import (
	"context"
	"errors"

	apperrors "github.com/kbukum/voxrelay/errors"
	"github.com/kbukum/voxrelay/resilience"
)

// ResilienceConfig bundles optional policies. Nil fields are skipped.
type ResilienceConfig struct {
	CircuitBreaker *resilience.CircuitBreakerConfig
	Retry          *resilience.RetryConfig
}

// IsEmpty reports whether no policy is configured.
func (c ResilienceConfig) IsEmpty() bool {
	return c.CircuitBreaker == nil && c.Retry == nil
}

// WithResilience wraps p so calls run as CircuitBreaker → Retry → Execute.
// An open circuit surfaces as a PROVIDER_UNAVAILABLE AppError.
func WithResilience[I, O any](p RequestResponse[I, O], cfg ResilienceConfig) RequestResponse[I, O] {
	if cfg.IsEmpty() {
		return p
	}
	r := &resilientRR[I, O]{inner: p, retry: cfg.Retry}
	if cfg.CircuitBreaker != nil {
		cbCfg := *cfg.CircuitBreaker
		if cbCfg.Name == "" {
			cbCfg.Name = p.Name()
		}
		r.cb = resilience.NewCircuitBreaker(cbCfg)
	}
	return r
}

type resilientRR[I, O any] struct {
	inner RequestResponse[I, O]
	cb    *resilience.CircuitBreaker
	retry *resilience.RetryConfig
}

func (r *resilientRR[I, O]) Name() string                         { return r.inner.Name() }
func (r *resilientRR[I, O]) IsAvailable(ctx context.Context) bool { return r.inner.IsAvailable(ctx) }

// CircuitState exposes the breaker state for health reporting.
func (r *resilientRR[I, O]) CircuitState() resilience.State {
	if r.cb == nil {
		return resilience.StateClosed
	}
	return r.cb.State()
}

func (r *resilientRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	call := func(ctx context.Context) (O, error) { return r.inner.Execute(ctx, input) }
	if r.retry != nil {
		retryCfg := *r.retry
		base := call
		call = func(ctx context.Context) (O, error) { return resilience.Retry(ctx, retryCfg, base) }
	}
	if r.cb == nil {
		return call(ctx)
	}

	var out O
	var callErr error
	cbErr := r.cb.Execute(func() error {
		out, callErr = call(ctx)
		return callErr
	})
	if callErr != nil {
		return out, callErr
	}
	if errors.Is(cbErr, resilience.ErrCircuitOpen) {
		return out, apperrors.ProviderUnavailable(r.inner.Name(), "circuit open").WithCause(cbErr)
	}
	return out, cbErr
}
