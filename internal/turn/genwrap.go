package turn

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Shared policy for every call into a generative collaborator:
//
//   - Timeout-then-retry: the first attempt runs under the configured
//     short deadline; on deadline expiry the call is logged and reissued
//     once with no deadline. A second failure propagates to the caller.
//   - Content-validation retry: structured extraction calls re-run up to
//     GenMaxAttempts when a mandatory response field comes back blank,
//     with a fixed inter-attempt delay, then settle on a safe
//     placeholder so the pipeline never blocks on a generative
//     collaborator.
//   - Error containment: callers that must not fail use genContained,
//     which converts any residual error into a documented default.

// genCall issues fn under the engine's short deadline and retries once
// without a deadline when the deadline itself expired. Each attempt
// waits on the process-wide generative rate limiter.
func genCall[T any](ctx context.Context, e *Engine, name string, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return zero, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	attemptCtx, cancel := context.WithTimeout(ctx, e.genTimeout())
	v, err := fn(attemptCtx)
	cancel()
	if err == nil {
		return v, nil
	}

	// Retry without a deadline only when our own deadline fired; a
	// cancelled parent context propagates as-is.
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		e.logger.Warn("generative call timed out, retrying without deadline",
			"call", name, "timeout", e.genTimeout())
		v, err = fn(ctx)
		if err == nil {
			return v, nil
		}
		return zero, fmt.Errorf("%s retry: %w", name, err)
	}

	return zero, fmt.Errorf("%s: %w", name, err)
}

// genValidated runs a structured extraction call under the
// content-validation retry policy: failed calls and calls whose result
// fails valid() are retried up to GenMaxAttempts with a fixed delay,
// after which fallback is returned rather than an error.
func genValidated[T any](ctx context.Context, e *Engine, name string, fn func(context.Context) (T, error), valid func(T) bool, fallback T) T {
	for attempt := 1; attempt <= e.cfg.GenMaxAttempts; attempt++ {
		v, err := genCall(ctx, e, name, fn)
		if err == nil && valid(v) {
			return v
		}
		if err != nil {
			e.logger.Warn("generative call failed", "call", name, "attempt", attempt, "error", err)
		} else {
			e.logger.Warn("generative call returned blank required field", "call", name, "attempt", attempt)
		}

		if attempt == e.cfg.GenMaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return fallback
		case <-time.After(e.genRetryDelay()):
		}
	}

	e.logger.Warn("generative call exhausted attempts, using placeholder", "call", name)
	return fallback
}

// genContained runs a generative call and converts any failure into the
// given default, degrading the branch text rather than the turn.
func genContained[T any](ctx context.Context, e *Engine, name string, fn func(context.Context) (T, error), fallback T) T {
	v, err := genCall(ctx, e, name, fn)
	if err != nil {
		e.logger.Warn("generative call degraded to default", "call", name, "error", err)
		return fallback
	}
	return v
}
