package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ganot/placement-desk/internal/repository"
)

// withRetry runs fn up to MaxAttempts times. Only transport failures are
// retried; the delay before attempt n+1 is RetryBaseDelay*n. Each attempt
// gets its own CallTimeout, and an attempt that runs out of time counts as a
// transport failure.
func (g *Gateway) withRetry(ctx context.Context, op string, fn func(context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= g.cfg.MaxAttempts; attempt++ {
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("%s: waiting for rate limiter: %w", op, err)
			}
		}

		g.stats.remoteCalls.Add(1)
		lastErr = g.attempt(ctx, op, fn)
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, repository.ErrTransport) || attempt == g.cfg.MaxAttempts {
			break
		}

		delay := g.cfg.RetryBaseDelay * time.Duration(attempt)
		g.stats.retries.Add(1)
		g.logger.Warn("remote call failed, retrying", "op", op, "attempt", attempt, "delay", delay, "error", lastErr)
		if err := g.sleep(ctx, delay); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if errors.Is(lastErr, repository.ErrTransport) {
		return fmt.Errorf("%s failed after %d attempts: %w", op, g.cfg.MaxAttempts, lastErr)
	}
	return lastErr
}

func (g *Gateway) attempt(ctx context.Context, op string, fn func(context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, g.cfg.CallTimeout)
	defer cancel()

	err := fn(callCtx)
	if err == nil {
		return nil
	}
	if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, repository.ErrTransport) {
		return &repository.TransportError{Op: op, Err: err}
	}
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
