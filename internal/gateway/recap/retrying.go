package recap

import (
	"context"
	"errors"
	"net/http"
	"time"

	"shiptrack-service/internal/logx"
)

// Gateway generates recaps. Implemented by HTTPGateway, RetryingGateway
// and Disabled.
type Gateway interface {
	Generate(ctx context.Context, req Request) (*Summary, error)
}

type counter interface {
	Inc()
}

// RetryConfig describes RetryingGateway behavior.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// RetryingGateway wraps a recap gateway with bounded exponential
// backoff. Only the recap call retries; claim and transition writes
// never do.
type RetryingGateway struct {
	next    Gateway
	logger  logx.Logger
	retries counter
	cfg     RetryConfig
}

// NewRetryingGateway wraps next with retry behavior. A nil or disabled
// next stays disabled; callers always get a usable Gateway.
func NewRetryingGateway(next Gateway, logger logx.Logger, retries counter, cfg RetryConfig) Gateway {
	if next == nil || isNilGateway(next) {
		return Disabled{}
	}
	return &RetryingGateway{next: next, logger: logger, retries: retries, cfg: cfg}
}

func isNilGateway(g Gateway) bool {
	h, ok := g.(*HTTPGateway)
	return ok && h == nil
}

// Generate calls the wrapped gateway, retrying transient failures with
// exponential backoff up to MaxAttempts.
func (g *RetryingGateway) Generate(ctx context.Context, req Request) (*Summary, error) {
	var lastErr error
	for attempt := 1; attempt <= g.cfg.MaxAttempts; attempt++ {
		sum, err := g.next.Generate(ctx, req)
		if err == nil {
			return sum, nil
		}
		lastErr = err

		if ctx.Err() != nil || attempt == g.cfg.MaxAttempts || !isRetryable(err) {
			break
		}

		delay := backoff(g.cfg.BaseDelay, g.cfg.MaxDelay, attempt)
		if g.retries != nil {
			g.retries.Inc()
		}
		g.logger.Warn("recap gateway retry",
			logx.Int("attempt", attempt),
			logx.Duration("delay", delay),
			logx.Err(err),
		)
		if !sleepWithContext(ctx, delay) {
			break
		}
	}
	return nil, lastErr
}

// isRetryable treats rate limiting and server-side failures as
// transient; everything else fails immediately.
func isRetryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	// Transport errors (timeouts, refused connections) are retryable.
	return true
}

// backoff computes the delay before the next attempt.
func backoff(base, max time.Duration, attempt int) time.Duration {
	d := base << (attempt - 1)
	if d > max {
		return max
	}
	return d
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
