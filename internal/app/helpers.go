package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"shiptrack-service/internal/docstore/pgstore"
)

// Swappable so container tests can connect without a live Postgres.
var newPool = pgstore.NewPool

// connectDbWithRetry dials the document store, retrying with a fixed
// delay. Each attempt gets its own timeout so a wedged dial cannot eat
// the whole retry budget; the parent context aborts the wait between
// attempts.
func connectDbWithRetry(ctx context.Context, dsn string, retries int, delay time.Duration) (*pgxpool.Pool, error) {
	const dialTimeout = 3 * time.Second

	var lastErr error
	for attempt := 1; ; attempt++ {
		dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
		pool, err := newPool(dialCtx, dsn)
		cancel()
		if err == nil {
			log.Printf("document store connected (attempt %d)", attempt)
			return pool, nil
		}

		lastErr = err
		log.Printf("document store connect attempt %d/%d: %v", attempt, retries, err)
		if attempt >= retries {
			return nil, fmt.Errorf("db connect failed after %d attempts: %w", retries, lastErr)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}
