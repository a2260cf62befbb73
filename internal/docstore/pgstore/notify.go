package pgstore

import (
	"context"
	"sync"

	"shiptrack-service/internal/docstore"
)

// Subscribe listens on the store's NOTIFY channel with a dedicated
// connection and re-runs the scoped query on every change to the
// collection. The callback fires once immediately with current state.
func (s *Store) Subscribe(ctx context.Context, collection string, filters []docstore.Filter, fn func([]docstore.Record)) (docstore.CancelFunc, error) {
	subCtx, cancelCtx := context.WithCancel(ctx)

	conn, err := s.pool.Acquire(subCtx)
	if err != nil {
		cancelCtx()
		return nil, unavailable("subscribe acquire", err)
	}
	if _, err := conn.Exec(subCtx, "LISTEN "+channel); err != nil {
		conn.Release()
		cancelCtx()
		return nil, unavailable("subscribe listen", err)
	}

	go func() {
		defer conn.Release()

		s.push(subCtx, collection, filters, fn)
		for {
			n, err := conn.Conn().WaitForNotification(subCtx)
			if err != nil {
				return
			}
			if n.Payload != collection {
				continue
			}
			s.push(subCtx, collection, filters, fn)
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(cancelCtx)
	}
	return cancel, nil
}

// push re-queries the scope and delivers the current record set.
// Query failures during a live subscription are dropped rather than
// terminating the stream; the next change retries naturally.
func (s *Store) push(ctx context.Context, collection string, filters []docstore.Filter, fn func([]docstore.Record)) {
	recs, err := s.Query(ctx, collection, filters...)
	if err != nil {
		return
	}
	fn(recs)
}
