package location

import (
	"context"
	"errors"
	"sync"
	"time"

	"shiptrack-service/internal/apperr"
	"shiptrack-service/internal/domain"
	"shiptrack-service/internal/logx"
)

type locationWriter interface {
	UpdateLocation(ctx context.Context, id, driverEmail string, point domain.GeoPoint) error
}

type counter interface {
	Inc()
}

// Relay publishes a driver's live position into the shipment record
// while it is InTransit. At most one tracking loop runs per relay;
// starting a new shipment stops the previous loop first. Fan-out to
// observers is the store's subscription concern, not the relay's.
type Relay struct {
	writer    locationWriter
	provider  Provider
	logger    logx.Logger
	fallbacks counter
	interval  time.Duration
	now       func() time.Time

	mu     sync.Mutex
	active *tracking
}

type tracking struct {
	shipmentID  string
	driverEmail string
	cancel      context.CancelFunc
	done        chan struct{}
}

// NewRelay creates a location Relay. interval is the republish period
// for the last known point; the fallbacks counter may be nil.
func NewRelay(w locationWriter, p Provider, interval time.Duration, logger logx.Logger, fallbacks counter) *Relay {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Relay{
		writer:    w,
		provider:  p,
		logger:    logger,
		fallbacks: fallbacks,
		interval:  interval,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Start begins tracking the (shipment, driver) pair. Any previous
// tracking loop is stopped and drained before the new one starts.
func (r *Relay) Start(ctx context.Context, shipmentID, driverEmail string) error {
	if shipmentID == "" || driverEmail == "" {
		return apperr.ErrInvalid
	}

	r.Stop()

	trackCtx, cancel := context.WithCancel(ctx)
	t := &tracking{
		shipmentID:  shipmentID,
		driverEmail: driverEmail,
		cancel:      cancel,
		done:        make(chan struct{}),
	}

	r.mu.Lock()
	r.active = t
	r.mu.Unlock()

	go r.run(trackCtx, t)
	return nil
}

// Stop halts the current tracking loop, if any, and waits for it to
// finish so no write can land after return.
func (r *Relay) Stop() {
	r.mu.Lock()
	t := r.active
	r.active = nil
	r.mu.Unlock()

	if t == nil {
		return
	}
	t.cancel()
	<-t.done
}

// Active returns the shipment currently being tracked, if any.
func (r *Relay) Active() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return "", false
	}
	return r.active.shipmentID, true
}

func (r *Relay) run(ctx context.Context, t *tracking) {
	defer close(t.done)

	// Immediate reading first, then the watch stream; both go through
	// the same write path.
	last := r.reading(ctx, t)
	if !r.publish(ctx, t, last) {
		return
	}

	updates, err := r.provider.Watch(ctx)
	if err != nil {
		r.logger.Error("location watch failed",
			logx.String("event", "location_watch_failed"),
			logx.String("shipment_id", t.shipmentID),
			logx.Err(err),
		)
		updates = nil
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			last = p
			if !r.publish(ctx, t, p) {
				return
			}
		case <-ticker.C:
			if !r.publish(ctx, t, last) {
				return
			}
		}
	}
}

// reading queries the provider once, substituting the fallback
// coordinate on failure. The fallback is logged and counted so an audit
// trail can tell it from a genuine reading.
func (r *Relay) reading(ctx context.Context, t *tracking) domain.GeoPoint {
	p, err := r.provider.Current(ctx)
	if err != nil {
		if r.fallbacks != nil {
			r.fallbacks.Inc()
		}
		r.logger.Warn("location provider failed, using fallback coordinate",
			logx.String("event", "location_fallback"),
			logx.String("shipment_id", t.shipmentID),
			logx.Float64("lat", Fallback.Lat),
			logx.Float64("lng", Fallback.Lng),
			logx.Err(err),
		)
		p = Fallback
	}
	if p.Timestamp.IsZero() {
		p.Timestamp = r.now()
	}
	return p
}

// publish writes one point. Returns false when the loop must stop: the
// shipment left InTransit, so the relay has nothing left to say.
func (r *Relay) publish(ctx context.Context, t *tracking, p domain.GeoPoint) bool {
	if p.Timestamp.IsZero() {
		p.Timestamp = r.now()
	}

	err := r.writer.UpdateLocation(ctx, t.shipmentID, t.driverEmail, p)
	switch {
	case err == nil:
		return true
	case errors.Is(err, apperr.ErrInvalidTransition):
		r.logger.Info("shipment left transit, relay stopping",
			logx.String("event", "relay_stopped"),
			logx.String("shipment_id", t.shipmentID),
		)
		return false
	case ctx.Err() != nil:
		return false
	default:
		// Transient write failure: keep the loop alive, the next point
		// or tick retries naturally.
		r.logger.Warn("location write failed",
			logx.String("event", "location_write_failed"),
			logx.String("shipment_id", t.shipmentID),
			logx.Err(err),
		)
		return true
	}
}
