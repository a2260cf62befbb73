package location

import (
	"context"
	"sync"
	"time"

	"shiptrack-service/internal/logx"
)

// Manager owns one Relay per driver. A driver tracking a new shipment
// replaces their previous relay's target; stopping is scoped so a stale
// stop for an already-replaced shipment is a no-op.
type Manager struct {
	newRelay func() *Relay

	mu     sync.Mutex
	relays map[string]*Relay
}

// NewManager creates a relay Manager with a shared writer, provider and
// settings for every relay it spawns.
func NewManager(w locationWriter, p Provider, interval time.Duration, logger logx.Logger, fallbacks counter) *Manager {
	return &Manager{
		newRelay: func() *Relay { return NewRelay(w, p, interval, logger, fallbacks) },
		relays:   make(map[string]*Relay),
	}
}

// Track starts (or retargets) the driver's relay onto the shipment.
func (m *Manager) Track(ctx context.Context, driverEmail, shipmentID string) error {
	m.mu.Lock()
	r := m.relays[driverEmail]
	if r == nil {
		r = m.newRelay()
		m.relays[driverEmail] = r
	}
	m.mu.Unlock()

	return r.Start(ctx, shipmentID, driverEmail)
}

// Stop halts the driver's relay if it is tracking the given shipment.
func (m *Manager) Stop(driverEmail, shipmentID string) {
	m.mu.Lock()
	r := m.relays[driverEmail]
	m.mu.Unlock()

	if r == nil {
		return
	}
	if active, ok := r.Active(); !ok || active != shipmentID {
		return
	}
	r.Stop()
}

// NopManager discards tracking requests. Wired on the HTTP side when
// positions arrive through the broker ingest worker instead of an
// in-process GPS source, so the worker stays the only location writer.
type NopManager struct{}

// Track accepts and ignores the tracking request.
func (NopManager) Track(context.Context, string, string) error { return nil }

// Stop is a no-op; nothing is ever tracked.
func (NopManager) Stop(string, string) {}

// StopAll halts every relay. Called on shutdown.
func (m *Manager) StopAll() {
	m.mu.Lock()
	relays := make([]*Relay, 0, len(m.relays))
	for _, r := range m.relays {
		relays = append(relays, r)
	}
	m.mu.Unlock()

	for _, r := range relays {
		r.Stop()
	}
}
