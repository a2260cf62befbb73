package claim

import (
	"sync"

	"shiptrack-service/internal/domain"
)

// Registry hands out one Session per driver, keyed by email. Sessions
// survive for the life of the process so the active-job guard applies
// across requests from the same driver.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Session returns the driver's session, creating it on first use. The
// stored driver identity (name, fee) is refreshed on every call so the
// latest values reach the shipment document on claim.
func (r *Registry) Session(driver domain.Driver) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[driver.Email]
	if !ok {
		s = NewSession(driver)
		r.sessions[driver.Email] = s
		return s
	}
	s.mu.Lock()
	s.driver = driver
	s.mu.Unlock()
	return s
}

// Release drops the shipment from whichever session holds it. Every
// transition that takes a shipment out of InTransit goes through here
// so the driver's slot frees for the next claim. A shipment is held by
// at most one session, so the scan stops at the first holder.
func (r *Registry) Release(shipmentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if a := s.Active(); a != nil && a.ShipmentID == shipmentID {
			s.Release(shipmentID)
			return
		}
	}
}
