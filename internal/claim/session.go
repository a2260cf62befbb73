package claim

import (
	"sync"

	"shiptrack-service/internal/apperr"
	"shiptrack-service/internal/domain"
)

// JobState is the two-phase local state of a claim: proposed before the
// store acknowledges, confirmed after.
type JobState string

const (
	// JobProposed - claim sent, store outcome unknown.
	JobProposed JobState = "proposed"
	// JobConfirmed - the store accepted the claim; the job is held.
	JobConfirmed JobState = "confirmed"
)

// ActiveJob is the single in-flight delivery a driver session may hold.
type ActiveJob struct {
	ShipmentID string
	State      JobState
}

// Session carries a driver's identity and session-local active-job
// state. One shipment in transit per session; the rule is enforced here,
// before the store is contacted.
type Session struct {
	mu     sync.Mutex
	driver domain.Driver
	active *ActiveJob
}

// NewSession creates a session for the given driver identity.
func NewSession(driver domain.Driver) *Session {
	return &Session{driver: driver}
}

// Driver returns the session's driver identity.
func (s *Session) Driver() domain.Driver {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.driver
}

// Active returns a copy of the held job, or nil.
func (s *Session) Active() *ActiveJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return nil
	}
	cp := *s.active
	return &cp
}

// propose records a tentative claim. Fails fast when the session already
// holds a job in any state.
func (s *Session) propose(shipmentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		return apperr.ErrActiveJobHeld
	}
	s.active = &ActiveJob{ShipmentID: shipmentID, State: JobProposed}
	return nil
}

// confirm upgrades a proposed claim after store acknowledgment.
func (s *Session) confirm(shipmentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil && s.active.ShipmentID == shipmentID {
		s.active.State = JobConfirmed
	}
}

// reject rolls a proposed claim back to unassigned.
func (s *Session) reject(shipmentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil && s.active.ShipmentID == shipmentID {
		s.active = nil
	}
}

// Release drops the held job; called when the shipment leaves InTransit
// (delivered, force-completed or unclaimed).
func (s *Session) Release(shipmentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil && s.active.ShipmentID == shipmentID {
		s.active = nil
	}
}
