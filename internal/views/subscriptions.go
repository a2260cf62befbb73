package views

import (
	"sync"

	"shiptrack-service/internal/docstore"
)

// subscriptions owns the live subscription handles of one view. Each
// logical scope holds at most one handle: re-subscribing replaces the
// previous handle, never stacks on it, so a closed tracking view cannot
// keep receiving callbacks.
type subscriptions struct {
	mu      sync.Mutex
	handles map[string]docstore.CancelFunc
}

func newSubscriptions() *subscriptions {
	return &subscriptions{handles: make(map[string]docstore.CancelFunc)}
}

// replace installs a new handle for the scope, canceling any prior one
// first.
func (s *subscriptions) replace(scope string, cancel docstore.CancelFunc) {
	s.mu.Lock()
	prev := s.handles[scope]
	s.handles[scope] = cancel
	s.mu.Unlock()

	if prev != nil {
		prev()
	}
}

// cancel tears down the scope's handle if one is live.
func (s *subscriptions) cancel(scope string) {
	s.mu.Lock()
	prev := s.handles[scope]
	delete(s.handles, scope)
	s.mu.Unlock()

	if prev != nil {
		prev()
	}
}

// Close cancels every live handle. Called on view teardown.
func (s *subscriptions) Close() {
	s.mu.Lock()
	handles := s.handles
	s.handles = make(map[string]docstore.CancelFunc)
	s.mu.Unlock()

	for _, cancel := range handles {
		cancel()
	}
}
