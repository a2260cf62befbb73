package memstore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"shiptrack-service/internal/docstore"

	"github.com/google/uuid"
)

// Store is an in-memory document store with push-based subscriptions.
// It supports the full conditional-update contract, so the claim race
// is closed by compare-and-set just like in the Postgres store.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
	subscribers map[string]map[int64]*subscriber
	nextSubID   int64
}

type subscriber struct {
	collection string
	filters    []docstore.Filter
	fn         func([]docstore.Record)
	notify     chan struct{}
	done       chan struct{}
	once       sync.Once
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		collections: make(map[string]map[string]map[string]any),
		subscribers: make(map[string]map[int64]*subscriber),
	}
}

// Get returns the document with the given id.
func (s *Store) Get(_ context.Context, collection, id string) (docstore.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return docstore.Record{}, docstore.ErrNotFound
	}
	return docstore.Record{ID: id, Doc: cloneDoc(doc)}, nil
}

// Query returns every document matching all filters, ordered by id for
// deterministic output.
func (s *Store) Query(_ context.Context, collection string, filters ...docstore.Filter) ([]docstore.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryLocked(collection, filters), nil
}

func (s *Store) queryLocked(collection string, filters []docstore.Filter) []docstore.Record {
	var idFilters, docFilters []docstore.Filter
	for _, f := range filters {
		if f.Path == docstore.IDPath {
			idFilters = append(idFilters, f)
		} else {
			docFilters = append(docFilters, f)
		}
	}

	docs := s.collections[collection]
	out := make([]docstore.Record, 0, len(docs))
	for id, doc := range docs {
		if !matchesID(id, idFilters) {
			continue
		}
		if docstore.MatchesAll(doc, docFilters) {
			out = append(out, docstore.Record{ID: id, Doc: cloneDoc(doc)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func matchesID(id string, filters []docstore.Filter) bool {
	for _, f := range filters {
		if f.Op != docstore.OpEq || f.Value != any(id) {
			return false
		}
	}
	return true
}

// Create stores a new document and returns its generated id.
func (s *Store) Create(_ context.Context, collection string, doc map[string]any) (string, error) {
	id := uuid.NewString()

	s.mu.Lock()
	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]map[string]any)
	}
	s.collections[collection][id] = cloneDoc(doc)
	s.mu.Unlock()

	s.fanOut(collection)
	return id, nil
}

// Update applies all field paths under one lock. With preconditions it
// behaves as a compare-and-set: nothing is written unless every filter
// holds against the current document.
func (s *Store) Update(_ context.Context, collection, id string, fields map[string]any, pre ...docstore.Filter) error {
	s.mu.Lock()
	doc, ok := s.collections[collection][id]
	if !ok {
		s.mu.Unlock()
		return docstore.ErrNotFound
	}
	if !docstore.MatchesAll(doc, pre) {
		s.mu.Unlock()
		return docstore.ErrPrecondition
	}
	for path, value := range fields {
		docstore.SetPath(doc, path, normalize(value))
	}
	s.mu.Unlock()

	s.fanOut(collection)
	return nil
}

// Delete permanently removes a document. Used only by administrative
// purge paths, never by a role-level delete.
func (s *Store) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	if _, ok := s.collections[collection][id]; !ok {
		s.mu.Unlock()
		return docstore.ErrNotFound
	}
	delete(s.collections[collection], id)
	s.mu.Unlock()

	s.fanOut(collection)
	return nil
}

// Subscribe registers a change listener scoped by filters. The callback
// fires once immediately with the current matching set, then again after
// every change to the collection. Deliveries to one subscriber are
// serialized; Cancel stops them and releases the listener.
func (s *Store) Subscribe(ctx context.Context, collection string, filters []docstore.Filter, fn func([]docstore.Record)) (docstore.CancelFunc, error) {
	sub := &subscriber{
		collection: collection,
		filters:    filters,
		fn:         fn,
		notify:     make(chan struct{}, 1),
		done:       make(chan struct{}),
	}

	s.mu.Lock()
	s.nextSubID++
	id := s.nextSubID
	if s.subscribers[collection] == nil {
		s.subscribers[collection] = make(map[int64]*subscriber)
	}
	s.subscribers[collection][id] = sub
	s.mu.Unlock()

	go s.deliver(ctx, sub)
	sub.notify <- struct{}{}

	cancel := func() {
		sub.once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers[collection], id)
			s.mu.Unlock()
			close(sub.done)
		})
	}
	return cancel, nil
}

func (s *Store) deliver(ctx context.Context, sub *subscriber) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.done:
			return
		case <-sub.notify:
			s.mu.RLock()
			recs := s.queryLocked(sub.collection, sub.filters)
			s.mu.RUnlock()
			sub.fn(recs)
		}
	}
}

// fanOut wakes every subscriber of the collection. The signal is
// coalescing: a subscriber that is already pending re-queries once.
func (s *Store) fanOut(collection string) {
	s.mu.RLock()
	subs := make([]*subscriber, 0, len(s.subscribers[collection]))
	for _, sub := range s.subscribers[collection] {
		subs = append(subs, sub)
	}
	s.mu.RUnlock()

	for _, sub := range subs {
		select {
		case sub.notify <- struct{}{}:
		default:
		}
	}
}

// cloneDoc deep-copies a document through its JSON form so callers never
// alias store-internal state.
func cloneDoc(doc map[string]any) map[string]any {
	raw, err := json.Marshal(doc)
	if err != nil {
		return map[string]any{}
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{}
	}
	return out
}

// normalize forces written values into their JSON-typed form so that
// later filter comparisons see the same representation a decode would.
func normalize(v any) any {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}
