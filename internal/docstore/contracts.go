package docstore

import "context"

// Op enumerates the predicate operators the store contract requires.
type Op string

const (
	// OpEq matches documents whose field equals the given value.
	OpEq Op = "=="
	// OpMissing matches documents where the field is absent or null.
	OpMissing Op = "missing"
)

// Filter is a single field-path predicate. Paths are dotted
// ("receiver.email" addresses a nested field).
type Filter struct {
	Path  string
	Op    Op
	Value any
}

// IDPath is the reserved path addressing the store-assigned id rather
// than a document field. Only equality is supported on it.
const IDPath = "id"

// Eq builds an equality filter.
func Eq(path string, value any) Filter {
	return Filter{Path: path, Op: OpEq, Value: value}
}

// ByID builds an equality filter on the store-assigned id, for
// single-record queries and tracking subscriptions.
func ByID(id string) Filter {
	return Filter{Path: IDPath, Op: OpEq, Value: id}
}

// Missing builds an absent-or-null filter.
func Missing(path string) Filter {
	return Filter{Path: path, Op: OpMissing}
}

// Record is a stored document together with its store-assigned id.
type Record struct {
	ID  string
	Doc map[string]any
}

// CancelFunc tears down a subscription. Safe to call more than once.
type CancelFunc func()

// Store is the document store contract the core depends on: point reads,
// field-path partial updates with optional preconditions, equality
// queries, permanent deletes and push-based subscriptions.
//
// Update applies all field paths atomically or not at all. Preconditions
// turn the update into a compare-and-set: if any fails, ErrPrecondition
// is returned and the document is untouched. A nested path whose parent
// object is absent writes nothing on any implementation; callers write
// parent objects whole before addressing their fields.
//
// Subscribe delivers the full current matching record set on every
// matching change and fires at least once immediately with current state.
type Store interface {
	Get(ctx context.Context, collection, id string) (Record, error)
	Query(ctx context.Context, collection string, filters ...Filter) ([]Record, error)
	Create(ctx context.Context, collection string, doc map[string]any) (string, error)
	Update(ctx context.Context, collection, id string, fields map[string]any, pre ...Filter) error
	Delete(ctx context.Context, collection, id string) error
	Subscribe(ctx context.Context, collection string, filters []Filter, fn func([]Record)) (CancelFunc, error)
}
