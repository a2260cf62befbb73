package lifecycle

import (
	"context"

	"shiptrack-service/internal/docstore"
)

// Collection is the document collection holding all shipments.
const Collection = "shipments"

// store is the slice of the document store contract the lifecycle needs.
// Subscriptions belong to the views, not to transitions.
type store interface {
	Get(ctx context.Context, collection, id string) (docstore.Record, error)
	Query(ctx context.Context, collection string, filters ...docstore.Filter) ([]docstore.Record, error)
	Create(ctx context.Context, collection string, doc map[string]any) (string, error)
	Update(ctx context.Context, collection, id string, fields map[string]any, pre ...docstore.Filter) error
}
