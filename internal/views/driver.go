package views

import (
	"context"

	"shiptrack-service/internal/docstore"
	"shiptrack-service/internal/domain"
	"shiptrack-service/internal/lifecycle"
	"shiptrack-service/internal/logx"
)

// DriverBoard is the driver's dashboard split over the jobs bound to
// them: the one in transit, finished jobs, and finished jobs the driver
// archived. Jobs the driver soft-deleted appear nowhere.
type DriverBoard struct {
	Current   []domain.Shipment
	Completed []domain.Shipment
	Archived  []domain.Shipment
}

// DriverView reads the store scoped to one driver identity plus the
// shared pool of unassigned Pending shipments.
type DriverView struct {
	store  store
	logger logx.Logger
	subs   *subscriptions
}

// NewDriverView creates a driver-scoped view.
func NewDriverView(s store, logger logx.Logger) *DriverView {
	return &DriverView{store: s, logger: logger, subs: newSubscriptions()}
}

// Pool returns the claimable pool: Pending shipments with no driver
// bound.
func (v *DriverView) Pool(ctx context.Context) ([]domain.Shipment, error) {
	recs, err := v.store.Query(ctx, lifecycle.Collection,
		docstore.Eq(domain.FieldStatus, domain.StatusPending),
		docstore.Missing(domain.FieldDriver))
	if err != nil {
		return nil, err
	}
	return decodeAll(recs)
}

// Board returns the driver's own jobs split by state and visibility.
func (v *DriverView) Board(ctx context.Context, driverEmail string) (DriverBoard, error) {
	recs, err := v.store.Query(ctx, lifecycle.Collection,
		docstore.Eq(domain.FieldDriverEmail, driverEmail))
	if err != nil {
		return DriverBoard{}, err
	}
	return splitDriver(recs)
}

// WatchPool subscribes to the claimable pool; replaces any previous
// pool subscription on this view.
func (v *DriverView) WatchPool(ctx context.Context, fn func([]domain.Shipment)) error {
	cancel, err := v.store.Subscribe(ctx, lifecycle.Collection,
		[]docstore.Filter{
			docstore.Eq(domain.FieldStatus, domain.StatusPending),
			docstore.Missing(domain.FieldDriver),
		},
		func(recs []docstore.Record) {
			pool, err := decodeAll(recs)
			if err != nil {
				v.logger.Error("driver pool decode failed", logx.Err(err))
				return
			}
			fn(pool)
		})
	if err != nil {
		return err
	}
	v.subs.replace("pool", cancel)
	return nil
}

// WatchBoard subscribes to the driver's own jobs; replaces any previous
// board subscription on this view.
func (v *DriverView) WatchBoard(ctx context.Context, driverEmail string, fn func(DriverBoard)) error {
	cancel, err := v.store.Subscribe(ctx, lifecycle.Collection,
		[]docstore.Filter{docstore.Eq(domain.FieldDriverEmail, driverEmail)},
		func(recs []docstore.Record) {
			board, err := splitDriver(recs)
			if err != nil {
				v.logger.Error("driver board decode failed", logx.Err(err))
				return
			}
			fn(board)
		})
	if err != nil {
		return err
	}
	v.subs.replace("board:"+driverEmail, cancel)
	return nil
}

// Close tears down every live subscription held by the view.
func (v *DriverView) Close() { v.subs.Close() }

func splitDriver(recs []docstore.Record) (DriverBoard, error) {
	var board DriverBoard
	for _, rec := range recs {
		sh, err := lifecycle.FromRecord(rec)
		if err != nil {
			return DriverBoard{}, err
		}
		switch {
		case sh.DriverDeleted:
			// hidden permanently from this role
		case sh.Status == domain.StatusInTransit:
			board.Current = append(board.Current, *sh)
		case sh.DriverArchived:
			board.Archived = append(board.Archived, *sh)
		default:
			board.Completed = append(board.Completed, *sh)
		}
	}
	return board, nil
}

func decodeAll(recs []docstore.Record) ([]domain.Shipment, error) {
	out := make([]domain.Shipment, 0, len(recs))
	for _, rec := range recs {
		sh, err := lifecycle.FromRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, *sh)
	}
	return out, nil
}
