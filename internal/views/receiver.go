package views

import (
	"context"

	"shiptrack-service/internal/docstore"
	"shiptrack-service/internal/domain"
	"shiptrack-service/internal/lifecycle"
	"shiptrack-service/internal/logx"
)

// ReceiverList is the receiver's dashboard split. Soft-deleted shipments
// appear nowhere; archived ones only in Archived.
type ReceiverList struct {
	Incoming  []domain.Shipment
	Completed []domain.Shipment
	Archived  []domain.Shipment
}

// ReceiverView reads the store scoped to one receiver email. The email
// is matched exactly against the plain join key; archive state is a
// flag, never part of the identity.
type ReceiverView struct {
	store  store
	logger logx.Logger
	subs   *subscriptions
}

// NewReceiverView creates a receiver-scoped view.
func NewReceiverView(s store, logger logx.Logger) *ReceiverView {
	return &ReceiverView{store: s, logger: logger, subs: newSubscriptions()}
}

// List returns the receiver's shipments split by state and visibility.
func (v *ReceiverView) List(ctx context.Context, email string) (ReceiverList, error) {
	recs, err := v.store.Query(ctx, lifecycle.Collection,
		docstore.Eq(domain.FieldReceiverEmail, email))
	if err != nil {
		return ReceiverList{}, err
	}
	return splitReceiver(recs)
}

// Watch subscribes to the receiver's list; replaces any previous list
// subscription on this view.
func (v *ReceiverView) Watch(ctx context.Context, email string, fn func(ReceiverList)) error {
	cancel, err := v.store.Subscribe(ctx, lifecycle.Collection,
		[]docstore.Filter{docstore.Eq(domain.FieldReceiverEmail, email)},
		func(recs []docstore.Record) {
			list, err := splitReceiver(recs)
			if err != nil {
				v.logger.Error("receiver watch decode failed", logx.Err(err))
				return
			}
			fn(list)
		})
	if err != nil {
		return err
	}
	v.subs.replace("receiver:"+email, cancel)
	return nil
}

// Track subscribes to a single shipment, typically to follow its live
// location while in transit. A view holds one tracking subscription at
// a time: tracking a new shipment replaces the previous one, and
// Untrack tears it down when the tracking pane closes.
func (v *ReceiverView) Track(ctx context.Context, shipmentID string, fn func(*domain.Shipment)) error {
	cancel, err := v.store.Subscribe(ctx, lifecycle.Collection,
		[]docstore.Filter{docstore.ByID(shipmentID)},
		func(recs []docstore.Record) {
			if len(recs) == 0 {
				fn(nil) // purged underneath the tracker
				return
			}
			sh, err := lifecycle.FromRecord(recs[0])
			if err != nil {
				v.logger.Error("track decode failed", logx.Err(err))
				return
			}
			fn(sh)
		})
	if err != nil {
		return err
	}
	v.subs.replace("track", cancel)
	return nil
}

// Untrack cancels the live tracking subscription, if any.
func (v *ReceiverView) Untrack() { v.subs.cancel("track") }

// Close tears down every live subscription held by the view.
func (v *ReceiverView) Close() { v.subs.Close() }

func splitReceiver(recs []docstore.Record) (ReceiverList, error) {
	var list ReceiverList
	for _, rec := range recs {
		sh, err := lifecycle.FromRecord(rec)
		if err != nil {
			return ReceiverList{}, err
		}
		switch {
		case sh.ReceiverDeleted:
			// hidden permanently from this role
		case sh.ReceiverArchived:
			list.Archived = append(list.Archived, *sh)
		case sh.Status.Terminal():
			list.Completed = append(list.Completed, *sh)
		default:
			list.Incoming = append(list.Incoming, *sh)
		}
	}
	return list, nil
}
