package views

import (
	"context"

	"shiptrack-service/internal/docstore"
	"shiptrack-service/internal/domain"
	"shiptrack-service/internal/lifecycle"
	"shiptrack-service/internal/logx"
)

type store interface {
	Query(ctx context.Context, collection string, filters ...docstore.Filter) ([]docstore.Record, error)
	Subscribe(ctx context.Context, collection string, filters []docstore.Filter, fn func([]docstore.Record)) (docstore.CancelFunc, error)
}

// SenderList is the sender's dashboard split: archived shipments are
// excluded from the active list but stay editable and restorable.
type SenderList struct {
	Active   []domain.Shipment
	Archived []domain.Shipment
}

// SenderView reads the store scoped to one sender identity.
type SenderView struct {
	store  store
	logger logx.Logger
	subs   *subscriptions
}

// NewSenderView creates a sender-scoped view.
func NewSenderView(s store, logger logx.Logger) *SenderView {
	return &SenderView{store: s, logger: logger, subs: newSubscriptions()}
}

// List returns the sender's shipments split into active and archived.
func (v *SenderView) List(ctx context.Context, senderID string) (SenderList, error) {
	recs, err := v.store.Query(ctx, lifecycle.Collection,
		docstore.Eq(domain.FieldSenderID, senderID))
	if err != nil {
		return SenderList{}, err
	}
	return splitSender(recs)
}

// Watch subscribes to the sender's shipment list. A previous sender
// subscription on this view is replaced, never stacked.
func (v *SenderView) Watch(ctx context.Context, senderID string, fn func(SenderList)) error {
	cancel, err := v.store.Subscribe(ctx, lifecycle.Collection,
		[]docstore.Filter{docstore.Eq(domain.FieldSenderID, senderID)},
		func(recs []docstore.Record) {
			list, err := splitSender(recs)
			if err != nil {
				v.logger.Error("sender watch decode failed", logx.Err(err))
				return
			}
			fn(list)
		})
	if err != nil {
		return err
	}
	v.subs.replace("sender:"+senderID, cancel)
	return nil
}

// Unwatch cancels the sender-list subscription, if live.
func (v *SenderView) Unwatch(senderID string) {
	v.subs.cancel("sender:" + senderID)
}

// Close tears down every live subscription held by the view.
func (v *SenderView) Close() { v.subs.Close() }

func splitSender(recs []docstore.Record) (SenderList, error) {
	var list SenderList
	for _, rec := range recs {
		sh, err := lifecycle.FromRecord(rec)
		if err != nil {
			return SenderList{}, err
		}
		if sh.SenderArchived {
			list.Archived = append(list.Archived, *sh)
		} else {
			list.Active = append(list.Active, *sh)
		}
	}
	return list, nil
}
