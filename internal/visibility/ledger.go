package visibility

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shiptrack-service/internal/apperr"
	"shiptrack-service/internal/docstore"
	"shiptrack-service/internal/domain"
	"shiptrack-service/internal/lifecycle"
	"shiptrack-service/internal/logx"
)

type store interface {
	Query(ctx context.Context, collection string, filters ...docstore.Filter) ([]docstore.Record, error)
	Update(ctx context.Context, collection, id string, fields map[string]any, pre ...docstore.Filter) error
	Delete(ctx context.Context, collection, id string) error
}

// Ledger maintains each role's independent soft-delete and archive state
// on the shared record. Every operation touches exactly one role's
// flags; status, driver binding and the other roles' flags are never
// part of the write.
type Ledger struct {
	store            store
	operationTimeout time.Duration
	logger           logx.Logger
}

// NewLedger creates a visibility Ledger.
func NewLedger(s store, timeout time.Duration, logger logx.Logger) *Ledger {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Ledger{store: s, operationTimeout: timeout, logger: logger}
}

func (l *Ledger) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, l.operationTimeout)
}

// SetSenderArchived archives or restores a shipment in the sender's
// view. Archived shipments stay editable and restorable.
func (l *Ledger) SetSenderArchived(ctx context.Context, id, senderID string, archived bool) error {
	return l.setFlag(ctx, id, domain.FieldSenderArchived, archived,
		docstore.Eq(domain.FieldSenderID, senderID))
}

// SetDriverArchived hides or restores a shipment in the driver's
// completed list.
func (l *Ledger) SetDriverArchived(ctx context.Context, id, driverEmail string, archived bool) error {
	return l.setFlag(ctx, id, domain.FieldDriverArchived, archived,
		docstore.Eq(domain.FieldDriverEmail, driverEmail))
}

// DriverDelete hides a shipment permanently from the driver's view.
// Once set the driver role has no path that clears it; the record itself
// stays in the store.
func (l *Ledger) DriverDelete(ctx context.Context, id, driverEmail string) error {
	return l.setFlag(ctx, id, domain.FieldDriverDeleted, true,
		docstore.Eq(domain.FieldDriverEmail, driverEmail))
}

// SetReceiverArchived archives or restores a shipment in the receiver's
// view. The receiver's email stays untouched: archive state is a flag,
// not an identity rewrite.
func (l *Ledger) SetReceiverArchived(ctx context.Context, id, receiverEmail string, archived bool) error {
	return l.setFlag(ctx, id, domain.FieldReceiverArchived, archived,
		docstore.Eq(domain.FieldReceiverEmail, receiverEmail))
}

// ReceiverDelete hides a shipment permanently from the receiver's view.
func (l *Ledger) ReceiverDelete(ctx context.Context, id, receiverEmail string) error {
	return l.setFlag(ctx, id, domain.FieldReceiverDeleted, true,
		docstore.Eq(domain.FieldReceiverEmail, receiverEmail))
}

func (l *Ledger) setFlag(ctx context.Context, id, field string, value bool, pre docstore.Filter) error {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	err := l.store.Update(ctx, lifecycle.Collection, id, map[string]any{field: value}, pre)
	switch {
	case err == nil:
		l.logger.Info("visibility flag set",
			logx.String("event", "visibility_changed"),
			logx.String("shipment_id", id),
			logx.String("field", field),
			logx.Bool("value", value),
		)
		return nil
	case errors.Is(err, docstore.ErrPrecondition):
		// Identity did not match: the caller is not that role on this record.
		return apperr.ErrConflict
	case errors.Is(err, docstore.ErrNotFound):
		return apperr.ErrNotFound
	case errors.Is(err, docstore.ErrUnavailable):
		return fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	default:
		return err
	}
}

// Purge physically removes a record from the store. Administrative path
// only; no role-level delete reaches here.
func (l *Ledger) Purge(ctx context.Context, id string) error {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	err := l.store.Delete(ctx, lifecycle.Collection, id)
	switch {
	case err == nil:
		l.logger.Warn("shipment purged",
			logx.String("event", "shipment_purged"),
			logx.String("shipment_id", id),
		)
		return nil
	case errors.Is(err, docstore.ErrNotFound):
		return apperr.ErrNotFound
	case errors.Is(err, docstore.ErrUnavailable):
		return fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	default:
		return err
	}
}
