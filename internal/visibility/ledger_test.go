package visibility

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"shiptrack-service/internal/apperr"
	"shiptrack-service/internal/docstore/memstore"
	"shiptrack-service/internal/domain"
	"shiptrack-service/internal/lifecycle"
	"shiptrack-service/internal/logx"
)

type fixture struct {
	ledger *Ledger
	svc    *lifecycle.Service
	store  *memstore.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	return &fixture{
		ledger: NewLedger(store, time.Second, logx.Nop()),
		svc:    lifecycle.NewService(store, time.Second, logx.Nop()),
		store:  store,
	}
}

func (f *fixture) createDelivered(t *testing.T) *domain.Shipment {
	t.Helper()
	ctx := context.Background()
	sh, err := f.svc.Create(ctx, lifecycle.CreateInput{
		SenderID: "sender-1",
		Receiver: domain.Receiver{Email: "rana@example.com"},
		Goods:    domain.Goods{Name: "parts"},
	})
	require.NoError(t, err)
	_, err = f.svc.Claim(ctx, sh.ID, domain.Driver{Email: "dastagir@example.com"})
	require.NoError(t, err)
	require.NoError(t, f.svc.Deliver(ctx, sh.ID, "dastagir@example.com", "sig"))
	return sh
}

func (f *fixture) get(t *testing.T, id string) *domain.Shipment {
	t.Helper()
	sh, err := f.svc.Get(context.Background(), id)
	require.NoError(t, err)
	return sh
}

func TestLedger_FlagsAreIndependentPerRole(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	sh := f.createDelivered(t)

	require.NoError(t, f.ledger.SetSenderArchived(ctx, sh.ID, "sender-1", true))
	require.NoError(t, f.ledger.SetDriverArchived(ctx, sh.ID, "dastagir@example.com", true))
	require.NoError(t, f.ledger.SetReceiverArchived(ctx, sh.ID, "rana@example.com", true))

	got := f.get(t, sh.ID)
	require.True(t, got.SenderArchived)
	require.True(t, got.DriverArchived)
	require.True(t, got.ReceiverArchived)
	require.Equal(t, domain.StatusDelivered, got.Status, "visibility writes never touch status")
	require.Equal(t, "rana@example.com", got.Receiver.Email, "archive is a flag, not an identity rewrite")

	// Restoring one role leaves the others archived.
	require.NoError(t, f.ledger.SetSenderArchived(ctx, sh.ID, "sender-1", false))
	got = f.get(t, sh.ID)
	require.False(t, got.SenderArchived)
	require.True(t, got.DriverArchived)
	require.True(t, got.ReceiverArchived)
}

func TestLedger_WrongActorConflicts(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	sh := f.createDelivered(t)

	err := f.ledger.SetSenderArchived(ctx, sh.ID, "intruder", true)
	require.True(t, errors.Is(err, apperr.ErrConflict))

	err = f.ledger.SetDriverArchived(ctx, sh.ID, "intruder@example.com", true)
	require.True(t, errors.Is(err, apperr.ErrConflict))

	err = f.ledger.SetReceiverArchived(ctx, sh.ID, "intruder@example.com", true)
	require.True(t, errors.Is(err, apperr.ErrConflict))

	got := f.get(t, sh.ID)
	require.False(t, got.SenderArchived)
	require.False(t, got.DriverArchived)
	require.False(t, got.ReceiverArchived)
}

func TestLedger_NotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	err := f.ledger.SetSenderArchived(context.Background(), "missing", "sender-1", true)
	require.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestLedger_RoleDeletes(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	sh := f.createDelivered(t)

	require.NoError(t, f.ledger.DriverDelete(ctx, sh.ID, "dastagir@example.com"))
	require.NoError(t, f.ledger.ReceiverDelete(ctx, sh.ID, "rana@example.com"))

	got := f.get(t, sh.ID)
	require.True(t, got.DriverDeleted)
	require.True(t, got.ReceiverDeleted)

	// The record itself survives every role-level delete.
	require.Equal(t, domain.StatusDelivered, got.Status)
}

func TestLedger_Purge(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	sh := f.createDelivered(t)

	require.NoError(t, f.ledger.Purge(ctx, sh.ID))

	_, err := f.svc.Get(ctx, sh.ID)
	require.True(t, errors.Is(err, apperr.ErrNotFound))

	require.True(t, errors.Is(f.ledger.Purge(ctx, sh.ID), apperr.ErrNotFound))
}

func TestLedger_NormalizeLegacyEmails(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	// A record written by the old design: archive state tagged into the
	// receiver email.
	tagged, err := f.store.Create(ctx, lifecycle.Collection, map[string]any{
		"status":        string(domain.StatusReceived),
		"senderId":      "sender-1",
		"humanCode":     "LOG-AAAA11",
		"paymentStatus": string(domain.PaymentPending),
		"receiver":      map[string]any{"email": "archived-rana@example.com"},
		"goods":         map[string]any{"name": "parts"},
		"createdAt":     time.Now().UTC().Format(time.RFC3339Nano),
	})
	require.NoError(t, err)

	clean := f.createDelivered(t)

	n, err := f.ledger.NormalizeLegacyEmails(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	got := f.get(t, tagged)
	require.Equal(t, "rana@example.com", got.Receiver.Email)
	require.True(t, got.ReceiverArchived)

	untouched := f.get(t, clean.ID)
	require.False(t, untouched.ReceiverArchived)

	// Running the migration again finds nothing to do.
	n, err = f.ledger.NormalizeLegacyEmails(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}
