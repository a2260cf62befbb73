package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatus_Valid(t *testing.T) {
	t.Parallel()

	for _, s := range []Status{StatusPending, StatusInTransit, StatusDelivered, StatusReceived, StatusCompleted} {
		require.True(t, s.Valid(), "expected %q valid", s)
	}
	require.False(t, Status("Shipped").Valid())
	require.False(t, Status("").Valid())
	require.False(t, Status("pending").Valid(), "statuses are case-sensitive")
}

func TestStatus_Terminal(t *testing.T) {
	t.Parallel()

	require.True(t, StatusReceived.Terminal())
	require.True(t, StatusCompleted.Terminal())
	require.False(t, StatusPending.Terminal())
	require.False(t, StatusInTransit.Terminal())
	require.False(t, StatusDelivered.Terminal())
}

func TestParseStatus_UnknownSurfaces(t *testing.T) {
	t.Parallel()

	s, err := ParseStatus("Delivered")
	require.NoError(t, err)
	require.Equal(t, StatusDelivered, s)

	_, err = ParseStatus("deleted")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnknownStatus))
}

func TestPaymentStatus_Valid(t *testing.T) {
	t.Parallel()

	require.True(t, PaymentPending.Valid())
	require.True(t, PaymentPaid.Valid())
	require.False(t, PaymentStatus("settled").Valid())
}
