package domain

import "fmt"

type (
	// Status represents the lifecycle state of a shipment.
	Status string
	// PaymentStatus represents whether the driver fee has been settled.
	PaymentStatus string
)

// List of possible shipment statuses
const (
	StatusPending   Status = "Pending"
	StatusInTransit Status = "InTransit"
	StatusDelivered Status = "Delivered"
	StatusReceived  Status = "Received"
	StatusCompleted Status = "Completed"
)

// List of possible payment statuses
const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// List of allowed statuses
var allowedStatuses = [...]Status{
	StatusPending, StatusInTransit, StatusDelivered, StatusReceived, StatusCompleted,
}

// Valid checks if the Status is a member of the closed enumeration.
func (s Status) Valid() bool {
	for _, v := range allowedStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether the shipment reached the end of its lifecycle.
func (s Status) Terminal() bool {
	return s == StatusReceived || s == StatusCompleted
}

// Valid checks if the PaymentStatus is valid.
func (p PaymentStatus) Valid() bool {
	return p == PaymentPending || p == PaymentPaid
}

// ParseStatus converts a stored string into a Status. An unrecognized
// value surfaces as an error instead of being coerced.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
	}
	return s, nil
}
