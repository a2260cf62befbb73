package apperr

import "errors"

// ErrInvalid is returned when the input fails domain validation.
var ErrInvalid = errors.New("invalid input")

// ErrNotFound indicates that the requested shipment does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a uniqueness or state conflict.
var ErrConflict = errors.New("conflict")

// ErrInvalidTransition indicates a lifecycle event applied from a state
// that does not permit it. The record is left unchanged.
var ErrInvalidTransition = errors.New("invalid transition")

// ErrClaimConflict indicates a claim lost the arbitration race: another
// driver is already bound to the shipment.
var ErrClaimConflict = errors.New("claim conflict")

// ErrActiveJobHeld indicates the driver session already holds a shipment
// in transit and may not claim another.
var ErrActiveJobHeld = errors.New("active job already held")

// ErrStoreUnavailable indicates a transport or connectivity failure
// talking to the document store. Never retried implicitly on the
// claim and transition paths.
var ErrStoreUnavailable = errors.New("document store unavailable")

// ErrLocationUnavailable indicates the location provider failed; the
// relay recovers with a fallback coordinate.
var ErrLocationUnavailable = errors.New("location unavailable")
