package claim

import (
	"context"
	"errors"

	"shiptrack-service/internal/apperr"
	"shiptrack-service/internal/domain"
	"shiptrack-service/internal/logx"
)

// Result is the outcome of a claim attempt.
type Result string

const (
	// Success - this driver won the shipment.
	Success Result = "success"
	// AlreadyInTransit - another driver is bound, or the shipment left
	// Pending before the write landed.
	AlreadyInTransit Result = "already_in_transit"
	// AlreadyHeldLocally - the session holds another active job; the
	// store was never contacted.
	AlreadyHeldLocally Result = "already_held_locally"
)

// Outcome carries the claim result plus context for the caller: the
// claimed shipment on success, or the current status as the rejection
// reason on the manual-code path.
type Outcome struct {
	Result         Result
	Shipment       *domain.Shipment
	RejectedStatus domain.Status
}

type lifecycleService interface {
	GetByCode(ctx context.Context, code string) (*domain.Shipment, error)
	Claim(ctx context.Context, id string, driver domain.Driver) (*domain.Shipment, error)
}

type counter interface {
	Inc()
}

// Coordinator arbitrates which driver wins an unassigned Pending
// shipment. The store's conditional write decides; the coordinator
// enforces the local one-job rule and reconciles session state.
type Coordinator struct {
	lifecycle lifecycleService
	logger    logx.Logger
	conflicts counter
}

// NewCoordinator creates a claim Coordinator. The conflicts counter may
// be nil.
func NewCoordinator(lc lifecycleService, logger logx.Logger, conflicts counter) *Coordinator {
	return &Coordinator{lifecycle: lc, logger: logger, conflicts: conflicts}
}

// Claim attempts to bind the session's driver to the shipment. The local
// one-active-job check runs first and fails fast; the store write is a
// compare-and-set, so exactly one of any set of concurrent claimers
// succeeds. A lost race rolls the session's optimistic state back.
func (c *Coordinator) Claim(ctx context.Context, sess *Session, shipmentID string) (Outcome, error) {
	if sess == nil || shipmentID == "" {
		return Outcome{}, apperr.ErrInvalid
	}

	if err := sess.propose(shipmentID); err != nil {
		return Outcome{Result: AlreadyHeldLocally}, nil
	}

	sh, err := c.lifecycle.Claim(ctx, shipmentID, sess.Driver())
	switch {
	case err == nil:
		sess.confirm(shipmentID)
		return Outcome{Result: Success, Shipment: sh}, nil
	case errors.Is(err, apperr.ErrClaimConflict):
		sess.reject(shipmentID)
		if c.conflicts != nil {
			c.conflicts.Inc()
		}
		c.logger.Info("claim lost",
			logx.String("event", "claim_conflict"),
			logx.String("shipment_id", shipmentID),
			logx.String("driver_email", sess.Driver().Email),
		)
		return Outcome{Result: AlreadyInTransit}, nil
	default:
		// Store failure: outcome unknown, roll back and surface.
		// No implicit retry here; a retried claim could double-claim.
		sess.reject(shipmentID)
		return Outcome{}, err
	}
}

// ClaimByCode is the manual path: the driver types a human code. An
// unassigned Pending match goes through the same conditional-write path
// as an observed claim; anything else reports the shipment's current
// status as the rejection reason.
func (c *Coordinator) ClaimByCode(ctx context.Context, sess *Session, code string) (Outcome, error) {
	if sess == nil {
		return Outcome{}, apperr.ErrInvalid
	}

	sh, err := c.lifecycle.GetByCode(ctx, code)
	if err != nil {
		return Outcome{}, err
	}
	if sh.Status != domain.StatusPending || sh.HasDriver() {
		return Outcome{Result: AlreadyInTransit, RejectedStatus: sh.Status}, nil
	}
	return c.Claim(ctx, sess, sh.ID)
}
