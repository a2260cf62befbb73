package handlers

import (
	"context"

	"shiptrack-service/internal/claim"
	"shiptrack-service/internal/config"
	"shiptrack-service/internal/domain"
	"shiptrack-service/internal/gateway/recap"
	"shiptrack-service/internal/lifecycle"
	"shiptrack-service/internal/location"
	"shiptrack-service/internal/views"
	"shiptrack-service/internal/visibility"
)

type shipmentUsecase interface {
	Create(ctx context.Context, in lifecycle.CreateInput) (*domain.Shipment, error)
	Get(ctx context.Context, id string) (*domain.Shipment, error)
	GetByCode(ctx context.Context, code string) (*domain.Shipment, error)
	Unclaim(ctx context.Context, id, driverEmail string) error
	Deliver(ctx context.Context, id, driverEmail, signature string) error
	Confirm(ctx context.Context, id, receiverEmail string) error
	Revert(ctx context.Context, id, receiverEmail string) error
	ForceComplete(ctx context.Context, id, senderID string) error
	MarkPaid(ctx context.Context, id, driverEmail string) error
	UpdateDetails(ctx context.Context, id, senderID string, receiver domain.Receiver, goods domain.Goods) error
	UpdateLocation(ctx context.Context, id, driverEmail string, point domain.GeoPoint) error
}

// NewShipmentUsecase wires a lifecycle.Service into a shipmentUsecase.
func NewShipmentUsecase(svc *lifecycle.Service) shipmentUsecase {
	return svc
}

type claimCoordinator interface {
	Claim(ctx context.Context, sess *claim.Session, shipmentID string) (claim.Outcome, error)
	ClaimByCode(ctx context.Context, sess *claim.Session, code string) (claim.Outcome, error)
}

// NewClaimCoordinator wires a claim.Coordinator into a claimCoordinator.
func NewClaimCoordinator(c *claim.Coordinator) claimCoordinator {
	return c
}

type sessionReleaser interface {
	Release(shipmentID string)
}

// NewSessionReleaser wires the claim registry into the shipment
// handlers so a finished job frees the driver's session slot.
func NewSessionReleaser(r *claim.Registry) sessionReleaser {
	return r
}

type relayManager interface {
	Track(ctx context.Context, driverEmail, shipmentID string) error
	Stop(driverEmail, shipmentID string)
}

// NewRelayManager picks the relay implementation. With the relay
// disabled (the default, positions come from the broker ingest worker)
// claims do not start tracking loops and nothing on the HTTP side
// writes locations.
func NewRelayManager(cfg *config.Config, m *location.Manager) relayManager {
	if !cfg.Location.RelayEnabled {
		return location.NopManager{}
	}
	return m
}

type visibilityLedger interface {
	SetSenderArchived(ctx context.Context, id, senderID string, archived bool) error
	SetDriverArchived(ctx context.Context, id, driverEmail string, archived bool) error
	DriverDelete(ctx context.Context, id, driverEmail string) error
	SetReceiverArchived(ctx context.Context, id, receiverEmail string, archived bool) error
	ReceiverDelete(ctx context.Context, id, receiverEmail string) error
	Purge(ctx context.Context, id string) error
	NormalizeLegacyEmails(ctx context.Context) (int, error)
}

// NewVisibilityLedger wires a visibility.Ledger into a visibilityLedger.
func NewVisibilityLedger(l *visibility.Ledger) visibilityLedger {
	return l
}

type senderViews interface {
	List(ctx context.Context, senderID string) (views.SenderList, error)
	MonthlyRecap(ctx context.Context, senderID string) (map[string]map[domain.Status]int, error)
}

// NewSenderViews wires a views.SenderView into a senderViews.
func NewSenderViews(v *views.SenderView) senderViews {
	return v
}

type driverViews interface {
	Pool(ctx context.Context) ([]domain.Shipment, error)
	Board(ctx context.Context, driverEmail string) (views.DriverBoard, error)
	RevenueRecap(ctx context.Context, driverEmail string) (views.RevenueRecap, error)
}

// NewDriverViews wires a views.DriverView into a driverViews.
func NewDriverViews(v *views.DriverView) driverViews {
	return v
}

type receiverViews interface {
	List(ctx context.Context, email string) (views.ReceiverList, error)
}

// NewReceiverViews wires a views.ReceiverView into a receiverViews.
func NewReceiverViews(v *views.ReceiverView) receiverViews {
	return v
}

type recapGateway interface {
	Generate(ctx context.Context, req recap.Request) (*recap.Summary, error)
}

// NewRecapGateway wires a recap.Gateway into a recapGateway.
func NewRecapGateway(g recap.Gateway) recapGateway {
	return g
}
