package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shiptrack-service/internal/apperr"
	"shiptrack-service/internal/docstore"
	"shiptrack-service/internal/domain"
	"shiptrack-service/internal/logx"
)

// Service drives the shipment state machine. Every transition is written
// as one conditional update pinned to the observed state, so a losing
// writer fails cleanly instead of half-applying.
type Service struct {
	store            store
	operationTimeout time.Duration
	logger           logx.Logger
	now              func() time.Time
}

// NewService creates and configures a lifecycle Service.
func NewService(s store, timeout time.Duration, logger logx.Logger) *Service {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Service{
		store:            s,
		operationTimeout: timeout,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

// FromRecord decodes a stored record into a Shipment. An unrecognized
// status value surfaces as domain.ErrUnknownStatus, never coerced.
func FromRecord(rec docstore.Record) (*domain.Shipment, error) {
	var sh domain.Shipment
	if err := docstore.Decode(rec, &sh); err != nil {
		return nil, err
	}
	sh.ID = rec.ID
	if _, err := domain.ParseStatus(string(sh.Status)); err != nil {
		return nil, err
	}
	return &sh, nil
}

// CreateInput carries the sender-provided fields of a new shipment.
type CreateInput struct {
	SenderID string
	Receiver domain.Receiver
	Goods    domain.Goods
}

func validateCreate(in CreateInput) error {
	if strings.TrimSpace(in.SenderID) == "" {
		return apperr.ErrInvalid
	}
	if strings.TrimSpace(in.Receiver.Email) == "" {
		return apperr.ErrInvalid
	}
	if strings.TrimSpace(in.Goods.Name) == "" {
		return apperr.ErrInvalid
	}
	if in.Goods.Weight < 0 {
		return apperr.ErrInvalid
	}
	return nil
}

// Create registers a new Pending, unassigned shipment and returns it
// with its store-assigned id and generated human code.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Shipment, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	sh := domain.Shipment{
		HumanCode:     domain.NewHumanCode(),
		Status:        domain.StatusPending,
		SenderID:      in.SenderID,
		Receiver:      in.Receiver,
		Goods:         in.Goods,
		PaymentStatus: domain.PaymentPending,
		CreatedAt:     s.now(),
	}

	doc, err := docstore.Encode(&sh)
	if err != nil {
		return nil, err
	}
	delete(doc, "id")

	id, err := s.store.Create(ctx, Collection, doc)
	if err != nil {
		return nil, s.mapStoreErr(err)
	}
	sh.ID = id

	s.logger.Info("shipment created",
		logx.String("event", "shipment_created"),
		logx.String("shipment_id", id),
		logx.String("code", sh.HumanCode),
		logx.String("sender_id", in.SenderID),
	)
	return &sh, nil
}

// Get retrieves a shipment by its store id.
func (s *Service) Get(ctx context.Context, id string) (*domain.Shipment, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.get(ctx, id)
}

func (s *Service) get(ctx context.Context, id string) (*domain.Shipment, error) {
	rec, err := s.store.Get(ctx, Collection, id)
	if err != nil {
		return nil, s.mapStoreErr(err)
	}
	return FromRecord(rec)
}

// GetByCode resolves a human code to a shipment. Matching is
// case-insensitive via normalization.
func (s *Service) GetByCode(ctx context.Context, code string) (*domain.Shipment, error) {
	code = domain.NormalizeHumanCode(code)
	if !domain.ValidateHumanCode(code) {
		return nil, apperr.ErrInvalid
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	recs, err := s.store.Query(ctx, Collection, docstore.Eq(domain.FieldHumanCode, code))
	if err != nil {
		return nil, s.mapStoreErr(err)
	}
	if len(recs) == 0 {
		return nil, apperr.ErrNotFound
	}
	return FromRecord(recs[0])
}

// Claim transitions Pending -> InTransit, binding the driver. The write
// is conditional on the stored status still being Pending with no driver
// bound, so concurrent claimers race on the store, not on a re-read.
func (s *Service) Claim(ctx context.Context, id string, driver domain.Driver) (*domain.Shipment, error) {
	if strings.TrimSpace(driver.Email) == "" {
		return nil, apperr.ErrInvalid
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := s.now()
	fields := map[string]any{
		domain.FieldStatus:          domain.StatusInTransit,
		domain.FieldDriver:          driver,
		domain.FieldClaimedAt:       now,
		domain.FieldCurrentLocation: nil, // stale location from a past hold
	}
	pre := []docstore.Filter{
		docstore.Eq(domain.FieldStatus, domain.StatusPending),
		docstore.Missing(domain.FieldDriver),
	}

	if err := s.store.Update(ctx, Collection, id, fields, pre...); err != nil {
		if errors.Is(err, docstore.ErrPrecondition) {
			return nil, apperr.ErrClaimConflict
		}
		return nil, s.mapStoreErr(err)
	}

	s.logger.Info("shipment claimed",
		logx.String("event", "shipment_claimed"),
		logx.String("shipment_id", id),
		logx.String("driver_email", driver.Email),
		logx.Time("claimed_at", now),
	)
	return s.get(ctx, id)
}

// Unclaim is the explicit regression InTransit -> Pending. It is the only
// path that clears a bound driver.
func (s *Service) Unclaim(ctx context.Context, id, driverEmail string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	fields := map[string]any{
		domain.FieldStatus:          domain.StatusPending,
		domain.FieldDriver:          nil,
		domain.FieldClaimedAt:       nil,
		domain.FieldCurrentLocation: nil,
	}
	pre := []docstore.Filter{
		docstore.Eq(domain.FieldStatus, domain.StatusInTransit),
		docstore.Eq(domain.FieldDriverEmail, driverEmail),
	}

	if err := s.store.Update(ctx, Collection, id, fields, pre...); err != nil {
		if errors.Is(err, docstore.ErrPrecondition) {
			return s.classify(ctx, id, domain.StatusInTransit, driverEmail)
		}
		return s.mapStoreErr(err)
	}

	s.logger.Info("shipment unclaimed",
		logx.String("event", "shipment_unclaimed"),
		logx.String("shipment_id", id),
		logx.String("driver_email", driverEmail),
	)
	return nil
}

// Deliver transitions InTransit -> Delivered for the bound driver,
// setting the signature artifact exactly once and clearing the live
// location in the same write.
func (s *Service) Deliver(ctx context.Context, id, driverEmail, signature string) error {
	if strings.TrimSpace(signature) == "" {
		return apperr.ErrInvalid
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	fields := map[string]any{
		domain.FieldStatus:            domain.StatusDelivered,
		domain.FieldSignatureArtifact: signature,
		domain.FieldDeliveredAt:       s.now(),
		domain.FieldCurrentLocation:   nil,
	}
	pre := []docstore.Filter{
		docstore.Eq(domain.FieldStatus, domain.StatusInTransit),
		docstore.Eq(domain.FieldDriverEmail, driverEmail),
		docstore.Missing(domain.FieldSignatureArtifact),
	}

	if err := s.store.Update(ctx, Collection, id, fields, pre...); err != nil {
		if errors.Is(err, docstore.ErrPrecondition) {
			return s.classify(ctx, id, domain.StatusInTransit, driverEmail)
		}
		return s.mapStoreErr(err)
	}

	s.logger.Info("shipment delivered",
		logx.String("event", "shipment_delivered"),
		logx.String("shipment_id", id),
		logx.String("driver_email", driverEmail),
	)
	return nil
}

// Confirm transitions Delivered -> Received for the bound receiver.
// Confirming an already-Received shipment is rejected, never re-applied.
func (s *Service) Confirm(ctx context.Context, id, receiverEmail string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	fields := map[string]any{
		domain.FieldStatus:          domain.StatusReceived,
		domain.FieldCurrentLocation: nil,
	}
	pre := []docstore.Filter{
		docstore.Eq(domain.FieldStatus, domain.StatusDelivered),
		docstore.Eq(domain.FieldReceiverEmail, receiverEmail),
	}

	if err := s.store.Update(ctx, Collection, id, fields, pre...); err != nil {
		if errors.Is(err, docstore.ErrPrecondition) {
			return s.classifyReceiver(ctx, id, receiverEmail, domain.StatusDelivered)
		}
		return s.mapStoreErr(err)
	}

	s.logger.Info("shipment received",
		logx.String("event", "shipment_received"),
		logx.String("shipment_id", id),
	)
	return nil
}

// Revert is the receiver's "not yet received" correction:
// Received|Completed -> Delivered. Nothing else is touched.
func (s *Service) Revert(ctx context.Context, id, receiverEmail string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	cur, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if !cur.Status.Terminal() {
		return apperr.ErrInvalidTransition
	}

	fields := map[string]any{
		domain.FieldStatus: domain.StatusDelivered,
	}
	// Pin to the observed terminal status: a concurrent transition
	// invalidates this write instead of being overwritten.
	pre := []docstore.Filter{
		docstore.Eq(domain.FieldStatus, cur.Status),
		docstore.Eq(domain.FieldReceiverEmail, receiverEmail),
	}

	if err := s.store.Update(ctx, Collection, id, fields, pre...); err != nil {
		if errors.Is(err, docstore.ErrPrecondition) {
			return s.classifyReceiver(ctx, id, receiverEmail, cur.Status)
		}
		return s.mapStoreErr(err)
	}

	s.logger.Info("shipment reverted",
		logx.String("event", "shipment_reverted"),
		logx.String("shipment_id", id),
	)
	return nil
}

// ForceComplete is the sender-only shortcut Pending|InTransit ->
// Completed, bypassing signature capture. The live location is cleared
// in the same write.
func (s *Service) ForceComplete(ctx context.Context, id, senderID string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	cur, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if cur.SenderID != senderID {
		return apperr.ErrConflict
	}
	if cur.Status != domain.StatusPending && cur.Status != domain.StatusInTransit {
		return apperr.ErrInvalidTransition
	}

	fields := map[string]any{
		domain.FieldStatus:          domain.StatusCompleted,
		domain.FieldCurrentLocation: nil,
	}
	pre := []docstore.Filter{
		docstore.Eq(domain.FieldStatus, cur.Status),
		docstore.Eq(domain.FieldSenderID, senderID),
	}

	if err := s.store.Update(ctx, Collection, id, fields, pre...); err != nil {
		if errors.Is(err, docstore.ErrPrecondition) {
			return apperr.ErrInvalidTransition
		}
		return s.mapStoreErr(err)
	}

	s.logger.Info("shipment force-completed",
		logx.String("event", "shipment_force_completed"),
		logx.String("shipment_id", id),
		logx.String("sender_id", senderID),
	)
	return nil
}

// MarkPaid settles the driver fee. PaidAt is set at most once; a second
// call conflicts instead of re-stamping.
func (s *Service) MarkPaid(ctx context.Context, id, driverEmail string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	fields := map[string]any{
		domain.FieldPaymentStatus: domain.PaymentPaid,
		domain.FieldPaidAt:        s.now(),
	}
	pre := []docstore.Filter{
		docstore.Eq(domain.FieldPaymentStatus, domain.PaymentPending),
		docstore.Eq(domain.FieldDriverEmail, driverEmail),
	}

	if err := s.store.Update(ctx, Collection, id, fields, pre...); err != nil {
		if errors.Is(err, docstore.ErrPrecondition) {
			return apperr.ErrConflict
		}
		return s.mapStoreErr(err)
	}

	s.logger.Info("shipment paid",
		logx.String("event", "shipment_paid"),
		logx.String("shipment_id", id),
	)
	return nil
}

// UpdateDetails lets the sender edit receiver and goods fields. The
// receiver's email is the join key and stays immutable; an attempt to
// change it is invalid.
func (s *Service) UpdateDetails(ctx context.Context, id, senderID string, receiver domain.Receiver, goods domain.Goods) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	cur, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if cur.SenderID != senderID {
		return apperr.ErrConflict
	}
	if receiver.Email != "" && receiver.Email != cur.Receiver.Email {
		return apperr.ErrInvalid
	}
	receiver.Email = cur.Receiver.Email

	fields := map[string]any{
		domain.FieldReceiver: receiver,
		domain.FieldGoods:    goods,
	}
	pre := []docstore.Filter{
		docstore.Eq(domain.FieldSenderID, senderID),
	}

	if err := s.store.Update(ctx, Collection, id, fields, pre...); err != nil {
		if errors.Is(err, docstore.ErrPrecondition) {
			return apperr.ErrConflict
		}
		return s.mapStoreErr(err)
	}
	return nil
}

// UpdateLocation writes the driver's live position. Valid only while the
// shipment is InTransit and held by the calling driver; anything else is
// an invalid transition for the relay to stop on.
func (s *Service) UpdateLocation(ctx context.Context, id, driverEmail string, point domain.GeoPoint) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	fields := map[string]any{
		domain.FieldCurrentLocation: point,
	}
	pre := []docstore.Filter{
		docstore.Eq(domain.FieldStatus, domain.StatusInTransit),
		docstore.Eq(domain.FieldDriverEmail, driverEmail),
	}

	if err := s.store.Update(ctx, Collection, id, fields, pre...); err != nil {
		if errors.Is(err, docstore.ErrPrecondition) {
			return apperr.ErrInvalidTransition
		}
		return s.mapStoreErr(err)
	}
	return nil
}

// classify re-reads after a failed driver-scoped CAS and names the
// reason: wrong state, wrong driver, or gone.
func (s *Service) classify(ctx context.Context, id string, want domain.Status, driverEmail string) error {
	cur, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if cur.Status != want {
		return apperr.ErrInvalidTransition
	}
	if cur.Driver == nil || cur.Driver.Email != driverEmail {
		return apperr.ErrConflict
	}
	return apperr.ErrInvalidTransition
}

func (s *Service) classifyReceiver(ctx context.Context, id, receiverEmail string, want domain.Status) error {
	cur, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if cur.Receiver.Email != receiverEmail {
		return apperr.ErrConflict
	}
	if cur.Status != want {
		return apperr.ErrInvalidTransition
	}
	return apperr.ErrInvalidTransition
}

func (s *Service) mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, docstore.ErrNotFound):
		return apperr.ErrNotFound
	case errors.Is(err, docstore.ErrUnavailable):
		return fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	default:
		return err
	}
}
