package views

import (
	"context"

	"shiptrack-service/internal/docstore"
	"shiptrack-service/internal/domain"
	"shiptrack-service/internal/lifecycle"
)

// RevenueRecap summarizes the driver's fees across delivered jobs.
type RevenueRecap struct {
	PaidCount    int
	PaidTotal    float64
	PendingCount int
	PendingTotal float64
}

// RevenueRecap totals the driver's paid and outstanding fees over jobs
// that reached the end of the lifecycle.
func (v *DriverView) RevenueRecap(ctx context.Context, driverEmail string) (RevenueRecap, error) {
	recs, err := v.store.Query(ctx, lifecycle.Collection,
		docstore.Eq(domain.FieldDriverEmail, driverEmail))
	if err != nil {
		return RevenueRecap{}, err
	}

	var recap RevenueRecap
	for _, rec := range recs {
		sh, err := lifecycle.FromRecord(rec)
		if err != nil {
			return RevenueRecap{}, err
		}
		if sh.Status == domain.StatusPending || sh.Status == domain.StatusInTransit {
			continue
		}
		fee := 0.0
		if sh.Driver != nil {
			fee = sh.Driver.Fee
		}
		if sh.PaymentStatus == domain.PaymentPaid {
			recap.PaidCount++
			recap.PaidTotal += fee
		} else {
			recap.PendingCount++
			recap.PendingTotal += fee
		}
	}
	return recap, nil
}

// MonthlyRecap counts the sender's shipments per creation month, keyed
// "2006-01", split by status.
func (v *SenderView) MonthlyRecap(ctx context.Context, senderID string) (map[string]map[domain.Status]int, error) {
	recs, err := v.store.Query(ctx, lifecycle.Collection,
		docstore.Eq(domain.FieldSenderID, senderID))
	if err != nil {
		return nil, err
	}

	recap := make(map[string]map[domain.Status]int)
	for _, rec := range recs {
		sh, err := lifecycle.FromRecord(rec)
		if err != nil {
			return nil, err
		}
		month := sh.CreatedAt.Format("2006-01")
		if recap[month] == nil {
			recap[month] = make(map[domain.Status]int)
		}
		recap[month][sh.Status]++
	}
	return recap, nil
}
