package location

import (
	"context"

	"shiptrack-service/internal/apperr"
	"shiptrack-service/internal/domain"
)

// StaticProvider reports a fixed coordinate. Stands in for a real GPS
// source in local development, mirroring a fixed-position test rig.
type StaticProvider struct {
	Point domain.GeoPoint
}

// Current returns the fixed coordinate.
func (p StaticProvider) Current(context.Context) (domain.GeoPoint, error) {
	return p.Point, nil
}

// Watch returns a stream that never emits; the relay's republish ticker
// keeps the record fresh.
func (p StaticProvider) Watch(ctx context.Context) (<-chan domain.GeoPoint, error) {
	ch := make(chan domain.GeoPoint)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

var _ Provider = StaticProvider{}

// UnavailableProvider fails every query. It backs relays enabled
// without a device stream: each failed reading routes through the
// relay's fallback path, so the substituted coordinate is logged and
// counted instead of passing for a genuine position.
type UnavailableProvider struct{}

// Current always fails.
func (UnavailableProvider) Current(context.Context) (domain.GeoPoint, error) {
	return domain.GeoPoint{}, apperr.ErrLocationUnavailable
}

// Watch returns a stream that never emits and closes on cancel.
func (UnavailableProvider) Watch(ctx context.Context) (<-chan domain.GeoPoint, error) {
	ch := make(chan domain.GeoPoint)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

var _ Provider = UnavailableProvider{}
