package location

import (
	"context"

	"shiptrack-service/internal/domain"
)

// Provider supplies the driver's position: one immediate reading plus a
// stream of changes. The stream ends when the context is canceled.
type Provider interface {
	Current(ctx context.Context) (domain.GeoPoint, error)
	Watch(ctx context.Context) (<-chan domain.GeoPoint, error)
}

// Fallback is the last-resort coordinate written when the provider
// fails, so observers are not left panning a stale position. Writes of
// this point are logged and counted distinctly from genuine readings.
var Fallback = domain.GeoPoint{Lat: 36.705667, Lng: 67.182963}
