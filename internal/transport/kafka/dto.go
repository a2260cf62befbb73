package kafka

import (
	"strings"
	"time"
)

// LocationPing is a driver position report arriving on the locations
// topic, produced by driver apps that report over the broker instead of
// holding an HTTP session.
type LocationPing struct {
	ShipmentID  string    `json:"shipment_id"`
	DriverEmail string    `json:"driver_email"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	Timestamp   time.Time `json:"timestamp"`
}

// Valid reports whether the ping can be routed at all.
func (p LocationPing) Valid() bool {
	return strings.TrimSpace(p.ShipmentID) != "" && strings.TrimSpace(p.DriverEmail) != ""
}
