package metrics

import "github.com/prometheus/client_golang/prometheus"

// NewClaimConflictsTotal returns a Prometheus counter for claims lost to
// another driver in the arbitration race.
func NewClaimConflictsTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "claim_conflicts_total",
		Help: "Total number of shipment claims lost to another driver",
	})
}

// NewLocationFallbacksTotal returns a Prometheus counter for relay
// writes that used the fallback coordinate instead of a genuine reading.
func NewLocationFallbacksTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "location_fallbacks_total",
		Help: "Total number of location writes that used the fallback coordinate",
	})
}

// NewRateLimitExceededTotal returns a Prometheus counter for the number
// of rejected HTTP requests due to rate limiting.
func NewRateLimitExceededTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rate_limit_exceeded_total",
		Help: "Total number of rejected HTTP requests due to rate limiting",
	})
}

// NewGatewayRetriesTotal returns a Prometheus counter for the number of
// retry attempts performed by gateways.
func NewGatewayRetriesTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gateway_retries_total",
		Help: "Total number of retry attempts performed by gateways",
	})
}
