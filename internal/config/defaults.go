package config

import "time"

const defaultPort = 8080

var defaultDB = DB{
	Host: "127.0.0.1",
	Port: "5432",
	User: "myuser",
	Pass: "mypassword",
	Name: "shiptrack",
}

var defaultKafka = Kafka{
	Topic:   "shipment-locations",
	GroupID: "shiptrack-location-ingest",
}

var defaultRecapGateway = RecapGateway{
	MaxAttempts: 4,
	BaseDelay:   150 * time.Millisecond,
	MaxDelay:    2 * time.Second,
}

var defaultLocation = Location{
	RelayEnabled:      false,
	RepublishInterval: 15 * time.Second,
}

var defaultRateLimit = RateLimit{
	Enabled:    true,
	Rate:       5,
	Burst:      10,
	TTL:        10 * time.Minute,
	MaxBuckets: 10000,
}

// DefaultPort returns the default port.
func DefaultPort() int {
	return defaultPort
}

// DefaultDB returns the default database settings.
func DefaultDB() DB {
	return defaultDB
}

// DefaultKafka returns the default Kafka consumer settings.
func DefaultKafka() Kafka {
	return defaultKafka
}

// DefaultRecapGateway returns the default recap gateway settings.
func DefaultRecapGateway() RecapGateway {
	return defaultRecapGateway
}

// DefaultLocation returns the default location relay settings.
func DefaultLocation() Location {
	return defaultLocation
}

// DefaultRateLimit returns the default claim-route limiter settings.
func DefaultRateLimit() RateLimit {
	return defaultRateLimit
}
