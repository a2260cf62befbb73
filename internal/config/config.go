package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// DB stores document store connection settings.
type DB struct {
	Host string
	Port string
	User string
	Pass string
	Name string
}

// DSN builds a Postgres connection string.
func (d DB) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		d.User, d.Pass, d.Host, d.Port, d.Name)
}

// Kafka stores location-ingest consumer settings. Empty brokers disable
// the consumer.
type Kafka struct {
	Brokers []string
	Topic   string
	GroupID string
}

// RecapGateway stores retry behavior for the external recap service.
type RecapGateway struct {
	BaseURL     string
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Location stores relay settings. RelayEnabled keeps the HTTP-side
// relay off by default: positions normally arrive through the Kafka
// ingest worker, and a relay without a device stream would publish
// fallback coordinates over them.
type Location struct {
	RelayEnabled      bool
	RepublishInterval time.Duration
}

// Pprof stores credentials for the non-loopback /debug/pprof routes.
type Pprof struct {
	User string
	Pass string
}

// RateLimit stores claim-route limiter settings.
type RateLimit struct {
	Enabled    bool
	Rate       float64
	Burst      int
	TTL        time.Duration
	MaxBuckets int
}

// Config stores service settings.
type Config struct {
	Port      int
	DB        DB
	Kafka     Kafka
	Recap     RecapGateway
	Location  Location
	RateLimit RateLimit
	Pprof     Pprof
}

// Load reads configuration in order: .env (if present) → environment → flags.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: .env not loaded: %v", err)
	}

	cfg := &Config{
		Port:      DefaultPort(),
		DB:        DefaultDB(),
		Kafka:     DefaultKafka(),
		Recap:     DefaultRecapGateway(),
		Location:  DefaultLocation(),
		RateLimit: DefaultRateLimit(),
	}

	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	envStr("DB_HOST", &cfg.DB.Host)
	envStr("DB_PORT", &cfg.DB.Port)
	envStr("DB_USER", &cfg.DB.User)
	envStr("DB_PASS", &cfg.DB.Pass)
	envStr("DB_NAME", &cfg.DB.Name)
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}
	envStr("KAFKA_TOPIC", &cfg.Kafka.Topic)
	envStr("KAFKA_GROUP_ID", &cfg.Kafka.GroupID)
	envStr("RECAP_BASE_URL", &cfg.Recap.BaseURL)
	if v := os.Getenv("LOCATION_RELAY_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Location.RelayEnabled = b
		}
	}
	if v := os.Getenv("LOCATION_REPUBLISH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Location.RepublishInterval = d
		}
	}
	envStr("PPROF_USER", &cfg.Pprof.User)
	envStr("PPROF_PASS", &cfg.Pprof.Pass)
	if v := os.Getenv("RATE_LIMIT_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.RateLimit.Enabled = b
		}
	}
	if v := os.Getenv("RATE_LIMIT_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.RateLimit.Rate = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateLimit.Burst = n
		}
	}

	pflag.IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to listen on")
	pflag.Parse()

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port: %d", cfg.Port)
	}
	return cfg, nil
}

func envStr(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
