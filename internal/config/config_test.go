package config_test

import (
	"os"
	"testing"
	"time"

	"shiptrack-service/internal/config"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func resetFlags(t *testing.T) {
	t.Helper()
	old := pflag.CommandLine
	pflag.CommandLine = pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)
	t.Cleanup(func() {
		pflag.CommandLine = old
	})
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASS", "DB_NAME",
		"KAFKA_BROKERS", "KAFKA_TOPIC", "KAFKA_GROUP_ID",
		"RECAP_BASE_URL", "LOCATION_RELAY_ENABLED", "LOCATION_REPUBLISH_INTERVAL",
		"RATE_LIMIT_ENABLED", "RATE_LIMIT_RATE", "RATE_LIMIT_BURST",
		"PPROF_USER", "PPROF_PASS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	resetFlags(t)
	clearEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	require.Equal(t, 8080, cfg.Port)

	require.Equal(t, "127.0.0.1", cfg.DB.Host)
	require.Equal(t, "5432", cfg.DB.Port)
	require.Equal(t, "shiptrack", cfg.DB.Name)

	require.Empty(t, cfg.Kafka.Brokers, "consumer disabled without brokers")
	require.Equal(t, "shipment-locations", cfg.Kafka.Topic)

	require.Empty(t, cfg.Recap.BaseURL, "recap gateway disabled without a base URL")
	require.Equal(t, 4, cfg.Recap.MaxAttempts)

	require.False(t, cfg.Location.RelayEnabled, "broker ingest is the default location writer")
	require.Equal(t, 15*time.Second, cfg.Location.RepublishInterval)

	require.True(t, cfg.RateLimit.Enabled)
	require.Equal(t, 5.0, cfg.RateLimit.Rate)
	require.Equal(t, 10, cfg.RateLimit.Burst)
}

func TestLoad_EnvOverrides(t *testing.T) {
	resetFlags(t)
	clearEnv(t)

	t.Setenv("PORT", "9090")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "15432")
	t.Setenv("DB_USER", "u")
	t.Setenv("DB_PASS", "p")
	t.Setenv("DB_NAME", "shipping")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092")
	t.Setenv("KAFKA_TOPIC", "pings")
	t.Setenv("RECAP_BASE_URL", "http://recap.internal")
	t.Setenv("LOCATION_RELAY_ENABLED", "true")
	t.Setenv("LOCATION_REPUBLISH_INTERVAL", "30s")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("RATE_LIMIT_RATE", "2.5")
	t.Setenv("RATE_LIMIT_BURST", "4")

	cfg, err := config.Load()
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, "db", cfg.DB.Host)
	require.Equal(t, "postgres://u:p@db:15432/shipping?sslmode=disable", cfg.DB.DSN())
	require.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Kafka.Brokers)
	require.Equal(t, "pings", cfg.Kafka.Topic)
	require.Equal(t, "http://recap.internal", cfg.Recap.BaseURL)
	require.True(t, cfg.Location.RelayEnabled)
	require.Equal(t, 30*time.Second, cfg.Location.RepublishInterval)
	require.False(t, cfg.RateLimit.Enabled)
	require.Equal(t, 2.5, cfg.RateLimit.Rate)
	require.Equal(t, 4, cfg.RateLimit.Burst)
}

func TestLoad_InvalidPort(t *testing.T) {
	resetFlags(t)
	clearEnv(t)

	t.Setenv("PORT", "70000")

	cfg, err := config.Load()
	require.Error(t, err)
	require.Nil(t, cfg)
}

func TestLoad_BadValuesKeepDefaults(t *testing.T) {
	resetFlags(t)
	clearEnv(t)

	t.Setenv("LOCATION_REPUBLISH_INTERVAL", "bad-interval")
	t.Setenv("RATE_LIMIT_RATE", "-3")
	t.Setenv("RATE_LIMIT_BURST", "not-a-number")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, 15*time.Second, cfg.Location.RepublishInterval)
	require.Equal(t, 5.0, cfg.RateLimit.Rate)
	require.Equal(t, 10, cfg.RateLimit.Burst)
}
