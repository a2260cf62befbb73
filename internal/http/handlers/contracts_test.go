package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"shiptrack-service/internal/config"
	"shiptrack-service/internal/location"
	"shiptrack-service/internal/logx"
)

func TestNewRelayManager_DisabledByDefault(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Location: config.DefaultLocation()}
	mgr := location.NewManager(nil, location.UnavailableProvider{}, time.Second, logx.Nop(), nil)

	rm := NewRelayManager(cfg, mgr)
	require.IsType(t, location.NopManager{}, rm, "without an in-process GPS source the broker is the only location writer")

	// The nop keeps claims working: tracking requests land nowhere.
	require.NoError(t, rm.Track(context.Background(), "dastagir@example.com", "ship-1"))
	rm.Stop("dastagir@example.com", "ship-1")
}

func TestNewRelayManager_EnabledUsesRealManager(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Location: config.DefaultLocation()}
	cfg.Location.RelayEnabled = true
	mgr := location.NewManager(nil, location.UnavailableProvider{}, time.Second, logx.Nop(), nil)

	rm := NewRelayManager(cfg, mgr)
	require.Same(t, mgr, rm)
}
