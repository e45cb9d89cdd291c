package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Hazards.PollInterval != 10*time.Minute {
		t.Errorf("Hazards.PollInterval = %v, want 10m", cfg.Hazards.PollInterval)
	}
	if !cfg.Hazards.Enabled {
		t.Error("Hazards.Enabled = false, want true")
	}
	if cfg.Geo.Timeout != 10*time.Second {
		t.Errorf("Geo.Timeout = %v, want 10s", cfg.Geo.Timeout)
	}
	if !cfg.Geo.HighAccuracy {
		t.Error("Geo.HighAccuracy = false, want true")
	}
	if cfg.Map.DefaultLat != 10.3157 || cfg.Map.DefaultLng != 123.8854 {
		t.Errorf("Map default center = (%v, %v), want (10.3157, 123.8854)", cfg.Map.DefaultLat, cfg.Map.DefaultLng)
	}
	if cfg.Map.DefaultZoom != 11 || cfg.Map.FocusZoom != 15 {
		t.Errorf("Map zooms = (%d, %d), want (11, 15)", cfg.Map.DefaultZoom, cfg.Map.FocusZoom)
	}
	if cfg.Map.FlyDuration != 1500*time.Millisecond {
		t.Errorf("Map.FlyDuration = %v, want 1.5s", cfg.Map.FlyDuration)
	}
	if cfg.Gateway.UndoWindow != 10*time.Second {
		t.Errorf("Gateway.UndoWindow = %v, want 10s", cfg.Gateway.UndoWindow)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("HAZARD_POLL_INTERVAL", "5m")
	t.Setenv("HAZARDS_ENABLED", "false")
	t.Setenv("MAP_DEFAULT_LAT", "14.5995")
	t.Setenv("GEO_DEVICE_LAT", "10.31")
	t.Setenv("GEO_DEVICE_LNG", "123.89")
	t.Setenv("UNDO_WINDOW", "30s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Hazards.PollInterval != 5*time.Minute {
		t.Errorf("Hazards.PollInterval = %v, want 5m", cfg.Hazards.PollInterval)
	}
	if cfg.Hazards.Enabled {
		t.Error("Hazards.Enabled = true, want false")
	}
	if cfg.Map.DefaultLat != 14.5995 {
		t.Errorf("Map.DefaultLat = %v, want 14.5995", cfg.Map.DefaultLat)
	}
	if cfg.Geo.DeviceLat != 10.31 || cfg.Geo.DeviceLng != 123.89 {
		t.Errorf("Geo device position = (%v, %v), want (10.31, 123.89)", cfg.Geo.DeviceLat, cfg.Geo.DeviceLng)
	}
	if cfg.Gateway.UndoWindow != 30*time.Second {
		t.Errorf("Gateway.UndoWindow = %v, want 30s", cfg.Gateway.UndoWindow)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadMalformedValueFallsBack(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")
	t.Setenv("GEO_TIMEOUT", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want fallback 8080", cfg.Server.Port)
	}
	if cfg.Geo.Timeout != 10*time.Second {
		t.Errorf("Geo.Timeout = %v, want fallback 10s", cfg.Geo.Timeout)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"port out of range", "SERVER_PORT", "70000"},
		{"unknown log level", "LOG_LEVEL", "verbose"},
		{"poll interval too short", "HAZARD_POLL_INTERVAL", "10s"},
		{"negative undo window", "UNDO_WINDOW", "-5s"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatal("Load() succeeded, want validation error")
			}
		})
	}
}
