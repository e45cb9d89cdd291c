package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server  ServerConfig
	Hazards HazardsConfig
	Geo     GeoConfig
	Map     MapConfig
	Gateway GatewayConfig
	DB      DatabaseConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type HazardsConfig struct {
	Enabled      bool
	QuakeURL     string
	CycloneURL   string
	PollInterval time.Duration
}

type GeoConfig struct {
	Timeout      time.Duration
	HighAccuracy bool
	// DeviceLat/DeviceLng pin the device position for fixed-site deployments.
	// Both zero means no positioning capability.
	DeviceLat float64
	DeviceLng float64
}

type MapConfig struct {
	DefaultLat  float64
	DefaultLng  float64
	DefaultZoom int
	FocusZoom   int
	FlyDuration time.Duration
}

type GatewayConfig struct {
	UndoWindow time.Duration
}

type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "localhost"),
			Port: getEnvInt("SERVER_PORT", 8080),
		},
		Hazards: HazardsConfig{
			Enabled:      getEnvBool("HAZARDS_ENABLED", true),
			QuakeURL:     getEnv("QUAKE_FEED_URL", "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/all_day.geojson"),
			CycloneURL:   getEnv("CYCLONE_FEED_URL", "https://api.met.no/weatherapi/tropicalcyclone/1.0/?content_type=json"),
			PollInterval: getEnvDuration("HAZARD_POLL_INTERVAL", 10*time.Minute),
		},
		Geo: GeoConfig{
			Timeout:      getEnvDuration("GEO_TIMEOUT", 10*time.Second),
			HighAccuracy: getEnvBool("GEO_HIGH_ACCURACY", true),
			DeviceLat:    getEnvFloat("GEO_DEVICE_LAT", 0),
			DeviceLng:    getEnvFloat("GEO_DEVICE_LNG", 0),
		},
		Map: MapConfig{
			DefaultLat:  getEnvFloat("MAP_DEFAULT_LAT", 10.3157),
			DefaultLng:  getEnvFloat("MAP_DEFAULT_LNG", 123.8854),
			DefaultZoom: getEnvInt("MAP_DEFAULT_ZOOM", 11),
			FocusZoom:   getEnvInt("MAP_FOCUS_ZOOM", 15),
			FlyDuration: getEnvDuration("MAP_FLY_DURATION", 1500*time.Millisecond),
		},
		Gateway: GatewayConfig{
			UndoWindow: getEnvDuration("UNDO_WINDOW", 10*time.Second),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/reliefmap.db"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Hazards.PollInterval < time.Minute {
		return fmt.Errorf("hazard poll interval must be at least 1 minute")
	}
	if c.Geo.Timeout <= 0 {
		return fmt.Errorf("geolocation timeout must be positive")
	}
	if c.Gateway.UndoWindow <= 0 {
		return fmt.Errorf("undo window must be positive")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
