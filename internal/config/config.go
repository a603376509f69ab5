package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/glslr/levels-etl/internal/domain"
)

const (
	defaultStationsCSV  = "stations.csv"
	defaultLookbackDays = 3
	defaultFetchTimeout = 2 * time.Minute
	defaultCHSBaseURL   = "https://ws-shc.qc.dfo-mpo.gc.ca/observations"
	defaultNOAABaseURL  = "https://opendap.co-ops.nos.noaa.gov/axis/webservices/waterlevelrawsixmin"
)

// Config holds all loader settings, populated from environment variables.
type Config struct {
	DatabaseURL string
	StationsCSV string

	// LookbackDays sets the default fetch window: now-LookbackDays to now.
	LookbackDays int
	Timestep     domain.Timestep

	// FetchTimeout bounds one station's complete windowed fetch.
	FetchTimeout time.Duration

	CHSBaseURL  string
	NOAABaseURL string

	// HTTPAddr serves health and metrics while a run is active.
	// Empty disables the listener.
	HTTPAddr  string
	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables (optionally .env),
// applying defaults where unset.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	lookback, err := parsePositiveInt("LOOKBACK_DAYS", defaultLookbackDays)
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", defaultFetchTimeout)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseURL:  strings.TrimSpace(os.Getenv("DATABASE_URL")),
		StationsCSV:  envOrDefault("STATIONS_CSV", defaultStationsCSV),
		LookbackDays: lookback,
		Timestep:     domain.Timestep(envOrDefault("TIMESTEP", string(domain.TimestepHourly))),
		FetchTimeout: fetchTimeout,
		CHSBaseURL:   envOrDefault("CHS_BASE_URL", defaultCHSBaseURL),
		NOAABaseURL:  envOrDefault("NOAA_BASE_URL", defaultNOAABaseURL),
		HTTPAddr:     os.Getenv("HTTP_ADDR"),
		LogLevel:     envOrDefault("LOG_LEVEL", "info"),
		LogFormat:    envOrDefault("LOG_FORMAT", "json"),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	switch cfg.Timestep {
	case domain.TimestepDefault, domain.TimestepHourly, domain.TimestepDaily, domain.Timestep15Min:
	default:
		return nil, fmt.Errorf("invalid TIMESTEP %q", cfg.Timestep)
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parsePositiveInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return n, nil
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return d, nil
}
