package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds everything the service reads from the environment.
type AppConfig struct {
	OpenWeatherAPIKey string
	GeocoderAPIKey    string

	// LandfireYear selects which LANDFIRE release to sample.
	LandfireYear int

	// EnabledSources lists the adapters to register.
	EnabledSources []string

	// Per-source fetch budgets and the overall request deadline.
	SourceTimeouts map[string]time.Duration
	MasterTimeout  time.Duration

	// HTTPTimeout applies to the shared outbound HTTP client.
	HTTPTimeout time.Duration

	// Attribute table store.
	AttrTableBaseURL string
	// AttrTableRefresh re-attempts failed table loads on this cadence.
	// Zero disables refresh.
	AttrTableRefresh time.Duration

	// MODISSearchDays bounds how far back to look for composites.
	MODISSearchDays int

	// In-memory store retention.
	StoreMaxHistory int           // max responses per coordinate (0 = unlimited)
	StoreMaxAge     time.Duration // max age of responses (0 = unlimited)

	Port        string
	MetricsAddr string

	LogLevel  string
	LogFormat string
}

// DefaultSources is the full adapter set, used when ENABLED_SOURCES is unset.
var DefaultSources = []string{"landfire", "modis", "usgs_elevation", "openweather"}

// defaultSourceTimeout applies to sources without an explicit budget.
const defaultSourceTimeout = 15 * time.Second

// Load reads configuration from environment with sensible defaults. A .env
// file is honored when present.
func Load() (*AppConfig, error) {
	// Missing .env is fine; real environments set variables directly.
	_ = godotenv.Load()

	cfg := &AppConfig{
		OpenWeatherAPIKey: os.Getenv("OPENWEATHER_API_KEY"),
		GeocoderAPIKey:    os.Getenv("GEOCODER_API_KEY"),
		AttrTableBaseURL:  getenvDefault("ATTR_TABLE_BASE_URL", "https://landfire.gov/attribute-tables"),
		Port:              getenvDefault("PORT", "8080"),
		MetricsAddr:       getenvDefault("METRICS_ADDR", ":9090"),
		LogLevel:          getenvDefault("LOG_LEVEL", "info"),
		LogFormat:         getenvDefault("LOG_FORMAT", "json"),
	}

	cfg.LandfireYear = getenvInt("LANDFIRE_YEAR", 2024)
	cfg.MODISSearchDays = getenvInt("MODIS_SEARCH_DAYS", 90)
	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 96)

	var err error
	if cfg.MasterTimeout, err = getenvDuration("MASTER_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 20*time.Second); err != nil {
		return nil, err
	}
	if cfg.AttrTableRefresh, err = getenvDuration("ATTR_TABLE_REFRESH", 0); err != nil {
		return nil, err
	}
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", 24*time.Hour); err != nil {
		return nil, err
	}

	cfg.EnabledSources = splitList(getenvDefault("ENABLED_SOURCES", strings.Join(DefaultSources, ",")))
	if len(cfg.EnabledSources) == 0 {
		return nil, fmt.Errorf("ENABLED_SOURCES must name at least one source")
	}

	cfg.SourceTimeouts = make(map[string]time.Duration, len(cfg.EnabledSources))
	for _, name := range cfg.EnabledSources {
		key := "TIMEOUT_" + strings.ToUpper(name)
		d, err := getenvDuration(key, defaultSourceTimeout)
		if err != nil {
			return nil, err
		}
		cfg.SourceTimeouts[name] = d
	}

	return cfg, nil
}

// SourceTimeout returns the fetch budget for a source.
func (c *AppConfig) SourceTimeout(name string) time.Duration {
	if d, ok := c.SourceTimeouts[name]; ok {
		return d
	}
	return defaultSourceTimeout
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
