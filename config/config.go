package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Sweeper     SweeperConfig     `yaml:"sweeper"`
	Reservation ReservationConfig `yaml:"reservation"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	UserIDHeader    string  `yaml:"user_id_header"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// SweeperConfig holds the background decay task configuration.
type SweeperConfig struct {
	Enabled         bool          `yaml:"enabled"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"` // Ignored by YAML parser
}

// ReservationConfig holds the reservation rules and the fleet size.
type ReservationConfig struct {
	DurationMinutes   int           `yaml:"duration_minutes"`
	AlmostDoneMinutes int           `yaml:"almost_done_minutes"`
	Washers           int           `yaml:"washers"`
	Dryers            int           `yaml:"dryers"`
	Duration          time.Duration `yaml:"-"`
	AlmostDoneWindow  time.Duration `yaml:"-"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.UserIDHeader == "" {
		cfg.Server.UserIDHeader = "X-User-ID"
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}

	if cfg.Sweeper.IntervalSeconds <= 0 {
		cfg.Sweeper.IntervalSeconds = 60
	}
	cfg.Sweeper.Interval = time.Duration(cfg.Sweeper.IntervalSeconds) * time.Second

	if cfg.Reservation.DurationMinutes <= 0 {
		cfg.Reservation.DurationMinutes = 60
	}
	if cfg.Reservation.AlmostDoneMinutes <= 0 {
		cfg.Reservation.AlmostDoneMinutes = 10
	}
	if cfg.Reservation.Washers <= 0 {
		cfg.Reservation.Washers = 4
	}
	if cfg.Reservation.Dryers <= 0 {
		cfg.Reservation.Dryers = 3
	}
	cfg.Reservation.Duration = time.Duration(cfg.Reservation.DurationMinutes) * time.Minute
	cfg.Reservation.AlmostDoneWindow = time.Duration(cfg.Reservation.AlmostDoneMinutes) * time.Minute

	return &cfg, nil
}
