// Package config loads the service configuration.
//
// Sources, lowest precedence first: built-in defaults, a .env file, the YAML
// file named by PLACES_CONFIG, then PLACES_*, REDIS_* and MONGODB_* variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"slices"
	"strconv"
	"time"

	"places-server/models"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config contains process configuration.
type Config struct {
	// Addr is the HTTP listen address, e.g. ":5000".
	Addr string `koanf:"addr"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// AllowedOrigins lists CORS origins; "*" allows any.
	AllowedOrigins []string `koanf:"allowed_origins"`

	// Categories is the closed set of place groups.
	Categories []string `koanf:"categories"`

	// StrictCategories rejects registrations outside Categories.
	StrictCategories bool `koanf:"strict_categories"`

	RadiusKm     float64       `koanf:"radius_km"`
	StoreTimeout time.Duration `koanf:"store_timeout"`

	// RateLimit is requests per second on /api; 0 disables it.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`

	Redis RedisConfig `koanf:"redis"`
	Mongo MongoConfig `koanf:"mongo"`
}

type RedisConfig struct {
	Host      string `koanf:"host"`
	Port      int    `koanf:"port"`
	Password  string `koanf:"password"`
	DB        int    `koanf:"db"`
	KeyPrefix string `koanf:"key_prefix"`
}

// Addr returns host:port.
func (r RedisConfig) Addr() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

// MongoConfig points the seeder at a places collection.
type MongoConfig struct {
	URI        string `koanf:"uri"`
	Database   string `koanf:"database"`
	Collection string `koanf:"collection"`
}

// New returns the defaults.
func New() *Config {
	return &Config{
		Addr:             ":5000",
		LogLevel:         "info",
		AllowedOrigins:   []string{"*"},
		Categories:       slices.Clone(models.DefaultCategories),
		StrictCategories: true,
		RadiusKm:         5,
		StoreTimeout:     3 * time.Second,
		RateLimit:        0,
		RateBurst:        20,
		Redis: RedisConfig{
			Host: "redis",
			Port: 6379,
		},
		Mongo: MongoConfig{
			Database:   "places_db",
			Collection: "places",
		},
	}
}

// Validate checks the values the service cannot run without.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case len(c.Categories) == 0:
		return fmt.Errorf("%w: at least one category is required", ErrInvalidConfig)
	case c.RadiusKm <= 0:
		return fmt.Errorf("%w: radius_km must be positive", ErrInvalidConfig)
	case c.Redis.Host == "":
		return fmt.Errorf("%w: redis host must not be empty", ErrInvalidConfig)
	case c.Redis.Port <= 0 || c.Redis.Port > 65535:
		return fmt.Errorf("%w: redis port %d out of range", ErrInvalidConfig, c.Redis.Port)
	}
	for _, category := range c.Categories {
		if category == "" {
			return fmt.Errorf("%w: empty category name", ErrInvalidConfig)
		}
	}
	return nil
}
