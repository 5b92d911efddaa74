package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix     = "PLACES_"
	configFileEnv = "PLACES_CONFIG"
	dotEnvFile    = ".env"
)

// Load builds a Config by layering defaults, .env, an optional YAML file and
// environment variables, then validates it.
func Load(_ context.Context) (*Config, error) {
	if err := godotenv.Load(dotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", dotEnvFile, err)
	}

	k := koanf.New(".")

	if path := os.Getenv(configFileEnv); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	// PLACES_LOG_LEVEL -> log_level
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, err
	}
	// REDIS_HOST -> redis.host, REDIS_KEY_PREFIX -> redis.key_prefix
	if err := k.Load(env.Provider("REDIS_", ".", func(s string) string {
		return "redis." + strings.ToLower(strings.TrimPrefix(s, "REDIS_"))
	}), nil); err != nil {
		return nil, err
	}
	// MONGODB_URI -> mongo.uri
	if err := k.Load(env.Provider("MONGODB_", ".", func(s string) string {
		return "mongo." + strings.ToLower(strings.TrimPrefix(s, "MONGODB_"))
	}), nil); err != nil {
		return nil, err
	}

	cfg := New()
	defaults := *cfg
	// Slices are decoded into fresh values; an unset list keeps its default.
	cfg.Categories, cfg.AllowedOrigins = nil, nil
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if cfg.Categories = normalizeList(cfg.Categories); len(cfg.Categories) == 0 {
		cfg.Categories = defaults.Categories
	}
	if cfg.AllowedOrigins = normalizeList(cfg.AllowedOrigins); len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = defaults.AllowedOrigins
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalizeList trims entries and drops empty ones, so "a, b," reads as [a b].
func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
