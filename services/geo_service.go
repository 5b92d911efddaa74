package services

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"places-server/models"
	"places-server/utils/metrics"
)

// GeoIndex is the geospatial store the places service writes to and searches.
type GeoIndex interface {
	// Add upserts p into the index of p.Category, keyed by p.Name.
	Add(ctx context.Context, p models.Place) error
	// Search returns members of category within radiusKm of (lat, lon),
	// closest first.
	Search(ctx context.Context, category string, lat, lon, radiusKm float64) ([]models.NearbyPlace, error)
	Ping(ctx context.Context) error
}

// RedisGeoIndex keeps one Redis GEO set per category.
type RedisGeoIndex struct {
	client    *redis.Client
	keyPrefix string
	metrics   *metrics.Manager
}

type RedisGeoIndexOption func(*RedisGeoIndex)

// WithKeyPrefix namespaces category keys, e.g. "places:" -> "places:farmacias".
func WithKeyPrefix(prefix string) RedisGeoIndexOption {
	return func(g *RedisGeoIndex) { g.keyPrefix = prefix }
}

// WithStoreMetrics records command latency and failures.
func WithStoreMetrics(m *metrics.Manager) RedisGeoIndexOption {
	return func(g *RedisGeoIndex) { g.metrics = m }
}

func NewRedisGeoIndex(client *redis.Client, opts ...RedisGeoIndexOption) *RedisGeoIndex {
	g := &RedisGeoIndex{client: client}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *RedisGeoIndex) key(category string) string {
	return g.keyPrefix + category
}

func (g *RedisGeoIndex) Add(ctx context.Context, p models.Place) error {
	start := time.Now()
	err := g.client.GeoAdd(ctx, g.key(p.Category), &redis.GeoLocation{
		Name:      p.Name,
		Longitude: p.Longitude,
		Latitude:  p.Latitude,
	}).Err()
	g.metrics.ObserveStore("geoadd", time.Since(start), err)
	return err
}

func (g *RedisGeoIndex) Search(ctx context.Context, category string, lat, lon, radiusKm float64) ([]models.NearbyPlace, error) {
	start := time.Now()
	locations, err := g.client.GeoRadius(ctx, g.key(category), lon, lat, &redis.GeoRadiusQuery{
		Radius:    radiusKm,
		Unit:      "km",
		WithCoord: true,
		WithDist:  true,
		Sort:      "ASC",
	}).Result()
	g.metrics.ObserveStore("georadius", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	places := make([]models.NearbyPlace, 0, len(locations))
	for _, loc := range locations {
		places = append(places, models.NearbyPlace{
			Name:      loc.Name,
			Latitude:  models.FiniteOrNil(loc.Latitude),
			Longitude: models.FiniteOrNil(loc.Longitude),
			Distance:  models.FiniteOrNil(loc.Dist),
		})
	}
	return places, nil
}

func (g *RedisGeoIndex) Ping(ctx context.Context) error {
	start := time.Now()
	err := g.client.Ping(ctx).Err()
	g.metrics.ObserveStore("ping", time.Since(start), err)
	return err
}

// isInvalidPair reports whether Redis refused a coordinate pair, which
// happens for latitudes beyond +-85.05112878.
func isInvalidPair(err error) bool {
	return err != nil && strings.Contains(err.Error(), "invalid longitude,latitude pair")
}
