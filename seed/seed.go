// Package seed loads reference places into the geo index once.
package seed

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"places-server/models"
	"places-server/services"
	"places-server/utils/errors"
	"places-server/utils/logger"
)

// FlagKey marks a completed seed run.
const FlagKey = "seed_places_run"

// Source yields the places to seed.
type Source interface {
	Places(ctx context.Context) ([]models.Place, error)
}

// Flag records whether seeding already happened.
type Flag interface {
	IsSet(ctx context.Context) (bool, error)
	Set(ctx context.Context) error
}

// RedisFlag stores the flag as a plain key next to the geo sets.
type RedisFlag struct {
	client *redis.Client
	key    string
}

func NewRedisFlag(client *redis.Client, key string) *RedisFlag {
	return &RedisFlag{client: client, key: key}
}

func (f *RedisFlag) IsSet(ctx context.Context) (bool, error) {
	n, err := f.client.Exists(ctx, f.key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (f *RedisFlag) Set(ctx context.Context) error {
	return f.client.Set(ctx, f.key, "true", 0).Err()
}

// Result summarises one Run. Rejected places failed validation; Failed
// places were valid but the store refused them.
type Result struct {
	Skipped  bool
	Added    int
	Rejected int
	Failed   int
}

// Seeder registers places through the same service the HTTP API uses, so
// seeded data obeys the configured categories and coordinate ranges.
type Seeder struct {
	places *services.PlaceService
	flag   Flag
	log    logger.Logger
}

func NewSeeder(places *services.PlaceService, flag Flag, log logger.Logger) *Seeder {
	return &Seeder{places: places, flag: flag, log: log}
}

// Run registers every place from src unless the flag is set and force is
// false. The flag is only set when every place was registered.
func (s *Seeder) Run(ctx context.Context, src Source, force bool) (Result, error) {
	if !force {
		done, err := s.flag.IsSet(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("reading seed flag: %w", err)
		}
		if done {
			s.log.Info(ctx, "seed already ran, skipping")
			return Result{Skipped: true}, nil
		}
	}

	places, err := src.Places(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("loading places: %w", err)
	}

	var res Result
	for _, p := range places {
		s.log.Debug(ctx, "adding place", logger.String("name", p.Name), logger.String("category", p.Category))
		if err := s.places.Register(ctx, p); err != nil {
			if errors.IsValidation(err) {
				s.log.Warn(ctx, "rejected place", logger.Any("place", p), logger.Error(err))
				res.Rejected++
				continue
			}
			s.log.Error(ctx, "failed to add place",
				logger.String("name", p.Name), logger.String("category", p.Category), logger.Error(err))
			res.Failed++
			continue
		}
		res.Added++
	}

	if res.Rejected > 0 || res.Failed > 0 {
		return res, fmt.Errorf("%d of %d places rejected, %d failed", res.Rejected, len(places), res.Failed)
	}
	if err := s.flag.Set(ctx); err != nil {
		return res, fmt.Errorf("setting seed flag: %w", err)
	}
	s.log.Info(ctx, "places seeded", logger.Int("count", res.Added))
	return res, nil
}
