package services

import (
	"context"
	"math"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"places-server/models"
	"places-server/utils/errors"
	"places-server/utils/logger"
	"places-server/utils/metrics"
)

const (
	DefaultRadiusKm     = 5.0
	DefaultStoreTimeout = 3 * time.Second
)

// PlaceService validates registrations and proximity queries and forwards
// them to the geo index.
type PlaceService struct {
	index            GeoIndex
	categories       []string
	strictCategories bool
	radiusKm         float64
	storeTimeout     time.Duration
	log              logger.Logger
	metrics          *metrics.Manager
}

type PlaceServiceOption func(*PlaceService)

// WithCategories sets the closed category set reported by Nearby.
func WithCategories(categories []string) PlaceServiceOption {
	return func(s *PlaceService) { s.categories = slices.Clone(categories) }
}

// WithStrictCategories rejects registrations whose category is not configured.
func WithStrictCategories(strict bool) PlaceServiceOption {
	return func(s *PlaceService) { s.strictCategories = strict }
}

func WithRadiusKm(radius float64) PlaceServiceOption {
	return func(s *PlaceService) { s.radiusKm = radius }
}

// WithStoreTimeout bounds every store call. Zero disables the bound.
func WithStoreTimeout(d time.Duration) PlaceServiceOption {
	return func(s *PlaceService) { s.storeTimeout = d }
}

func WithLogger(l logger.Logger) PlaceServiceOption {
	return func(s *PlaceService) { s.log = l }
}

func WithMetrics(m *metrics.Manager) PlaceServiceOption {
	return func(s *PlaceService) { s.metrics = m }
}

func NewPlaceService(index GeoIndex, opts ...PlaceServiceOption) *PlaceService {
	s := &PlaceService{
		index:            index,
		categories:       slices.Clone(models.DefaultCategories),
		strictCategories: true,
		radiusKm:         DefaultRadiusKm,
		storeTimeout:     DefaultStoreTimeout,
		log:              logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Categories returns the configured category set in order.
func (s *PlaceService) Categories() []string {
	return slices.Clone(s.categories)
}

func (s *PlaceService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.storeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.storeTimeout)
}

// Register validates p and upserts it into its category's index. The name is
// stored exactly as given.
func (s *PlaceService) Register(ctx context.Context, p models.Place) error {
	if err := s.validatePlace(p); err != nil {
		return err
	}

	storeCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.index.Add(storeCtx, p); err != nil {
		if isInvalidPair(err) {
			return errors.Validation("Coordinates out of range for the geo index")
		}
		s.log.Error(ctx, "failed to add place",
			logger.String("name", p.Name), logger.String("category", p.Category), logger.Error(err))
		return errors.Store(err, "Failed to add place")
	}

	s.metrics.IncPlacesRegistered(p.Category)
	s.log.Info(ctx, "place registered",
		logger.String("name", p.Name),
		logger.String("category", p.Category),
		logger.Float64("lat", p.Latitude),
		logger.Float64("lon", p.Longitude))
	return nil
}

func (s *PlaceService) validatePlace(p models.Place) error {
	if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.Category) == "" {
		return errors.Validation("Missing required fields")
	}
	if err := validateCoordinates(p.Latitude, p.Longitude); err != nil {
		return err
	}
	if s.strictCategories && !slices.Contains(s.categories, p.Category) {
		return errors.Validation("Unknown group: " + p.Category)
	}
	return nil
}

func validateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return errors.Validation("Invalid latitude or longitude")
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return errors.Validation("Invalid latitude or longitude")
	}
	return nil
}

// Nearby searches every configured category within the service radius of
// (lat, lon). Every category is present in the result; one failing category
// fails the whole query.
func (s *PlaceService) Nearby(ctx context.Context, lat, lon float64) (models.NearbyResult, error) {
	if err := validateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	pingCtx, cancel := s.withTimeout(ctx)
	err := s.index.Ping(pingCtx)
	cancel()
	if err != nil {
		s.log.Error(ctx, "geo store unreachable", logger.Error(err))
		return nil, errors.Store(err, "Failed to search places")
	}

	storeCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(storeCtx)

	// One slot per category; goroutines never share a slot.
	slots := make([][]models.NearbyPlace, len(s.categories))
	for i, category := range s.categories {
		g.Go(func() error {
			places, err := s.index.Search(gctx, category, lat, lon, s.radiusKm)
			if err != nil {
				if !isInvalidPair(err) {
					s.log.Error(ctx, "failed to search category",
						logger.String("category", category), logger.Error(err))
				}
				return err
			}
			slots[i] = places
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if isInvalidPair(err) {
			return nil, errors.Validation("Coordinates out of range for the geo index")
		}
		return nil, errors.Store(err, "Failed to search places")
	}

	result := make(models.NearbyResult, len(s.categories))
	total := 0
	for i, category := range s.categories {
		places := slots[i]
		if places == nil {
			places = []models.NearbyPlace{}
		}
		sortByDistance(places)
		result[category] = places
		total += len(places)
	}

	s.log.Debug(ctx, "nearby query served",
		logger.Float64("lat", lat), logger.Float64("lon", lon), logger.Int("matches", total))
	return result, nil
}

// sortByDistance orders matches closest first; unknown distances go last.
func sortByDistance(places []models.NearbyPlace) {
	slices.SortStableFunc(places, func(a, b models.NearbyPlace) int {
		switch {
		case a.Distance == nil && b.Distance == nil:
			return 0
		case a.Distance == nil:
			return 1
		case b.Distance == nil:
			return -1
		case *a.Distance < *b.Distance:
			return -1
		case *a.Distance > *b.Distance:
			return 1
		}
		return 0
	})
}
