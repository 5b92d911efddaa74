package services

import (
	"context"
	stderrors "errors"
	"math"
	"net/http"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"places-server/models"
	"places-server/utils/errors"
)

type fakeIndex struct {
	mu        sync.Mutex
	added     []models.Place
	searched  []string
	results   map[string][]models.NearbyPlace
	searchErr map[string]error
	addErr    error
	pingErr   error
}

func (f *fakeIndex) Add(_ context.Context, p models.Place) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, p)
	return nil
}

func (f *fakeIndex) Search(_ context.Context, category string, _, _, _ float64) ([]models.NearbyPlace, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searched = append(f.searched, category)
	if err := f.searchErr[category]; err != nil {
		return nil, err
	}
	return f.results[category], nil
}

func (f *fakeIndex) Ping(_ context.Context) error {
	return f.pingErr
}

func ptr(v float64) *float64 { return &v }

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var apiErr *errors.APIError
	require.True(t, stderrors.As(err, &apiErr), "expected APIError, got %v", err)
	return apiErr.Status
}

func TestRegisterValidation(t *testing.T) {
	cases := []struct {
		name  string
		place models.Place
	}{
		{"missing name", models.Place{Latitude: 1, Longitude: 1, Category: "farmacias"}},
		{"blank name", models.Place{Name: "   ", Latitude: 1, Longitude: 1, Category: "farmacias"}},
		{"missing category", models.Place{Name: "a", Latitude: 1, Longitude: 1}},
		{"NaN latitude", models.Place{Name: "a", Latitude: math.NaN(), Longitude: 1, Category: "farmacias"}},
		{"infinite longitude", models.Place{Name: "a", Latitude: 1, Longitude: math.Inf(1), Category: "farmacias"}},
		{"latitude out of range", models.Place{Name: "a", Latitude: 91, Longitude: 1, Category: "farmacias"}},
		{"longitude out of range", models.Place{Name: "a", Latitude: 1, Longitude: -181, Category: "farmacias"}},
		{"unknown category", models.Place{Name: "a", Latitude: 1, Longitude: 1, Category: "museos"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			index := &fakeIndex{}
			svc := NewPlaceService(index)

			err := svc.Register(context.Background(), tc.place)
			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
			assert.Empty(t, index.added, "store must not be touched")
		})
	}
}

func TestRegisterKeepsNameAsGiven(t *testing.T) {
	index := &fakeIndex{}
	svc := NewPlaceService(index)

	err := svc.Register(context.Background(), models.Place{Name: " Test Cafe ", Latitude: -32.4862, Longitude: -58.2297, Category: "cervecerias"})
	require.NoError(t, err)
	require.Len(t, index.added, 1)
	assert.Equal(t, models.Place{Name: " Test Cafe ", Latitude: -32.4862, Longitude: -58.2297, Category: "cervecerias"}, index.added[0])

	err = svc.Register(context.Background(), models.Place{Name: "Test Cafe", Latitude: 1, Longitude: 1, Category: "cervecerias "})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	assert.Len(t, index.added, 1)
}

func TestRegisterLenientCategories(t *testing.T) {
	index := &fakeIndex{}
	svc := NewPlaceService(index, WithStrictCategories(false))

	require.NoError(t, svc.Register(context.Background(), models.Place{Name: "Museo", Latitude: 1, Longitude: 1, Category: "museos"}))
	require.Len(t, index.added, 1)
	assert.Equal(t, "museos", index.added[0].Category)
}

func TestRegisterStoreFailure(t *testing.T) {
	index := &fakeIndex{addErr: stderrors.New("connection refused")}
	svc := NewPlaceService(index)

	err := svc.Register(context.Background(), models.Place{Name: "a", Latitude: 1, Longitude: 1, Category: "farmacias"})
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, statusOf(t, err))
	assert.Contains(t, err.Error(), "Failed to add place: connection refused")
	assert.ErrorIs(t, err, index.addErr)
}

func TestRegisterRejectedPair(t *testing.T) {
	index := &fakeIndex{addErr: stderrors.New("ERR invalid longitude,latitude pair 10.000000,89.000000")}
	svc := NewPlaceService(index)

	err := svc.Register(context.Background(), models.Place{Name: "a", Latitude: 89, Longitude: 10, Category: "farmacias"})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
}

func TestNearbyRejectedPair(t *testing.T) {
	pairErr := stderrors.New("ERR invalid longitude,latitude pair 10.000000,89.000000")
	index := &fakeIndex{searchErr: map[string]error{}}
	for _, c := range models.DefaultCategories {
		index.searchErr[c] = pairErr
	}
	svc := NewPlaceService(index)

	result, err := svc.Nearby(context.Background(), 89, 10)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	assert.True(t, errors.IsValidation(err))
}

func TestNearbyAllCategoriesPresent(t *testing.T) {
	index := &fakeIndex{}
	svc := NewPlaceService(index)

	result, err := svc.Nearby(context.Background(), -32.48, -58.23)
	require.NoError(t, err)

	want := models.NearbyResult{}
	for _, c := range models.DefaultCategories {
		want[c] = []models.NearbyPlace{}
	}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Errorf("Nearby() mismatch (-want +got):\n%s", diff)
	}
	assert.ElementsMatch(t, models.DefaultCategories, index.searched)
}

func TestNearbySortsByDistance(t *testing.T) {
	index := &fakeIndex{results: map[string][]models.NearbyPlace{
		"farmacias": {
			{Name: "far", Distance: ptr(3.2)},
			{Name: "unknown"},
			{Name: "near", Distance: ptr(0.4)},
		},
	}}
	svc := NewPlaceService(index)

	result, err := svc.Nearby(context.Background(), -32.48, -58.23)
	require.NoError(t, err)

	names := []string{}
	for _, p := range result["farmacias"] {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"near", "far", "unknown"}, names)
}

func TestNearbyInvalidCoordinates(t *testing.T) {
	index := &fakeIndex{}
	svc := NewPlaceService(index)

	_, err := svc.Nearby(context.Background(), math.NaN(), 1)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	assert.Empty(t, index.searched)
}

func TestNearbyStoreUnreachable(t *testing.T) {
	index := &fakeIndex{pingErr: stderrors.New("dial tcp: connection refused")}
	svc := NewPlaceService(index)

	_, err := svc.Nearby(context.Background(), 1, 1)
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, statusOf(t, err))
	assert.Contains(t, err.Error(), "Failed to search places")
	assert.Empty(t, index.searched, "no category may be searched when the store is down")
}

func TestNearbyCategoryFailureAbortsQuery(t *testing.T) {
	index := &fakeIndex{searchErr: map[string]error{"emergencias": stderrors.New("WRONGTYPE")}}
	svc := NewPlaceService(index)

	result, err := svc.Nearby(context.Background(), 1, 1)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, http.StatusInternalServerError, statusOf(t, err))
}

func TestNearbyConfiguredCategories(t *testing.T) {
	index := &fakeIndex{}
	svc := NewPlaceService(index, WithCategories([]string{"museos", "parques"}))

	result, err := svc.Nearby(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Len(t, result, 2)
	assert.Contains(t, result, "museos")
	assert.Contains(t, result, "parques")
	assert.Equal(t, []string{"museos", "parques"}, svc.Categories())
}

func TestRegisterThenNearbyOnRedis(t *testing.T) {
	index, _ := newTestIndex(t)
	svc := NewPlaceService(index)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, models.Place{Name: "Test Cafe", Latitude: -32.4862, Longitude: -58.2297, Category: "cervecerias"}))
	require.NoError(t, svc.Register(ctx, models.Place{Name: "Test Cafe", Latitude: -32.4863, Longitude: -58.2298, Category: "cervecerias"}))

	result, err := svc.Nearby(ctx, -32.4862, -58.2297)
	require.NoError(t, err)
	require.Len(t, result, len(models.DefaultCategories))
	require.Len(t, result["cervecerias"], 1, "re-registering must overwrite, not duplicate")

	cafe := result["cervecerias"][0]
	assert.Equal(t, "Test Cafe", cafe.Name)
	require.NotNil(t, cafe.Distance)
	assert.InDelta(t, 0.0, *cafe.Distance, 0.05)
	require.NotNil(t, cafe.Latitude)
	assert.InDelta(t, -32.4863, *cafe.Latitude, 0.0001)

	for _, c := range []string{"universidades", "farmacias", "emergencias", "supermercados"} {
		assert.NotNil(t, result[c])
		assert.Empty(t, result[c])
	}
}
