package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"places-server/middleware"
	"places-server/services"
	"places-server/utils/errors"
	"places-server/utils/logger"
	"places-server/utils/metrics"
)

// RouterConfig carries everything the HTTP surface is built from.
type RouterConfig struct {
	PlaceService   *services.PlaceService
	Index          services.GeoIndex
	Logger         logger.Logger
	Metrics        *metrics.Manager
	AllowedOrigins []string
	RateLimit      float64
	RateBurst      int
}

func NewRouter(cfg RouterConfig) *mux.Router {
	placeHandler := NewPlaceHandler(cfg.PlaceService, cfg.Logger)
	healthHandler := NewHealthHandler(cfg.Index, cfg.Logger)

	common := []mux.MiddlewareFunc{
		middleware.RequestID(),
		middleware.AccessLog(cfg.Logger, cfg.Metrics),
		middleware.ErrorMiddleware(cfg.Logger),
		middleware.CORSMiddleware(cfg.AllowedOrigins),
	}

	r := mux.NewRouter()
	r.Use(common...)

	// mux skips r.Use middleware when no route matches.
	r.NotFoundHandler = chain(writeErrorHandler(errors.ErrNotFound), common)
	r.MethodNotAllowedHandler = chain(writeErrorHandler(errors.ErrMethodNotAllowed), common)

	// API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.RateLimit(cfg.RateLimit, cfg.RateBurst))
	api.HandleFunc("/places", placeHandler.RegisterPlace).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/places/nearby", placeHandler.GetNearbyPlaces).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/categories", placeHandler.ListCategories).Methods(http.MethodGet, http.MethodOptions)

	// Operational routes
	r.HandleFunc("/healthz", healthHandler.Health).Methods(http.MethodGet)
	if cfg.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Metrics.Registry(), promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	return r
}

// chain wraps h so that mws[0] runs first, matching mux.Router.Use order.
func chain(h http.Handler, mws []mux.MiddlewareFunc) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func writeErrorHandler(err *errors.APIError) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(r.Context(), w, nil, err)
	})
}
