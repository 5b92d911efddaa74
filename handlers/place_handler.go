package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"places-server/middleware"
	"places-server/models"
	"places-server/services"
	"places-server/utils/errors"
	"places-server/utils/logger"
)

// maxBodyBytes caps registration payloads.
const maxBodyBytes = 1 << 16

type PlaceHandler struct {
	placeService *services.PlaceService
	log          logger.Logger
}

type registerPlaceRequest struct {
	Name      string            `json:"name"`
	Latitude  models.Coordinate `json:"latitude"`
	Longitude models.Coordinate `json:"longitude"`
	Group     string            `json:"group"`
}

type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

func NewPlaceHandler(placeService *services.PlaceService, log logger.Logger) *PlaceHandler {
	return &PlaceHandler{placeService: placeService, log: log}
}

// RegisterPlace handles POST /api/places.
func (h *PlaceHandler) RegisterPlace(w http.ResponseWriter, r *http.Request) {
	var input registerPlaceRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&input); err != nil {
		middleware.WriteError(r.Context(), w, h.log, errors.Validation("Invalid request body"))
		return
	}
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Group) == "" ||
		strings.TrimSpace(string(input.Latitude)) == "" || strings.TrimSpace(string(input.Longitude)) == "" {
		middleware.WriteError(r.Context(), w, h.log, errors.Validation("Missing required fields"))
		return
	}
	lat, err := input.Latitude.Float()
	if err != nil {
		middleware.WriteError(r.Context(), w, h.log, errors.Validation("Invalid latitude or longitude"))
		return
	}
	lon, err := input.Longitude.Float()
	if err != nil {
		middleware.WriteError(r.Context(), w, h.log, errors.Validation("Invalid latitude or longitude"))
		return
	}

	err = h.placeService.Register(r.Context(), models.Place{
		Name:      input.Name,
		Latitude:  lat,
		Longitude: lon,
		Category:  input.Group,
	})
	if err != nil {
		middleware.WriteError(r.Context(), w, h.log, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"message": "Place added successfully"})
}

// GetNearbyPlaces handles GET /api/places/nearby?latitude=&longitude=.
func (h *PlaceHandler) GetNearbyPlaces(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	rawLat, rawLon := query.Get("latitude"), query.Get("longitude")
	if strings.TrimSpace(rawLat) == "" || strings.TrimSpace(rawLon) == "" {
		middleware.WriteError(r.Context(), w, h.log, errors.Validation("Missing coordinates"))
		return
	}
	lat, err := models.ParseCoordinate(rawLat)
	if err != nil {
		middleware.WriteError(r.Context(), w, h.log, errors.Validation("Invalid latitude or longitude"))
		return
	}
	lon, err := models.ParseCoordinate(rawLon)
	if err != nil {
		middleware.WriteError(r.Context(), w, h.log, errors.Validation("Invalid latitude or longitude"))
		return
	}

	nearby, err := h.placeService.Nearby(r.Context(), lat, lon)
	if err != nil {
		middleware.WriteError(r.Context(), w, h.log, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, nearby)
}

// ListCategories handles GET /api/categories.
func (h *PlaceHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, CategoriesResponse{Categories: h.placeService.Categories()})
}
