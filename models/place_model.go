package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Reference categories, in the order clients list them.
const (
	CategoryBreweries    = "cervecerias"
	CategoryUniversities = "universidades"
	CategoryPharmacies   = "farmacias"
	CategoryEmergencies  = "emergencias"
	CategorySupermarkets = "supermercados"
)

// DefaultCategories is the category set used when none is configured.
var DefaultCategories = []string{
	CategoryBreweries,
	CategoryUniversities,
	CategoryPharmacies,
	CategoryEmergencies,
	CategorySupermarkets,
}

var (
	ErrMissingCoordinate = errors.New("missing coordinate")
	ErrInvalidCoordinate = errors.New("invalid coordinate")
)

// Place is a named point registered under a category. (Category, Name) is
// its identity inside the geo index.
type Place struct {
	Name      string  `json:"name" bson:"name"`
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
	Category  string  `json:"group" bson:"group"`
}

// NearbyPlace is one match of a proximity query. Nil pointers are values the
// store returned as non-finite.
type NearbyPlace struct {
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Distance  *float64 `json:"distance"` // km
}

// NearbyResult maps every configured category to its matches.
type NearbyResult map[string][]NearbyPlace

// Coordinate is a latitude or longitude as sent by clients: a JSON number,
// a numeric string, or null.
type Coordinate string

func (c *Coordinate) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Coordinate(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("coordinate must be a number or a numeric string: %w", err)
	}
	*c = Coordinate(n.String())
	return nil
}

// Float parses the coordinate into a finite float.
func (c Coordinate) Float() (float64, error) {
	return ParseCoordinate(string(c))
}

// ParseCoordinate parses s as a finite float. Empty input yields
// ErrMissingCoordinate, anything else unparsable ErrInvalidCoordinate.
func ParseCoordinate(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrMissingCoordinate
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidCoordinate
	}
	return v, nil
}

// FiniteOrNil returns a pointer to v, or nil when v is NaN or infinite.
func FiniteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
