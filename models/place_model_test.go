package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCoordinate(t *testing.T) {
	cases := []struct {
		in      string
		want    float64
		wantErr error
	}{
		{"-32.4862", -32.4862, nil},
		{" 58.2 ", 58.2, nil},
		{"0", 0, nil},
		{"", 0, ErrMissingCoordinate},
		{"   ", 0, ErrMissingCoordinate},
		{"abc", 0, ErrInvalidCoordinate},
		{"NaN", 0, ErrInvalidCoordinate},
		{"Inf", 0, ErrInvalidCoordinate},
		{"-32.4862abc", 0, ErrInvalidCoordinate},
	}
	for _, tc := range cases {
		got, err := ParseCoordinate(tc.in)
		if tc.wantErr != nil {
			assert.ErrorIs(t, err, tc.wantErr, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestCoordinateUnmarshalJSON(t *testing.T) {
	var body struct {
		Lat Coordinate `json:"latitude"`
		Lon Coordinate `json:"longitude"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"latitude": -32.4862, "longitude": "-58.2297"}`), &body))
	lat, err := body.Lat.Float()
	require.NoError(t, err)
	assert.Equal(t, -32.4862, lat)
	lon, err := body.Lon.Float()
	require.NoError(t, err)
	assert.Equal(t, -58.2297, lon)

	body.Lat, body.Lon = "", ""
	require.NoError(t, json.Unmarshal([]byte(`{"latitude": null}`), &body))
	_, err = body.Lat.Float()
	assert.ErrorIs(t, err, ErrMissingCoordinate)
	_, err = body.Lon.Float()
	assert.ErrorIs(t, err, ErrMissingCoordinate)

	require.NoError(t, json.Unmarshal([]byte(`{"latitude": "abc"}`), &body))
	_, err = body.Lat.Float()
	assert.ErrorIs(t, err, ErrInvalidCoordinate)

	assert.Error(t, json.Unmarshal([]byte(`{"latitude": true}`), &body))
	assert.Error(t, json.Unmarshal([]byte(`{"latitude": {"v": 1}}`), &body))
}

func TestNearbyPlaceJSON(t *testing.T) {
	p := NearbyPlace{
		Name:      "Farmacia Escolar",
		Latitude:  FiniteOrNil(-32.4846),
		Longitude: FiniteOrNil(math.NaN()),
		Distance:  FiniteOrNil(0),
	}
	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Farmacia Escolar","latitude":-32.4846,"longitude":null,"distance":0}`, string(out))
}

func TestPlaceWireFormat(t *testing.T) {
	var p Place
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Bar Brezza","latitude":-32.484,"longitude":-58.2307,"group":"cervecerias"}`), &p))
	assert.Equal(t, Place{Name: "Bar Brezza", Latitude: -32.484, Longitude: -58.2307, Category: "cervecerias"}, p)
}
