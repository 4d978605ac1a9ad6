package route

import (
	"encoding/json"
	"testing"

	"github.com/skyroute/flightplanner/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type featureCollection struct {
	Type     string `json:"type"`
	Features []struct {
		ID       string `json:"id"`
		Geometry struct {
			Type        string          `json:"type"`
			Coordinates json.RawMessage `json:"coordinates"`
		} `json:"geometry"`
		Properties map[string]any `json:"properties"`
	} `json:"features"`
}

func TestGeoJSON(t *testing.T) {
	plan := scenarioPlan()
	plan.Waypoints = []core.Waypoint{{ID: "MID", Name: "MID", Type: core.WaypointCustom,
		Position: core.GeoPoint{Latitude: 35, Longitude: 137.5}}}

	data, err := GeoJSON(plan)
	require.NoError(t, err)

	var fc featureCollection
	require.NoError(t, json.Unmarshal(data, &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 4)

	assert.Equal(t, "RJTT", fc.Features[0].ID)
	assert.Equal(t, "Point", fc.Features[0].Geometry.Type)
	assert.Equal(t, "departure", fc.Features[0].Properties["role"])
	assert.Equal(t, "custom", fc.Features[1].Properties["role"])
	assert.Equal(t, "arrival", fc.Features[2].Properties["role"])

	routeFeature := fc.Features[3]
	assert.Equal(t, "LineString", routeFeature.Geometry.Type)
	var coords [][]float64
	require.NoError(t, json.Unmarshal(routeFeature.Geometry.Coordinates, &coords))
	require.Len(t, coords, 3)
	assert.Equal(t, []float64{139.7798, 35.5494}, coords[0])
}

func TestGeoJSON_SinglePointHasNoRoute(t *testing.T) {
	plan := core.FlightPlan{Departure: haneda()}
	data, err := GeoJSON(plan)
	require.NoError(t, err)

	var fc featureCollection
	require.NoError(t, json.Unmarshal(data, &fc))
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "Point", fc.Features[0].Geometry.Type)
}
