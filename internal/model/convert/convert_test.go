package convert

import (
	"testing"

	"github.com/skyroute/flightplanner/internal/model"
	"github.com/skyroute/flightplanner/internal/route"
	"github.com/skyroute/flightplanner/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

var (
	haneda = core.Airport{ID: "RJTT", Name: "Tokyo Haneda", Label: "Tokyo Haneda (RJTT)", Type: "civilian",
		Position: core.GeoPoint{Latitude: 35.5494, Longitude: 139.7798}}
	itami = core.Airport{ID: "RJOO", Name: "Osaka Itami", Label: "Osaka Itami (RJOO)", Type: "civilian",
		Position: core.GeoPoint{Latitude: 34.7855, Longitude: 135.4382}}
)

func testPlan() core.FlightPlan {
	return core.FlightPlan{
		Departure: &haneda,
		Arrival:   &itami,
		Waypoints: []core.Waypoint{
			{ID: "HLC", Name: "HAMAMATSU TACAN", Type: core.WaypointNavaid, Channel: "46X",
				Position: core.GeoPoint{Latitude: 34.7503, Longitude: 137.7031}},
			{ID: "HLC_090/20", Name: "HAMAMATSU (090/20)", Type: core.WaypointCustom,
				Position: core.GeoPoint{Latitude: 34.75, Longitude: 138.1},
				Offset: &core.OffsetMetadata{BaseNavaidID: "HLC", BaseLatitude: 34.7503,
					BaseLongitude: 137.7031, Bearing: 90, Distance: 20}},
		},
		Speed:         250,
		Altitude:      30000,
		DepartureTime: "09:00",
	}
}

func TestAirportRoundTrip(t *testing.T) {
	m := CoreToAirport(haneda)
	assert.Equal(t, "RJTT", m.ID)

	coord, ok := m.Position.Coordinates()
	require.True(t, ok)
	assert.Equal(t, 139.7798, coord.XY.X)
	assert.Equal(t, 35.5494, coord.XY.Y)

	assert.Equal(t, haneda, AirportToCore(m))
}

func TestNavaidRoundTrip(t *testing.T) {
	n := core.Navaid{ID: "HME", Name: "HANEDA VOR", Label: "HANEDA VOR (HME)", Type: "VOR",
		Position: core.GeoPoint{Latitude: 35.5386, Longitude: 139.7519}, Frequency: 112.2}
	assert.Equal(t, n, NavaidToCore(CoreToNavaid(n)))
}

func TestAirportToCore_EmptyPoint(t *testing.T) {
	a := AirportToCore(model.Airport{ID: "X", Position: geom.Point{}})
	assert.Equal(t, core.GeoPoint{}, a.Position)
}

func TestCoreToWaypoint_NoOffset(t *testing.T) {
	w, err := CoreToWaypoint(testPlan().Waypoints[0], 0)
	require.NoError(t, err)
	assert.Nil(t, w.Offset)
	assert.Equal(t, "navaid", w.Type)
	assert.Equal(t, "46X", w.Channel)
}

func TestWaypointToCore_BadOffset(t *testing.T) {
	_, err := WaypointToCore(model.SavedWaypoint{WaypointID: "X", Offset: datatypes.JSON(`{`)})
	assert.Error(t, err)
}

func TestSavedPlanRoundTrip(t *testing.T) {
	plan := testPlan()
	summary := route.Compose(plan)

	saved, err := CoreToSavedPlan("HND-ITM", plan, summary)
	require.NoError(t, err)
	assert.Equal(t, "RJTT", saved.DepartureID)
	assert.Equal(t, "RJOO", saved.ArrivalID)
	assert.Equal(t, summary.ETE, saved.ETE)
	assert.Equal(t, summary.TotalDistance, saved.TotalDistance)
	require.Len(t, saved.Waypoints, 2)
	assert.Equal(t, 1, saved.Waypoints[1].Seq)
	assert.Equal(t, 4, saved.Route.Coordinates().Length())

	restored, err := SavedPlanToCore(saved)
	require.NoError(t, err)
	assert.Equal(t, plan, restored)
}

func TestSavedPlanToCore_OrdersBySeq(t *testing.T) {
	saved, err := CoreToSavedPlan("", testPlan(), core.Summary{})
	require.NoError(t, err)
	saved.Waypoints[0], saved.Waypoints[1] = saved.Waypoints[1], saved.Waypoints[0]

	restored, err := SavedPlanToCore(saved)
	require.NoError(t, err)
	assert.Equal(t, "HLC", restored.Waypoints[0].ID)
	assert.Equal(t, "HLC_090/20", restored.Waypoints[1].ID)
}

func TestSavedPlan_Incomplete(t *testing.T) {
	plan := core.FlightPlan{Speed: 250, Altitude: 30000, Waypoints: []core.Waypoint{}}

	saved, err := CoreToSavedPlan("", plan, route.Compose(plan))
	require.NoError(t, err)
	assert.Empty(t, saved.DepartureID)
	assert.Equal(t, "null", string(saved.Departure))
	assert.True(t, saved.Route.IsEmpty())

	restored, err := SavedPlanToCore(saved)
	require.NoError(t, err)
	assert.Nil(t, restored.Departure)
	assert.Nil(t, restored.Arrival)
	assert.Empty(t, restored.Waypoints)
}
