package convert

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/skyroute/flightplanner/internal/geo"
	"github.com/skyroute/flightplanner/internal/model"
	"github.com/skyroute/flightplanner/pkg/core"
	"gorm.io/datatypes"
)

// fromJSON decodes a nullable JSON column into a new T; nil when the column is empty or null.
func fromJSON[T any](data datatypes.JSON) (*T, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// AirportToCore converts a GORM Airport to a core.Airport.
func AirportToCore(a model.Airport) core.Airport {
	pos, _ := geo.GeoPointFrom(a.Position)
	return core.Airport{
		ID:       a.ID,
		Name:     a.Name,
		Label:    a.Label,
		Type:     a.Type,
		Position: pos,
	}
}

// NavaidToCore converts a GORM Navaid to a core.Navaid.
func NavaidToCore(n model.Navaid) core.Navaid {
	pos, _ := geo.GeoPointFrom(n.Position)
	return core.Navaid{
		ID:        n.ID,
		Name:      n.Name,
		Label:     n.Label,
		Type:      n.Type,
		Position:  pos,
		Channel:   n.Channel,
		Frequency: n.Frequency,
	}
}

// WaypointToCore converts a GORM SavedWaypoint to a core.Waypoint.
func WaypointToCore(w model.SavedWaypoint) (core.Waypoint, error) {
	offset, err := fromJSON[core.OffsetMetadata](w.Offset)
	if err != nil {
		return core.Waypoint{}, fmt.Errorf("waypoint %s offset: %w", w.WaypointID, err)
	}
	pos, _ := geo.GeoPointFrom(w.Position)
	return core.Waypoint{
		ID:           w.WaypointID,
		Name:         w.Name,
		Type:         core.WaypointType(w.Type),
		Position:     pos,
		Channel:      w.Channel,
		NameEditable: w.NameEditable,
		Offset:       offset,
	}, nil
}

// SavedPlanToCore restores the plan inputs of a GORM SavedPlan. Waypoints
// are ordered by Seq. The summary is not restored; it is recomputed from the plan.
func SavedPlanToCore(p model.SavedPlan) (core.FlightPlan, error) {
	dep, err := fromJSON[core.Airport](p.Departure)
	if err != nil {
		return core.FlightPlan{}, fmt.Errorf("departure: %w", err)
	}
	arr, err := fromJSON[core.Airport](p.Arrival)
	if err != nil {
		return core.FlightPlan{}, fmt.Errorf("arrival: %w", err)
	}

	saved := make([]model.SavedWaypoint, len(p.Waypoints))
	copy(saved, p.Waypoints)
	sort.SliceStable(saved, func(i, j int) bool { return saved[i].Seq < saved[j].Seq })

	waypoints := make([]core.Waypoint, 0, len(saved))
	for _, sw := range saved {
		w, err := WaypointToCore(sw)
		if err != nil {
			return core.FlightPlan{}, err
		}
		waypoints = append(waypoints, w)
	}

	return core.FlightPlan{
		Departure:     dep,
		Arrival:       arr,
		Waypoints:     waypoints,
		Speed:         p.Speed,
		Altitude:      p.Altitude,
		DepartureTime: p.DepartureTime,
	}, nil
}
