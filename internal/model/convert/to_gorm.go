// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"encoding/json"
	"fmt"

	"github.com/skyroute/flightplanner/internal/geo"
	"github.com/skyroute/flightplanner/internal/model"
	"github.com/skyroute/flightplanner/internal/route"
	"github.com/skyroute/flightplanner/pkg/core"
	"gorm.io/datatypes"
)

// toJSON marshals v for a JSON column. A nil pointer is stored as null.
func toJSON(v any) (datatypes.JSON, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}

// CoreToAirport converts a core.Airport to a GORM model.Airport.
func CoreToAirport(a core.Airport) model.Airport {
	return model.Airport{
		ID:       a.ID,
		Name:     a.Name,
		Label:    a.Label,
		Type:     a.Type,
		Position: geo.PointFrom(a.Position),
	}
}

// CoreToNavaid converts a core.Navaid to a GORM model.Navaid.
func CoreToNavaid(n core.Navaid) model.Navaid {
	return model.Navaid{
		ID:        n.ID,
		Name:      n.Name,
		Label:     n.Label,
		Type:      n.Type,
		Position:  geo.PointFrom(n.Position),
		Channel:   n.Channel,
		Frequency: n.Frequency,
	}
}

// CoreToWaypoint converts a core.Waypoint at route index seq to a GORM model.SavedWaypoint.
func CoreToWaypoint(w core.Waypoint, seq int) (model.SavedWaypoint, error) {
	var offset datatypes.JSON
	if w.Offset != nil {
		var err error
		if offset, err = toJSON(w.Offset); err != nil {
			return model.SavedWaypoint{}, fmt.Errorf("waypoint %s offset: %w", w.ID, err)
		}
	}
	return model.SavedWaypoint{
		Seq:          seq,
		WaypointID:   w.ID,
		Name:         w.Name,
		Type:         string(w.Type),
		Position:     geo.PointFrom(w.Position),
		Channel:      w.Channel,
		NameEditable: w.NameEditable,
		Offset:       offset,
	}, nil
}

// CoreToSavedPlan converts a plan and its summary to a GORM model.SavedPlan.
// The route geometry is left empty when the plan has fewer than two points.
func CoreToSavedPlan(name string, p core.FlightPlan, s core.Summary) (model.SavedPlan, error) {
	out := model.SavedPlan{
		Name:          name,
		Speed:         p.Speed,
		Altitude:      p.Altitude,
		DepartureTime: p.DepartureTime,
		TAS:           s.TAS,
		Mach:          s.Mach,
		TotalDistance: s.TotalDistance,
		ETEMinutes:    s.ETEMinutes,
		ETE:           s.ETE,
		ETA:           s.ETA,
	}

	var err error
	if p.Departure != nil {
		out.DepartureID = p.Departure.ID
	}
	if out.Departure, err = toJSON(p.Departure); err != nil {
		return model.SavedPlan{}, fmt.Errorf("departure: %w", err)
	}
	if p.Arrival != nil {
		out.ArrivalID = p.Arrival.ID
	}
	if out.Arrival, err = toJSON(p.Arrival); err != nil {
		return model.SavedPlan{}, fmt.Errorf("arrival: %w", err)
	}

	if ls, err := geo.RouteLineString(route.Points(p)); err == nil {
		out.Route = ls
	}

	out.Waypoints = make([]model.SavedWaypoint, 0, len(p.Waypoints))
	for i, w := range p.Waypoints {
		sw, err := CoreToWaypoint(w, i)
		if err != nil {
			return model.SavedPlan{}, err
		}
		out.Waypoints = append(out.Waypoints, sw)
	}
	return out, nil
}
