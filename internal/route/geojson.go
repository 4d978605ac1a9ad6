package route

import (
	"encoding/json"
	"fmt"

	"github.com/skyroute/flightplanner/internal/geo"
	"github.com/skyroute/flightplanner/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// GeoJSON renders the plan as a FeatureCollection: one Point per route
// point followed by the route LineString when there are at least two points.
func GeoJSON(plan core.FlightPlan) ([]byte, error) {
	fc := geom.GeoJSONFeatureCollection{}

	addPoint := func(id, name, role string, p core.GeoPoint) {
		fc = append(fc, geom.GeoJSONFeature{
			Geometry: geo.PointFrom(p).AsGeometry(),
			ID:       id,
			Properties: map[string]interface{}{
				"name": name,
				"role": role,
				"dms":  geo.FormatCompactDMS(p.Latitude, p.Longitude),
			},
		})
	}

	if plan.Departure != nil {
		addPoint(plan.Departure.ID, plan.Departure.Label, "departure", plan.Departure.Position)
	}
	for _, wp := range plan.Waypoints {
		addPoint(wp.ID, wp.Name, string(wp.Type), wp.Position)
	}
	if plan.Arrival != nil {
		addPoint(plan.Arrival.ID, plan.Arrival.Label, "arrival", plan.Arrival.Position)
	}

	if pts := Points(plan); len(pts) >= 2 {
		ls, err := geo.RouteLineString(pts)
		if err != nil {
			return nil, err
		}
		s := Compose(plan)
		fc = append(fc, geom.GeoJSONFeature{
			Geometry: ls.AsGeometry(),
			ID:       "route",
			Properties: map[string]interface{}{
				"role":          "route",
				"totalDistance": s.TotalDistance,
				"ete":           s.ETE,
				"eta":           s.ETA,
			},
		})
	}

	out, err := json.Marshal(fc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal route geojson: %w", err)
	}
	return out, nil
}
