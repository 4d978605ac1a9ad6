package geo

import (
	"fmt"

	"github.com/skyroute/flightplanner/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// RouteLineString builds a lon/lat LineString through the given points.
func RouteLineString(points []core.GeoPoint) (geom.LineString, error) {
	if len(points) < 2 {
		return geom.LineString{}, fmt.Errorf("route must have at least 2 points, got %d", len(points))
	}

	flatCoords := make([]float64, 0, len(points)*2)
	for _, p := range points {
		flatCoords = append(flatCoords, p.Longitude, p.Latitude)
	}

	seq := geom.NewSequence(flatCoords, geom.DimXY)
	return geom.NewLineString(seq), nil
}

// MercatorPolyline projects the route points into EPSG:3857 for map overlays.
// Output format: [[x1,y1],[x2,y2],...]
func MercatorPolyline(points []core.GeoPoint) [][2]float64 {
	out := make([][2]float64, 0, len(points))
	for _, p := range points {
		pt := Coords3857From4326(p.Longitude, p.Latitude)
		coord, ok := pt.Coordinates()
		if !ok {
			continue
		}
		out = append(out, [2]float64{coord.XY.X, coord.XY.Y})
	}
	return out
}
