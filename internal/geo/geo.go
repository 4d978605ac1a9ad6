package geo

import (
	"errors"
	"strconv"
	"strings"

	"github.com/skyroute/flightplanner/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// Positions are kept in EPSG:4326 (lon/lat) for storage and GeoJSON. Map
// overlays that work in web mercator get EPSG:3857 through Coords3857From4326.

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// ParseDecimalCoordinate parses decimal entry in the format "lat,lon" into a
// validated GeoPoint.
func ParseDecimalCoordinate(coords string) (core.GeoPoint, error) {
	coordsSplit := strings.Split(coords, ",")
	if len(coordsSplit) != 2 {
		return core.GeoPoint{}, ErrInvalidCoordinates
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(coordsSplit[0]), 64)
	if err != nil {
		return core.GeoPoint{}, ErrInvalidCoordinates
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(coordsSplit[1]), 64)
	if err != nil {
		return core.GeoPoint{}, ErrInvalidCoordinates
	}
	p := core.GeoPoint{Latitude: lat, Longitude: lon}
	if err := p.Validate(); err != nil {
		return core.GeoPoint{}, errors.Join(ErrInvalidCoordinates, err)
	}
	return p, nil
}

// PointFrom converts a GeoPoint into a 2D simplefeatures point (X=lon, Y=lat).
func PointFrom(p core.GeoPoint) geom.Point {
	return geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: p.Longitude, Y: p.Latitude},
		Type: geom.DimXY,
	})
}

// GeoPointFrom converts a simplefeatures point back into a GeoPoint.
// It reports false for empty points.
func GeoPointFrom(pt geom.Point) (core.GeoPoint, bool) {
	coord, ok := pt.Coordinates()
	if !ok {
		return core.GeoPoint{}, false
	}
	return core.GeoPoint{Latitude: coord.XY.Y, Longitude: coord.XY.X}, true
}

// Coords3857From4326 projects a longitude and latitude into web mercator
func Coords3857From4326(
	longitude float64,
	latitude float64,
) geom.Point {
	epsg := wgs84.EPSG()
	f := epsg.Transform(4326, 3857)
	x, y, _ := f(longitude, latitude, 0)
	return geom.NewPoint(
		geom.Coordinates{
			XY:   geom.XY{X: x, Y: y},
			Type: geom.DimXY,
		},
	)
}
