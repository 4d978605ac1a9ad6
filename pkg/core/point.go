// pkg/core/point.go
package core

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidGeoPoint is returned when a latitude or longitude is outside its range.
var ErrInvalidGeoPoint = errors.New("invalid geo point")

// GeoPoint is a position in decimal degrees on the WGS84 sphere.
type GeoPoint struct {
	Latitude  float64 `json:"latitude" msgpack:"latitude"`
	Longitude float64 `json:"longitude" msgpack:"longitude"`
}

// Validate rejects points outside [-90,90] x [-180,180]. Values are never clamped.
func (p GeoPoint) Validate() error {
	if math.IsNaN(p.Latitude) || math.IsInf(p.Latitude, 0) || p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v", ErrInvalidGeoPoint, p.Latitude)
	}
	if math.IsNaN(p.Longitude) || math.IsInf(p.Longitude, 0) || p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v", ErrInvalidGeoPoint, p.Longitude)
	}
	return nil
}

// LonLat returns the point in GeoJSON axis order.
func (p GeoPoint) LonLat() [2]float64 {
	return [2]float64{p.Longitude, p.Latitude}
}
