package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/skyroute/flightplanner/pkg/core"
)

// EarthRadiusNm is the mean Earth radius in nautical miles. Every distance
// and offset in the planner uses this one value.
const EarthRadiusNm = 3440.069

// ErrOffsetUnavailable is returned when an offset point cannot be computed.
// Callers must leave the waypoint they were editing untouched.
var ErrOffsetUnavailable = errors.New("offset point unavailable")

func radians(deg float64) float64 { return deg * math.Pi / 180 }
func degrees(rad float64) float64 { return rad * 180 / math.Pi }

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// DistanceNm returns the great-circle (haversine) distance between a and b.
func DistanceNm(a, b core.GeoPoint) float64 {
	lat1, lat2 := radians(a.Latitude), radians(b.Latitude)
	dLat := radians(b.Latitude - a.Latitude)
	dLon := radians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusNm * c
}

// InitialBearing returns the true course in [0,360) to fly from a to b.
func InitialBearing(a, b core.GeoPoint) float64 {
	lat1, lat2 := radians(a.Latitude), radians(b.Latitude)
	dLon := radians(b.Longitude - a.Longitude)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	return math.Mod(degrees(math.Atan2(y, x))+360, 360)
}

// OffsetPoint returns the point reached by travelling distanceNm along the
// initial bearing bearingDeg from origin. The bearing is used as given;
// sin/cos make out-of-range values well defined.
func OffsetPoint(origin core.GeoPoint, bearingDeg, distanceNm float64) (core.GeoPoint, error) {
	if !finite(bearingDeg, distanceNm) || distanceNm < 0 {
		return core.GeoPoint{}, fmt.Errorf("%w: bearing %v distance %v", ErrOffsetUnavailable, bearingDeg, distanceNm)
	}
	if err := origin.Validate(); err != nil {
		return core.GeoPoint{}, fmt.Errorf("%w: %w", ErrOffsetUnavailable, err)
	}

	theta := radians(bearingDeg)
	lat1 := radians(origin.Latitude)
	lon1 := radians(origin.Longitude)
	ang := distanceNm / EarthRadiusNm

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(ang) + math.Cos(lat1)*math.Sin(ang)*math.Cos(theta))
	lon2 := lon1 + math.Atan2(
		math.Sin(theta)*math.Sin(ang)*math.Cos(lat1),
		math.Cos(ang)-math.Sin(lat1)*math.Sin(lat2),
	)

	p := core.GeoPoint{Latitude: degrees(lat2), Longitude: normalizeLongitude(degrees(lon2))}
	if !finite(p.Latitude, p.Longitude) {
		return core.GeoPoint{}, ErrOffsetUnavailable
	}
	return p, nil
}

// normalizeLongitude folds a longitude into [-180,180].
func normalizeLongitude(lon float64) float64 {
	if lon >= -180 && lon <= 180 {
		return lon
	}
	return math.Mod(math.Mod(lon+180, 360)+360, 360) - 180
}
