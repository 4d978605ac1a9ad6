package route

import (
	"errors"
	"fmt"
	"strings"

	"github.com/skyroute/flightplanner/internal/geo"
	"github.com/skyroute/flightplanner/pkg/core"
)

var (
	// ErrWaypointIndex is returned for an index outside the waypoint list.
	ErrWaypointIndex = errors.New("waypoint index out of range")
	// ErrNoOffset is returned when editing the offset of a waypoint that was
	// not placed relative to a NAVAID.
	ErrNoOffset = errors.New("waypoint has no offset metadata")
	// ErrEmptyName is returned when renaming a waypoint to a blank name.
	ErrEmptyName = errors.New("waypoint name is empty")
)

// The edit functions never modify their input: each returns a new slice.

func checkIndex(wps []core.Waypoint, i int) error {
	if i < 0 || i >= len(wps) {
		return fmt.Errorf("%w: %d (have %d)", ErrWaypointIndex, i, len(wps))
	}
	return nil
}

func copyWaypoints(wps []core.Waypoint) []core.Waypoint {
	return core.FlightPlan{Waypoints: wps}.Clone().Waypoints
}

// Add appends wp to the end of the route.
func Add(wps []core.Waypoint, wp core.Waypoint) []core.Waypoint {
	return append(copyWaypoints(wps), wp)
}

// MoveUp swaps waypoint i with the one before it. Moving the first waypoint
// up is a no-op.
func MoveUp(wps []core.Waypoint, i int) ([]core.Waypoint, error) {
	if err := checkIndex(wps, i); err != nil {
		return nil, err
	}
	out := copyWaypoints(wps)
	if i > 0 {
		out[i-1], out[i] = out[i], out[i-1]
	}
	return out, nil
}

// MoveDown swaps waypoint i with the one after it. Moving the last waypoint
// down is a no-op.
func MoveDown(wps []core.Waypoint, i int) ([]core.Waypoint, error) {
	if err := checkIndex(wps, i); err != nil {
		return nil, err
	}
	out := copyWaypoints(wps)
	if i < len(out)-1 {
		out[i], out[i+1] = out[i+1], out[i]
	}
	return out, nil
}

// Remove deletes waypoint i.
func Remove(wps []core.Waypoint, i int) ([]core.Waypoint, error) {
	if err := checkIndex(wps, i); err != nil {
		return nil, err
	}
	out := copyWaypoints(wps)
	return append(out[:i], out[i+1:]...), nil
}

// Rename sets the display name of waypoint i.
func Rename(wps []core.Waypoint, i int, name string) ([]core.Waypoint, error) {
	if err := checkIndex(wps, i); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	out := copyWaypoints(wps)
	out[i].Name = name
	return out, nil
}

// EditOffset recomputes waypoint i from its stored base NAVAID position with
// a new bearing and distance, and relabels it. On error the input is
// returned unchanged.
func EditOffset(wps []core.Waypoint, i int, bearing, distance float64) ([]core.Waypoint, error) {
	if err := checkIndex(wps, i); err != nil {
		return wps, err
	}
	meta := wps[i].Offset
	if meta == nil {
		return wps, fmt.Errorf("%w: %s", ErrNoOffset, wps[i].ID)
	}
	pos, err := geo.OffsetPoint(meta.Base(), bearing, distance)
	if err != nil {
		return wps, err
	}

	out := copyWaypoints(wps)
	wp := &out[i]
	wp.Position = pos
	wp.Offset.Bearing = bearing
	wp.Offset.Distance = distance
	wp.ID, wp.Name = offsetLabels(meta.BaseNavaidID, baseName(wp.Name), bearing, distance)
	return out, nil
}

// EditPosition moves waypoint i to a DMS position. Both the compact and the
// punctuated forms are accepted. On error the input is returned unchanged.
func EditPosition(wps []core.Waypoint, i int, latText, lonText string) ([]core.Waypoint, error) {
	if err := checkIndex(wps, i); err != nil {
		return wps, err
	}
	pos, err := ParseDMSPosition(latText, lonText)
	if err != nil {
		return wps, err
	}
	out := copyWaypoints(wps)
	out[i].Position = pos
	return out, nil
}

// ParseDMSPosition decodes a latitude/longitude pair in either DMS form.
func ParseDMSPosition(latText, lonText string) (core.GeoPoint, error) {
	lat, err := parseDMSField(latText, true)
	if err != nil {
		return core.GeoPoint{}, err
	}
	lon, err := parseDMSField(lonText, false)
	if err != nil {
		return core.GeoPoint{}, err
	}
	return core.GeoPoint{Latitude: lat, Longitude: lon}, nil
}

func parseDMSField(text string, isLatitude bool) (float64, error) {
	if v, ok := geo.ParsePunctuatedDMS(text, isLatitude); ok {
		return v, nil
	}
	d, err := geo.ParseCompactDMS(text, isLatitude)
	if err != nil {
		return 0, err
	}
	return d.Decimal(), nil
}
