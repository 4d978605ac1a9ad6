package route

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/skyroute/flightplanner/internal/geo"
	"github.com/skyroute/flightplanner/pkg/core"
)

// FormatBearing rounds a bearing and pads it to three digits, e.g. 45.4 -> "045".
func FormatBearing(bearing float64) string {
	return fmt.Sprintf("%03d", int(math.Round(bearing)))
}

// FormatDistance rounds a distance to whole nautical miles.
func FormatDistance(distance float64) string {
	return strconv.Itoa(int(math.Round(distance)))
}

// offsetLabels builds the "<BASE>_<BBB>/<D>" ID and "<NAME> (BBB/D)" name of
// an offset waypoint.
func offsetLabels(baseID, baseName string, bearing, distance float64) (id, name string) {
	b, d := FormatBearing(bearing), FormatDistance(distance)
	return fmt.Sprintf("%s_%s/%s", baseID, b, d), fmt.Sprintf("%s (%s/%s)", baseName, b, d)
}

// baseName is the first word of a waypoint or NAVAID name.
func baseName(name string) string {
	if fields := strings.Fields(name); len(fields) > 0 {
		return fields[0]
	}
	return name
}

// NavaidWaypoint places a waypoint directly over a NAVAID.
func NavaidWaypoint(n core.Navaid) core.Waypoint {
	return core.Waypoint{
		ID:       n.ID,
		Name:     baseName(n.Name),
		Type:     core.WaypointNavaid,
		Position: n.Position,
		Channel:  n.Channel,
	}
}

// OffsetWaypoint places a custom waypoint at bearing/distance from a NAVAID
// and records the base so the offset can be edited later. When the offset
// cannot be computed the plain NAVAID waypoint is returned with the error.
func OffsetWaypoint(n core.Navaid, bearing, distance float64) (core.Waypoint, error) {
	pos, err := geo.OffsetPoint(n.Position, bearing, distance)
	if err != nil {
		return NavaidWaypoint(n), err
	}
	id, name := offsetLabels(n.ID, baseName(n.Name), bearing, distance)
	return core.Waypoint{
		ID:       id,
		Name:     name,
		Type:     core.WaypointCustom,
		Position: pos,
		Offset: &core.OffsetMetadata{
			BaseNavaidID:  n.ID,
			BaseLatitude:  n.Position.Latitude,
			BaseLongitude: n.Position.Longitude,
			Bearing:       bearing,
			Distance:      distance,
		},
	}, nil
}

// CustomWaypoint creates a user-named waypoint at pos. count is the number of
// waypoints already in the plan and numbers the default name. When both
// bearing and distance are given the position is offset from pos; an
// unavailable offset keeps pos.
func CustomWaypoint(pos core.GeoPoint, count int, bearing, distance *float64) (core.Waypoint, error) {
	if err := pos.Validate(); err != nil {
		return core.Waypoint{}, err
	}
	if bearing != nil && distance != nil {
		if p, err := geo.OffsetPoint(pos, *bearing, *distance); err == nil {
			pos = p
		}
	}
	return core.Waypoint{
		ID:           "custom-" + uuid.NewString(),
		Name:         fmt.Sprintf("Custom Waypoint %d", count+1),
		Type:         core.WaypointCustom,
		Position:     pos,
		NameEditable: true,
	}, nil
}
