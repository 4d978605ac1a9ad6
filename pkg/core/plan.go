// pkg/core/plan.go
package core

// WaypointType classifies where a waypoint came from.
type WaypointType string

const (
	WaypointAirport WaypointType = "airport"
	WaypointNavaid  WaypointType = "navaid"
	WaypointCustom  WaypointType = "custom"
)

// OffsetMetadata records the NAVAID a waypoint was offset from, so the
// offset can be edited later against the original base position.
type OffsetMetadata struct {
	BaseNavaidID  string  `json:"baseNavaid" msgpack:"baseNavaid"`
	BaseLatitude  float64 `json:"baseLatitude" msgpack:"baseLatitude"`
	BaseLongitude float64 `json:"baseLongitude" msgpack:"baseLongitude"`
	Bearing       float64 `json:"bearing" msgpack:"bearing"`
	Distance      float64 `json:"distance" msgpack:"distance"`
}

// Base returns the base NAVAID position.
func (m OffsetMetadata) Base() GeoPoint {
	return GeoPoint{Latitude: m.BaseLatitude, Longitude: m.BaseLongitude}
}

// Waypoint is one entry of the route between departure and arrival.
type Waypoint struct {
	ID           string          `json:"id" msgpack:"id"`
	Name         string          `json:"name" msgpack:"name"`
	Type         WaypointType    `json:"type" msgpack:"type"`
	Position     GeoPoint        `json:"position" msgpack:"position"`
	Channel      string          `json:"channel,omitempty" msgpack:"channel,omitempty"`
	NameEditable bool            `json:"nameEditable,omitempty" msgpack:"nameEditable,omitempty"`
	Offset       *OffsetMetadata `json:"metadata,omitempty" msgpack:"metadata,omitempty"`
}

// FlightPlan holds the user inputs of a plan. Everything derived from it
// lives in Summary and is recomputed, never edited.
type FlightPlan struct {
	Departure     *Airport   `json:"departure" msgpack:"departure"`
	Arrival       *Airport   `json:"arrival" msgpack:"arrival"`
	Waypoints     []Waypoint `json:"waypoints" msgpack:"waypoints"`
	Speed         float64    `json:"speed" msgpack:"speed"`
	Altitude      float64    `json:"altitude" msgpack:"altitude"`
	DepartureTime string     `json:"departureTime" msgpack:"departureTime"`
}

// Clone returns a deep copy so edits never alias a published plan.
func (p FlightPlan) Clone() FlightPlan {
	out := p
	if p.Departure != nil {
		dep := *p.Departure
		out.Departure = &dep
	}
	if p.Arrival != nil {
		arr := *p.Arrival
		out.Arrival = &arr
	}
	out.Waypoints = make([]Waypoint, len(p.Waypoints))
	for i, wp := range p.Waypoints {
		if wp.Offset != nil {
			meta := *wp.Offset
			wp.Offset = &meta
		}
		out.Waypoints[i] = wp
	}
	return out
}

// Leg is the great-circle segment between two consecutive route points.
type Leg struct {
	From       string  `json:"from" msgpack:"from"`
	To         string  `json:"to" msgpack:"to"`
	DistanceNm float64 `json:"distanceNm" msgpack:"distanceNm"`
	Course     float64 `json:"course" msgpack:"course"`
}

// Summary is the derived projection of a FlightPlan.
type Summary struct {
	TAS           float64 `json:"tas" msgpack:"tas"`
	Mach          float64 `json:"mach" msgpack:"mach"`
	TotalDistance float64 `json:"totalDistance" msgpack:"totalDistance"`
	ETEMinutes    float64 `json:"eteMinutes" msgpack:"eteMinutes"`
	ETE           string  `json:"ete" msgpack:"ete"`
	ETA           string  `json:"eta" msgpack:"eta"`
	Legs          []Leg   `json:"legs" msgpack:"legs"`
	// Complete is false until both departure and arrival are set.
	Complete bool `json:"complete" msgpack:"complete"`
}

// Clone returns a copy that does not share the leg slice.
func (s Summary) Clone() Summary {
	legs := make([]Leg, len(s.Legs))
	copy(legs, s.Legs)
	s.Legs = legs
	return s
}
