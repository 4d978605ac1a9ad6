// pkg/core/reference.go
package core

// Airport types as published in the reference dataset.
const (
	AirportCivilian = "civilian"
	AirportMilitary = "military"
	AirportJoint    = "joint"
)

// NAVAID types as published in the reference dataset.
const (
	NavaidVOR    = "VOR"
	NavaidTACAN  = "TACAN"
	NavaidVORTAC = "VORTAC"
)

// Airport is a departure/arrival candidate from the reference dataset.
type Airport struct {
	ID       string   `json:"id" msgpack:"id"`
	Name     string   `json:"name" msgpack:"name"`
	Label    string   `json:"label" msgpack:"label"`
	Type     string   `json:"type" msgpack:"type"`
	Position GeoPoint `json:"position" msgpack:"position"`
}

// Navaid is a ground radio navigation aid with a fixed position.
type Navaid struct {
	ID        string   `json:"id" msgpack:"id"`
	Name      string   `json:"name" msgpack:"name"`
	Label     string   `json:"label" msgpack:"label"`
	Type      string   `json:"type" msgpack:"type"`
	Position  GeoPoint `json:"position" msgpack:"position"`
	Channel   string   `json:"channel,omitempty" msgpack:"channel,omitempty"`
	Frequency float64  `json:"frequency,omitempty" msgpack:"frequency,omitempty"`
}
