package model

import (
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Airport{},
	&Navaid{},
	&SavedPlan{},
	&SavedWaypoint{},
}

////////////////////////
// REFERENCE DATA
////////////////////////

// Airport is a departure/arrival candidate loaded from the airport dataset
type Airport struct {
	ID        string     `json:"id" gorm:"primaryKey;size:16"`
	Name      string     `json:"name" gorm:"size:127"`
	Label     string     `json:"label" gorm:"size:160"`
	Type      string     `json:"type" gorm:"size:16;index:idx_airport_type"`
	Position  geom.Point `json:"position"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (*Airport) TableName() string {
	return "airports"
}

// Navaid is a ground radio navigation aid loaded from the NAVAID dataset
type Navaid struct {
	ID        string     `json:"id" gorm:"primaryKey;size:16"`
	Name      string     `json:"name" gorm:"size:127"`
	Label     string     `json:"label" gorm:"size:160"`
	Type      string     `json:"type" gorm:"size:16"`
	Position  geom.Point `json:"position"`
	Channel   string     `json:"channel" gorm:"size:8"`   // TACAN channel, e.g. "46X"
	Frequency float64    `json:"frequency"`               // MHz, 0 when unpublished
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (*Navaid) TableName() string {
	return "navaids"
}

////////////////////////
// PLAN MODELS
////////////////////////

// SavedPlan is a flight plan stored together with its derived summary at save time
type SavedPlan struct {
	gorm.Model
	Name          string          `json:"name" gorm:"size:127"`
	DepartureID   string          `json:"departureId" gorm:"size:16;index:idx_plan_route"`
	ArrivalID     string          `json:"arrivalId" gorm:"size:16;index:idx_plan_route"`
	Departure     datatypes.JSON  `json:"departure"` // core.Airport snapshot
	Arrival       datatypes.JSON  `json:"arrival"`   // core.Airport snapshot
	Speed         float64         `json:"speed"`     // IAS, knots
	Altitude      float64         `json:"altitude"`  // feet
	DepartureTime string          `json:"departureTime" gorm:"size:5"`
	TAS           float64         `json:"tas"`
	Mach          float64         `json:"mach"`
	TotalDistance float64         `json:"totalDistance"`
	ETEMinutes    float64         `json:"eteMinutes"`
	ETE           string          `json:"ete" gorm:"size:8"`
	ETA           string          `json:"eta" gorm:"size:8"`
	Route         geom.LineString `json:"route"` // departure, waypoints, arrival
	Waypoints     []SavedWaypoint `json:"waypoints" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (*SavedPlan) TableName() string {
	return "saved_plans"
}

// SavedWaypoint is one waypoint of a SavedPlan, ordered by Seq
type SavedWaypoint struct {
	ID           uint           `json:"-" gorm:"primaryKey"`
	SavedPlanID  uint           `json:"planId" gorm:"index:idx_waypoint_plan"`
	Seq          int            `json:"seq"`
	WaypointID   string         `json:"waypointId" gorm:"size:64"`
	Name         string         `json:"name" gorm:"size:127"`
	Type         string         `json:"type" gorm:"size:16"`
	Position     geom.Point     `json:"position"`
	Channel      string         `json:"channel" gorm:"size:8"`
	NameEditable bool           `json:"nameEditable"`
	Offset       datatypes.JSON `json:"offset"` // core.OffsetMetadata, null when not an offset waypoint
}

func (*SavedWaypoint) TableName() string {
	return "saved_waypoints"
}
