// internal/storage/storage.go
package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/skyroute/flightplanner/pkg/core"
)

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// PublishPlan receives every committed plan change.
	PublishPlan(s *Snapshot) error
	// SavePlan persists a snapshot on request.
	SavePlan(s *Snapshot) error
}

// Exporter is an optional interface for storage backends that write plan files.
type Exporter interface {
	GetExportedFilePath() string
}

// Snapshot is a plan together with its derived summary at one revision.
type Snapshot struct {
	Name     string
	Revision uint64
	Time     time.Time
	Plan     core.FlightPlan
	Summary  core.Summary
}

// NewSnapshot copies plan and summary so the snapshot never aliases live state.
func NewSnapshot(name string, revision uint64, at time.Time, plan core.FlightPlan, summary core.Summary) *Snapshot {
	return &Snapshot{
		Name:     name,
		Revision: revision,
		Time:     at,
		Plan:     plan.Clone(),
		Summary:  summary.Clone(),
	}
}

// RouteName returns "<DEP>_<ARR>", using "ZZZZ" for a missing airport.
func (s *Snapshot) RouteName() string {
	dep, arr := "ZZZZ", "ZZZZ"
	if s.Plan.Departure != nil && s.Plan.Departure.ID != "" {
		dep = sanitize(s.Plan.Departure.ID)
	}
	if s.Plan.Arrival != nil && s.Plan.Arrival.ID != "" {
		arr = sanitize(s.Plan.Arrival.ID)
	}
	return fmt.Sprintf("%s_%s", dep, arr)
}

// DisplayName is Name, or the route name when Name is empty.
func (s *Snapshot) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.RouteName()
}

func sanitize(id string) string {
	r := strings.NewReplacer(" ", "_", ":", "_", "/", "_", "\\", "_")
	return strings.ToUpper(r.Replace(id))
}
