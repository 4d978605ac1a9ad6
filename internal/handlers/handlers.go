package handlers

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/skyroute/flightplanner/internal/atmosphere"
	"github.com/skyroute/flightplanner/internal/dispatcher"
	"github.com/skyroute/flightplanner/internal/flighttime"
	"github.com/skyroute/flightplanner/internal/geo"
	"github.com/skyroute/flightplanner/internal/logging"
	"github.com/skyroute/flightplanner/internal/refdata"
	"github.com/skyroute/flightplanner/internal/route"
	"github.com/skyroute/flightplanner/internal/session"
	"github.com/skyroute/flightplanner/internal/storage"
	"github.com/skyroute/flightplanner/internal/util"
	"github.com/skyroute/flightplanner/pkg/core"
)

// Planner commands. Waypoint indices are zero based.
const (
	CmdDeparture        = ":PLAN:DEPARTURE:"        // [airport id]
	CmdArrival          = ":PLAN:ARRIVAL:"          // [airport id]
	CmdSpeed            = ":PLAN:SPEED:"            // [IAS kt]
	CmdAltitude         = ":PLAN:ALTITUDE:"         // [ft]
	CmdDepartureTime    = ":PLAN:DEPTIME:"          // [HH:MM]
	CmdWaypointNavaid   = ":PLAN:WAYPOINT:NAVAID:"  // [navaid id, bearing?, distance?]
	CmdWaypointDMS      = ":PLAN:WAYPOINT:DMS:"     // [lat, lon, bearing?, distance?]
	CmdWaypointDecimal  = ":PLAN:WAYPOINT:DECIMAL:" // ["lat,lon", bearing?, distance?]
	CmdWaypointUp       = ":PLAN:WAYPOINT:UP:"      // [index]
	CmdWaypointDown     = ":PLAN:WAYPOINT:DOWN:"    // [index]
	CmdWaypointRemove   = ":PLAN:WAYPOINT:REMOVE:"  // [index]
	CmdWaypointRename   = ":PLAN:WAYPOINT:RENAME:"  // [index, name]
	CmdWaypointOffset   = ":PLAN:WAYPOINT:OFFSET:"  // [index, bearing, distance]
	CmdWaypointPosition = ":PLAN:WAYPOINT:POSITION:" // [index, lat, lon]
	CmdReset            = ":PLAN:RESET:"
	CmdSummary          = ":PLAN:SUMMARY:"
	CmdSave             = ":PLAN:SAVE:" // [name?]
	// CmdPublish pushes the current plan to the sinks. It is queued by the
	// session listener after every change.
	CmdPublish = ":PLAN:PUBLISH:"
)

var (
	ErrUnknownAirport = errors.New("unknown airport")
	ErrUnknownNavaid  = errors.New("unknown navaid")
	ErrNoBackend      = errors.New("no storage backend configured")
)

// PlanRecorder receives every published plan, e.g. the InfluxDB manager.
type PlanRecorder interface {
	RecordPlan(plan core.FlightPlan, summary core.Summary, at time.Time) error
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Session    *session.Context
	Catalog    *refdata.Catalog
	LogManager *logging.SlogManager
	// Now defaults to time.Now.
	Now func() time.Time
}

// State is the result of the summary command.
type State struct {
	Revision uint64          `json:"revision"`
	Plan     core.FlightPlan `json:"plan"`
	Summary  core.Summary    `json:"summary"`
}

// SaveResult is the result of the save command.
type SaveResult struct {
	Name     string `json:"name"`
	Revision uint64 `json:"revision"`
	Path     string `json:"path,omitempty"`
}

// Service applies planner commands to the session
type Service struct {
	deps         Dependencies
	writeLogFunc func(component, data, level string)

	mu       sync.RWMutex
	backend  storage.Backend
	recorder PlanRecorder
}

// NewService creates a new handler service
func NewService(deps Dependencies) *Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Catalog == nil {
		deps.Catalog = refdata.NewCatalog()
	}
	s := &Service{deps: deps}
	s.writeLogFunc = func(component, data, level string) {
		if deps.LogManager != nil {
			deps.LogManager.WriteLog(component, data, level)
		}
	}
	return s
}

// Session returns the plan session
func (s *Service) Session() *session.Context {
	return s.deps.Session
}

// Catalog returns the reference data catalog
func (s *Service) Catalog() *refdata.Catalog {
	return s.deps.Catalog
}

// SetBackend sets the storage backend for publish and save
func (s *Service) SetBackend(b storage.Backend) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backend = b
}

// SetRecorder sets the plan metrics recorder
func (s *Service) SetRecorder(r PlanRecorder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorder = r
}

func (s *Service) sinks() (storage.Backend, PlanRecorder) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.backend, s.recorder
}

func (s *Service) writeLog(component, data, level string) {
	s.writeLogFunc(component, data, level)
}

// RegisterHandlers binds every planner command to d and queues a publish
// after each committed change.
func (s *Service) RegisterHandlers(d *dispatcher.Dispatcher) {
	edits := map[string]func([]string) (core.Summary, error){
		CmdDeparture:        s.SetDeparture,
		CmdArrival:          s.SetArrival,
		CmdSpeed:            s.SetSpeed,
		CmdAltitude:         s.SetAltitude,
		CmdDepartureTime:    s.SetDepartureTime,
		CmdWaypointNavaid:   s.AddNavaidWaypoint,
		CmdWaypointDMS:      s.AddDMSWaypoint,
		CmdWaypointDecimal:  s.AddDecimalWaypoint,
		CmdWaypointUp:       s.MoveWaypointUp,
		CmdWaypointDown:     s.MoveWaypointDown,
		CmdWaypointRemove:   s.RemoveWaypoint,
		CmdWaypointRename:   s.RenameWaypoint,
		CmdWaypointOffset:   s.EditWaypointOffset,
		CmdWaypointPosition: s.EditWaypointPosition,
		CmdReset: func([]string) (core.Summary, error) {
			return s.deps.Session.Reset(), nil
		},
	}
	for cmd, fn := range edits {
		d.Register(cmd, s.logged(cmd, fn), dispatcher.Logged())
	}

	d.Register(CmdSummary, func(dispatcher.Event) (any, error) {
		return s.State(), nil
	})
	d.Register(CmdSave, func(e dispatcher.Event) (any, error) {
		return s.Save(util.CleanArgs(e.Args))
	}, dispatcher.Logged())
	d.Register(CmdPublish, func(dispatcher.Event) (any, error) {
		return nil, s.Publish()
	}, dispatcher.Buffered(64))

	s.deps.Session.OnChange(func(core.FlightPlan, core.Summary) {
		if _, err := d.Dispatch(dispatcher.Event{Command: CmdPublish, Source: "session"}); err != nil {
			s.writeLog(CmdPublish, fmt.Sprintf("publish not queued: %v", err), "DEBUG")
		}
	})
}

func (s *Service) logged(cmd string, fn func([]string) (core.Summary, error)) dispatcher.HandlerFunc {
	return func(e dispatcher.Event) (any, error) {
		summary, err := fn(util.CleanArgs(e.Args))
		if err != nil {
			s.writeLog(cmd, fmt.Sprintf("rejected %q: %v", strings.Join(e.Args, ","), err), "WARN")
			return nil, err
		}
		return summary, nil
	}
}

// State returns the current plan and summary
func (s *Service) State() State {
	plan, summary, rev := s.deps.Session.Snapshot()
	return State{Revision: rev, Plan: plan, Summary: summary}
}

func (s *Service) lookupAirport(args []string) (*core.Airport, error) {
	id, err := util.StringArg(args, 0, "airport id")
	if err != nil {
		return nil, err
	}
	a, ok := s.deps.Catalog.Airport(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAirport, id)
	}
	return &a, nil
}

// SetDeparture sets the departure airport: [id]
func (s *Service) SetDeparture(args []string) (core.Summary, error) {
	a, err := s.lookupAirport(args)
	if err != nil {
		return core.Summary{}, err
	}
	return s.deps.Session.Update(func(p *core.FlightPlan) error {
		p.Departure = a
		return nil
	})
}

// SetArrival sets the arrival airport: [id]
func (s *Service) SetArrival(args []string) (core.Summary, error) {
	a, err := s.lookupAirport(args)
	if err != nil {
		return core.Summary{}, err
	}
	return s.deps.Session.Update(func(p *core.FlightPlan) error {
		p.Arrival = a
		return nil
	})
}

// SetSpeed sets the indicated airspeed in knots: [ias]
func (s *Service) SetSpeed(args []string) (core.Summary, error) {
	ias, err := util.FloatArg(args, 0, "speed")
	if err != nil {
		return core.Summary{}, err
	}
	if ias < 0 {
		return core.Summary{}, fmt.Errorf("%w: speed %v is negative", util.ErrInvalidArg, ias)
	}
	return s.deps.Session.Update(func(p *core.FlightPlan) error {
		p.Speed = ias
		return nil
	})
}

// SetAltitude sets the cruise altitude in feet: [ft]
func (s *Service) SetAltitude(args []string) (core.Summary, error) {
	alt, err := util.FloatArg(args, 0, "altitude")
	if err != nil {
		return core.Summary{}, err
	}
	if !atmosphere.InModel(alt) {
		return core.Summary{}, fmt.Errorf("%w: altitude %v ft is outside the standard atmosphere", util.ErrInvalidArg, alt)
	}
	return s.deps.Session.Update(func(p *core.FlightPlan) error {
		p.Altitude = alt
		return nil
	})
}

// SetDepartureTime sets the local departure time: [HH:MM]
func (s *Service) SetDepartureTime(args []string) (core.Summary, error) {
	hhmm, err := util.StringArg(args, 0, "departure time")
	if err != nil {
		return core.Summary{}, err
	}
	if _, err := flighttime.ParseClock(hhmm); err != nil {
		return core.Summary{}, err
	}
	return s.deps.Session.Update(func(p *core.FlightPlan) error {
		p.DepartureTime = hhmm
		return nil
	})
}

// offsetArgs reads an optional bearing/distance pair starting at i. The
// offset applies only when both are given.
func offsetArgs(args []string, i int) (bearing, distance *float64, err error) {
	if bearing, err = util.OptionalFloatArg(args, i, "bearing"); err != nil {
		return nil, nil, err
	}
	if distance, err = util.OptionalFloatArg(args, i+1, "distance"); err != nil {
		return nil, nil, err
	}
	if bearing == nil || distance == nil {
		return nil, nil, nil
	}
	return bearing, distance, nil
}

// AddNavaidWaypoint appends a NAVAID waypoint: [id, bearing?, distance?].
// With an offset the waypoint is placed at bearing/distance from the NAVAID;
// if that offset cannot be computed the NAVAID itself is added.
func (s *Service) AddNavaidWaypoint(args []string) (core.Summary, error) {
	id, err := util.StringArg(args, 0, "navaid id")
	if err != nil {
		return core.Summary{}, err
	}
	n, ok := s.deps.Catalog.Navaid(id)
	if !ok {
		return core.Summary{}, fmt.Errorf("%w: %s", ErrUnknownNavaid, id)
	}
	bearing, distance, err := offsetArgs(args, 1)
	if err != nil {
		return core.Summary{}, err
	}

	wp := route.NavaidWaypoint(n)
	if bearing != nil {
		if wp, err = route.OffsetWaypoint(n, *bearing, *distance); err != nil {
			s.writeLog(CmdWaypointNavaid, fmt.Sprintf("offset from %s unavailable, adding navaid: %v", n.ID, err), "WARN")
		}
	}
	return s.deps.Session.Update(func(p *core.FlightPlan) error {
		p.Waypoints = route.Add(p.Waypoints, wp)
		return nil
	})
}

func (s *Service) addCustom(pos core.GeoPoint, args []string, offsetAt int) (core.Summary, error) {
	bearing, distance, err := offsetArgs(args, offsetAt)
	if err != nil {
		return core.Summary{}, err
	}
	return s.deps.Session.Update(func(p *core.FlightPlan) error {
		wp, err := route.CustomWaypoint(pos, len(p.Waypoints), bearing, distance)
		if err != nil {
			return err
		}
		p.Waypoints = route.Add(p.Waypoints, wp)
		return nil
	})
}

// AddDMSWaypoint appends a custom waypoint: [lat, lon, bearing?, distance?]
// in either DMS form.
func (s *Service) AddDMSWaypoint(args []string) (core.Summary, error) {
	lat, err := util.StringArg(args, 0, "latitude")
	if err != nil {
		return core.Summary{}, err
	}
	lon, err := util.StringArg(args, 1, "longitude")
	if err != nil {
		return core.Summary{}, err
	}
	pos, err := route.ParseDMSPosition(lat, lon)
	if err != nil {
		return core.Summary{}, err
	}
	return s.addCustom(pos, args, 2)
}

// AddDecimalWaypoint appends a custom waypoint: ["lat,lon", bearing?, distance?]
func (s *Service) AddDecimalWaypoint(args []string) (core.Summary, error) {
	text, err := util.StringArg(args, 0, "coordinates")
	if err != nil {
		return core.Summary{}, err
	}
	pos, err := geo.ParseDecimalCoordinate(text)
	if err != nil {
		return core.Summary{}, err
	}
	return s.addCustom(pos, args, 1)
}

func (s *Service) editAt(args []string, edit func(wps []core.Waypoint, i int) ([]core.Waypoint, error)) (core.Summary, error) {
	i, err := util.IntArg(args, 0, "index")
	if err != nil {
		return core.Summary{}, err
	}
	return s.deps.Session.Update(func(p *core.FlightPlan) error {
		wps, err := edit(p.Waypoints, i)
		if err != nil {
			return err
		}
		p.Waypoints = wps
		return nil
	})
}

// MoveWaypointUp moves a waypoint one place earlier: [index]
func (s *Service) MoveWaypointUp(args []string) (core.Summary, error) {
	return s.editAt(args, route.MoveUp)
}

// MoveWaypointDown moves a waypoint one place later: [index]
func (s *Service) MoveWaypointDown(args []string) (core.Summary, error) {
	return s.editAt(args, route.MoveDown)
}

// RemoveWaypoint removes a waypoint: [index]
func (s *Service) RemoveWaypoint(args []string) (core.Summary, error) {
	return s.editAt(args, route.Remove)
}

// RenameWaypoint renames a waypoint: [index, name]
func (s *Service) RenameWaypoint(args []string) (core.Summary, error) {
	name := util.Arg(args, 1)
	return s.editAt(args, func(wps []core.Waypoint, i int) ([]core.Waypoint, error) {
		return route.Rename(wps, i, name)
	})
}

// EditWaypointOffset changes the offset of a NAVAID-relative waypoint:
// [index, bearing, distance]
func (s *Service) EditWaypointOffset(args []string) (core.Summary, error) {
	bearing, err := util.FloatArg(args, 1, "bearing")
	if err != nil {
		return core.Summary{}, err
	}
	distance, err := util.FloatArg(args, 2, "distance")
	if err != nil {
		return core.Summary{}, err
	}
	return s.editAt(args, func(wps []core.Waypoint, i int) ([]core.Waypoint, error) {
		return route.EditOffset(wps, i, bearing, distance)
	})
}

// EditWaypointPosition moves a waypoint to a DMS position: [index, lat, lon]
func (s *Service) EditWaypointPosition(args []string) (core.Summary, error) {
	lat, err := util.StringArg(args, 1, "latitude")
	if err != nil {
		return core.Summary{}, err
	}
	lon, err := util.StringArg(args, 2, "longitude")
	if err != nil {
		return core.Summary{}, err
	}
	return s.editAt(args, func(wps []core.Waypoint, i int) ([]core.Waypoint, error) {
		return route.EditPosition(wps, i, lat, lon)
	})
}

// Publish sends the current plan to the backend and the recorder. Sink
// errors are logged and joined; the plan itself is never affected.
func (s *Service) Publish() error {
	backend, recorder := s.sinks()
	if backend == nil && recorder == nil {
		return nil
	}
	plan, summary, rev := s.deps.Session.Snapshot()
	now := s.deps.Now()

	var errs []error
	if backend != nil {
		if err := backend.PublishPlan(storage.NewSnapshot("", rev, now, plan, summary)); err != nil {
			s.writeLog(CmdPublish, fmt.Sprintf("backend publish failed: %v", err), "ERROR")
			errs = append(errs, err)
		}
	}
	if recorder != nil {
		if err := recorder.RecordPlan(plan, summary, now); err != nil {
			s.writeLog(CmdPublish, fmt.Sprintf("plan metrics failed: %v", err), "ERROR")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Save stores the current plan in the backend: [name?]
func (s *Service) Save(args []string) (SaveResult, error) {
	backend, _ := s.sinks()
	if backend == nil {
		return SaveResult{}, ErrNoBackend
	}
	plan, summary, rev := s.deps.Session.Snapshot()
	snap := storage.NewSnapshot(util.Arg(args, 0), rev, s.deps.Now(), plan, summary)

	if err := backend.SavePlan(snap); err != nil {
		s.writeLog(CmdSave, fmt.Sprintf("save failed: %v", err), "ERROR")
		return SaveResult{}, fmt.Errorf("save plan: %w", err)
	}

	res := SaveResult{Name: snap.DisplayName(), Revision: rev}
	if ex, ok := backend.(storage.Exporter); ok {
		res.Path = ex.GetExportedFilePath()
	}
	s.writeLog(CmdSave, fmt.Sprintf("saved %s at revision %d", res.Name, rev), "INFO")
	return res, nil
}
