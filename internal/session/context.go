package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/skyroute/flightplanner/internal/flighttime"
	"github.com/skyroute/flightplanner/internal/route"
	"github.com/skyroute/flightplanner/pkg/core"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/skyroute/flightplanner/internal/session"

// Defaults are the inputs of a freshly reset plan.
type Defaults struct {
	Speed    float64
	Altitude float64
	Clock    flighttime.Clock
}

// Listener is notified after every committed change, outside the lock.
type Listener func(plan core.FlightPlan, summary core.Summary)

// Context holds the plan being edited and its derived summary. Every edit
// goes through Update, which recomputes the summary before committing, so
// the two never disagree.
type Context struct {
	mu        sync.RWMutex
	plan      core.FlightPlan
	summary   core.Summary
	revision  uint64
	defaults  Defaults
	projector *route.Projector
	listeners []Listener

	recomputed metric.Int64Counter
	cacheHits  metric.Int64Counter
}

// NewContext creates a Context holding a default plan.
func NewContext(defaults Defaults, projector *route.Projector) (*Context, error) {
	if projector == nil {
		var err error
		projector, err = route.NewProjector(route.DefaultProjectorSize)
		if err != nil {
			return nil, err
		}
	}

	m := otel.Meter(instrumentationName)
	recomputed, err := m.Int64Counter("plan.recomputed",
		metric.WithDescription("Plan summaries committed"))
	if err != nil {
		return nil, fmt.Errorf("creating recomputed counter: %w", err)
	}
	cacheHits, err := m.Int64Counter("plan.projection.cache_hits",
		metric.WithDescription("Summaries served from the projection cache"))
	if err != nil {
		return nil, fmt.Errorf("creating cache hit counter: %w", err)
	}

	c := &Context{
		defaults:   defaults,
		projector:  projector,
		recomputed: recomputed,
		cacheHits:  cacheHits,
	}
	c.plan = c.defaultPlan()
	c.summary, _ = projector.Project(c.plan)
	return c, nil
}

func (c *Context) defaultPlan() core.FlightPlan {
	return core.FlightPlan{
		Waypoints:     []core.Waypoint{},
		Speed:         c.defaults.Speed,
		Altitude:      c.defaults.Altitude,
		DepartureTime: flighttime.Now(c.defaults.Clock),
	}
}

// Plan returns a copy of the current plan.
func (c *Context) Plan() core.FlightPlan {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.plan.Clone()
}

// Summary returns the summary of the current plan.
func (c *Context) Summary() core.Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.summary.Clone()
}

// Snapshot returns the plan, its summary and the revision in one read.
func (c *Context) Snapshot() (core.FlightPlan, core.Summary, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.plan.Clone(), c.summary.Clone(), c.revision
}

// Revision counts committed changes.
func (c *Context) Revision() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.revision
}

// OnChange registers a listener for committed changes.
func (c *Context) OnChange(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// Update applies edit to a copy of the plan. If edit fails the plan is left
// unchanged; otherwise the summary is recomputed and both are committed.
func (c *Context) Update(edit func(p *core.FlightPlan) error) (core.Summary, error) {
	c.mu.Lock()
	next := c.plan.Clone()
	if err := edit(&next); err != nil {
		c.mu.Unlock()
		return core.Summary{}, err
	}
	summary, hit := c.projector.Project(next)
	c.plan = next
	c.summary = summary
	c.revision++
	listeners := append([]Listener(nil), c.listeners...)
	plan := next.Clone()
	c.mu.Unlock()

	ctx := context.Background()
	c.recomputed.Add(ctx, 1)
	if hit {
		c.cacheHits.Add(ctx, 1)
	}
	for _, l := range listeners {
		l(plan, summary.Clone())
	}
	return summary, nil
}

// Reset replaces the plan with a default one. The departure time is taken
// from the clock again.
func (c *Context) Reset() core.Summary {
	s, _ := c.Update(func(p *core.FlightPlan) error {
		*p = c.defaultPlan()
		return nil
	})
	return s
}

// LogAttrs describes the plan for log records.
func (c *Context) LogAttrs() []slog.Attr {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var dep, arr string
	if c.plan.Departure != nil {
		dep = c.plan.Departure.ID
	}
	if c.plan.Arrival != nil {
		arr = c.plan.Arrival.ID
	}
	return []slog.Attr{
		slog.String("departure", dep),
		slog.String("arrival", arr),
		slog.Uint64("revision", c.revision),
	}
}
