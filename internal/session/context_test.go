package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/skyroute/flightplanner/internal/flighttime"
	"github.com/skyroute/flightplanner/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)
}

func newTestContext(t *testing.T) *Context {
	t.Helper()
	c, err := NewContext(Defaults{Speed: 250, Altitude: 30000, Clock: fixedClock}, nil)
	require.NoError(t, err)
	return c
}

var (
	haneda = &core.Airport{ID: "RJTT", Position: core.GeoPoint{Latitude: 35.5494, Longitude: 139.7798}}
	itami  = &core.Airport{ID: "RJOO", Position: core.GeoPoint{Latitude: 34.7855, Longitude: 135.4382}}
)

func TestNewContext_Defaults(t *testing.T) {
	c := newTestContext(t)

	plan := c.Plan()
	assert.Equal(t, 250.0, plan.Speed)
	assert.Equal(t, 30000.0, plan.Altitude)
	assert.Equal(t, "09:00", plan.DepartureTime)
	assert.Empty(t, plan.Waypoints)

	s := c.Summary()
	assert.False(t, s.Complete)
	assert.Equal(t, flighttime.Placeholder, s.ETA)
	assert.Greater(t, s.TAS, 250.0)
	assert.Equal(t, uint64(0), c.Revision())
}

func TestUpdate_RecomputesSummary(t *testing.T) {
	c := newTestContext(t)

	s, err := c.Update(func(p *core.FlightPlan) error {
		p.Departure = haneda
		p.Arrival = itami
		return nil
	})
	require.NoError(t, err)

	assert.True(t, s.Complete)
	assert.Greater(t, s.TotalDistance, 200.0)
	assert.NotEqual(t, flighttime.Placeholder, s.ETA)
	assert.Equal(t, s, c.Summary())
	assert.Equal(t, uint64(1), c.Revision())
}

func TestUpdate_ErrorLeavesPlanUnchanged(t *testing.T) {
	c := newTestContext(t)
	before, beforeSummary, rev := c.Snapshot()

	editErr := errors.New("bad input")
	_, err := c.Update(func(p *core.FlightPlan) error {
		p.Speed = 999
		p.Departure = haneda
		return editErr
	})
	assert.ErrorIs(t, err, editErr)

	after, afterSummary, afterRev := c.Snapshot()
	assert.Equal(t, before, after)
	assert.Equal(t, beforeSummary, afterSummary)
	assert.Equal(t, rev, afterRev)
}

func TestPlan_ReturnsCopy(t *testing.T) {
	c := newTestContext(t)
	_, err := c.Update(func(p *core.FlightPlan) error {
		p.Waypoints = append(p.Waypoints, core.Waypoint{ID: "A"})
		return nil
	})
	require.NoError(t, err)

	plan := c.Plan()
	plan.Waypoints[0].ID = "mutated"
	assert.Equal(t, "A", c.Plan().Waypoints[0].ID)
}

func TestOnChange_NotifiesListeners(t *testing.T) {
	c := newTestContext(t)

	var got []core.Summary
	c.OnChange(func(plan core.FlightPlan, summary core.Summary) {
		assert.Equal(t, 300.0, plan.Speed)
		got = append(got, summary)
	})

	_, err := c.Update(func(p *core.FlightPlan) error {
		p.Speed = 300
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 1)

	_, err = c.Update(func(p *core.FlightPlan) error { return errors.New("rejected") })
	require.Error(t, err)
	assert.Len(t, got, 1)
}

func TestReset(t *testing.T) {
	c := newTestContext(t)
	_, err := c.Update(func(p *core.FlightPlan) error {
		p.Departure = haneda
		p.Speed = 180
		p.Waypoints = []core.Waypoint{{ID: "A"}}
		return nil
	})
	require.NoError(t, err)

	s := c.Reset()
	plan := c.Plan()
	assert.Nil(t, plan.Departure)
	assert.Equal(t, 250.0, plan.Speed)
	assert.Empty(t, plan.Waypoints)
	assert.False(t, s.Complete)
	assert.Equal(t, uint64(2), c.Revision())
}

func TestUpdate_Concurrent(t *testing.T) {
	c := newTestContext(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Update(func(p *core.FlightPlan) error {
				p.Altitude = float64(10000 + i*1000)
				return nil
			})
			c.Summary()
		}(i)
	}
	wg.Wait()

	plan, summary, rev := c.Snapshot()
	assert.Equal(t, uint64(20), rev)
	assert.InDelta(t, summary.TAS, c.Summary().TAS, 0)
	assert.GreaterOrEqual(t, plan.Altitude, 10000.0)
}

func TestLogAttrs(t *testing.T) {
	c := newTestContext(t)
	_, err := c.Update(func(p *core.FlightPlan) error {
		p.Departure = haneda
		return nil
	})
	require.NoError(t, err)

	attrs := c.LogAttrs()
	require.Len(t, attrs, 3)
	assert.Equal(t, "RJTT", attrs[0].Value.String())
	assert.Equal(t, "", attrs[1].Value.String())
	assert.Equal(t, uint64(1), attrs[2].Value.Uint64())
}
