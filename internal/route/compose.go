// Package route assembles a flight plan into an ordered route and derives
// its summary: TAS, Mach, total distance, ETE and ETA.
package route

import (
	"github.com/skyroute/flightplanner/internal/atmosphere"
	"github.com/skyroute/flightplanner/internal/flighttime"
	"github.com/skyroute/flightplanner/internal/geo"
	"github.com/skyroute/flightplanner/pkg/core"
)

// namedPoint is a route point with the label used in the leg breakdown.
type namedPoint struct {
	id  string
	pos core.GeoPoint
}

func sequence(plan core.FlightPlan) []namedPoint {
	seq := make([]namedPoint, 0, len(plan.Waypoints)+2)
	if plan.Departure != nil {
		seq = append(seq, namedPoint{plan.Departure.ID, plan.Departure.Position})
	}
	for _, wp := range plan.Waypoints {
		seq = append(seq, namedPoint{wp.ID, wp.Position})
	}
	if plan.Arrival != nil {
		seq = append(seq, namedPoint{plan.Arrival.ID, plan.Arrival.Position})
	}
	return seq
}

// Points returns the ordered route positions: departure, waypoints, arrival.
// Missing ends are skipped.
func Points(plan core.FlightPlan) []core.GeoPoint {
	seq := sequence(plan)
	out := make([]core.GeoPoint, len(seq))
	for i, p := range seq {
		out[i] = p.pos
	}
	return out
}

// Compose derives the summary of a plan. TAS and Mach are always computed.
// Distance, legs and ETA need both departure and arrival; until then the
// summary carries zero distance, ETE "00:00" and the ETA placeholder.
// Compose has no hidden state, so repeated calls return equal summaries.
func Compose(plan core.FlightPlan) core.Summary {
	tas := atmosphere.CalculateTAS(plan.Speed, plan.Altitude)
	s := core.Summary{
		TAS:  tas,
		Mach: atmosphere.CalculateMach(tas, plan.Altitude),
		Legs: []core.Leg{},
	}

	if plan.Departure != nil && plan.Arrival != nil {
		s.Complete = true
		seq := sequence(plan)
		for i := 1; i < len(seq); i++ {
			a, b := seq[i-1], seq[i]
			d := geo.DistanceNm(a.pos, b.pos)
			s.TotalDistance += d
			s.Legs = append(s.Legs, core.Leg{
				From:       a.id,
				To:         b.id,
				DistanceNm: d,
				Course:     geo.InitialBearing(a.pos, b.pos),
			})
		}
	}

	s.ETEMinutes = flighttime.CalculateETE(s.TotalDistance, &tas)
	s.ETE = flighttime.FormatTime(s.ETEMinutes)
	s.ETA = flighttime.CalculateETA(plan.DepartureTime, s.ETEMinutes)
	return s
}
