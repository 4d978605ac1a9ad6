package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/skyroute/flightplanner/internal/flighttime"
	"github.com/skyroute/flightplanner/internal/geo"
	"github.com/skyroute/flightplanner/internal/refdata"
	"github.com/skyroute/flightplanner/internal/route"
	gormstorage "github.com/skyroute/flightplanner/internal/storage/gorm"
	"github.com/skyroute/flightplanner/internal/storage/memory"
	"github.com/skyroute/flightplanner/pkg/core"
	"github.com/spf13/viper"
)

var errUsage = errors.New("invalid usage")

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage: %s [-config dir] <command> [args]\n\n", ServiceName)
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  serve                                 run the HTTP API (default)")
	fmt.Fprintln(out, "  compute [flags] DEP ARR [VIA...]      compute a plan; VIA is a NAVAID id or \"lat,lon\"")
	fmt.Fprintln(out, "  convert LAT LON                       convert between decimal and DMS")
	fmt.Fprintln(out, "  show FILE                             print an exported plan file")
	fmt.Fprintln(out, "  setupdb                               connect and migrate the database")
	fmt.Fprintln(out, "  importref                             load reference data into the database")
	fmt.Fprintln(out, "  plans [LIMIT]                         list saved plans in the database")
	fmt.Fprintln(out, "  version                               print the version")
	fmt.Fprintln(out)
	flag.PrintDefaults()
}

func runCLI(cmd string, args []string, out io.Writer) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	switch cmd {
	case "version":
		fmt.Fprintf(out, "%s %s (built %s)\n", ServiceName, CurrentVersion, BuildDate)
		return nil
	case "compute":
		return runCompute(ctx, args, out)
	case "convert":
		return runConvert(args, out)
	case "show":
		if len(args) != 1 {
			return fmt.Errorf("%w: show FILE", errUsage)
		}
		return showExport(args[0], out)
	case "setupdb":
		if _, err := connectDatabase(); err != nil {
			return err
		}
		Logger.Info("DB setup complete.")
		return nil
	case "importref":
		viper.Set("db.enabled", true)
		cat, err := loadCatalog(ctx)
		if err != nil {
			return err
		}
		airports, navaids := cat.Counts()
		fmt.Fprintf(out, "Imported %d airports and %d NAVAIDs\n", airports, navaids)
		return nil
	case "plans":
		return listPlans(ctx, args, out)
	default:
		flag.Usage()
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

// computeOptions are the inputs of a one-shot plan computation.
type computeOptions struct {
	Departure     string
	Arrival       string
	Via           []string
	Speed         float64
	Altitude      float64
	DepartureTime string
}

// computePlan builds a plan from catalog ids. A via entry naming a NAVAID
// becomes a NAVAID waypoint; anything else must be a decimal "lat,lon".
func computePlan(cat *refdata.Catalog, opts computeOptions) (core.FlightPlan, core.Summary, error) {
	plan := core.FlightPlan{
		Waypoints:     []core.Waypoint{},
		Speed:         opts.Speed,
		Altitude:      opts.Altitude,
		DepartureTime: opts.DepartureTime,
	}

	dep, ok := cat.Airport(opts.Departure)
	if !ok {
		return plan, core.Summary{}, fmt.Errorf("unknown departure airport %q", opts.Departure)
	}
	arr, ok := cat.Airport(opts.Arrival)
	if !ok {
		return plan, core.Summary{}, fmt.Errorf("unknown arrival airport %q", opts.Arrival)
	}
	plan.Departure, plan.Arrival = &dep, &arr

	for _, v := range opts.Via {
		if n, ok := cat.Navaid(v); ok {
			plan.Waypoints = route.Add(plan.Waypoints, route.NavaidWaypoint(n))
			continue
		}
		pos, err := geo.ParseDecimalCoordinate(v)
		if err != nil {
			return plan, core.Summary{}, fmt.Errorf("via %q: %w", v, err)
		}
		wp, err := route.CustomWaypoint(pos, len(plan.Waypoints), nil, nil)
		if err != nil {
			return plan, core.Summary{}, err
		}
		plan.Waypoints = route.Add(plan.Waypoints, wp)
	}

	return plan, route.Compose(plan), nil
}

func runCompute(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("compute", flag.ContinueOnError)
	speed := fs.Float64("speed", viper.GetFloat64("plan.defaultSpeed"), "indicated airspeed in knots")
	altitude := fs.Float64("altitude", viper.GetFloat64("plan.defaultAltitude"), "cruise altitude in feet")
	depTime := fs.String("deptime", flighttime.Now(time.Now), "departure time HH:MM")
	asJSON := fs.Bool("json", false, "print the plan and summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("%w: compute [flags] DEP ARR [VIA...]", errUsage)
	}

	cat, err := loadCatalog(ctx)
	if err != nil {
		return err
	}

	plan, summary, err := computePlan(cat, computeOptions{
		Departure:     fs.Arg(0),
		Arrival:       fs.Arg(1),
		Via:           fs.Args()[2:],
		Speed:         *speed,
		Altitude:      *altitude,
		DepartureTime: *depTime,
	})
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"plan": plan, "summary": summary})
	}
	printSummary(out, plan, summary)
	return nil
}

func printSummary(out io.Writer, plan core.FlightPlan, s core.Summary) {
	for _, leg := range s.Legs {
		fmt.Fprintf(out, "%-24s -> %-24s %7.1f nm  %05.1f°\n", leg.From, leg.To, leg.DistanceNm, leg.Course)
	}
	fmt.Fprintf(out, "IAS %.0f kt at %.0f ft: TAS %.1f kt, Mach %.3f\n", plan.Speed, plan.Altitude, s.TAS, s.Mach)
	fmt.Fprintf(out, "Distance %.1f nm, ETE %s, departure %s, ETA %s\n", s.TotalDistance, s.ETE, plan.DepartureTime, s.ETA)
}

// runConvert converts a decimal pair to both DMS forms, or a DMS pair in
// either form to decimal degrees.
func runConvert(args []string, out io.Writer) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: convert LAT LON", errUsage)
	}

	lat, latErr := strconv.ParseFloat(args[0], 64)
	lon, lonErr := strconv.ParseFloat(args[1], 64)
	if latErr == nil && lonErr == nil {
		p := core.GeoPoint{Latitude: lat, Longitude: lon}
		if err := p.Validate(); err != nil {
			return err
		}
		latDMS, lonDMS := geo.DecimalToDMS(lat, lon)
		fmt.Fprintf(out, "%s %s\n%s\n", latDMS, lonDMS, geo.FormatCompactDMS(lat, lon))
		return nil
	}

	p, err := route.ParseDMSPosition(args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%.6f,%.6f\n", p.Latitude, p.Longitude)
	return nil
}

func showExport(path string, out io.Writer) error {
	exp, err := memory.ReadExport(path)
	if err != nil {
		return fmt.Errorf("failed to read export: %w", err)
	}
	fmt.Fprintf(out, "%s (revision %d, saved %s)\n", exp.Name, exp.Revision, exp.SavedAt.Format(time.RFC3339))
	printSummary(out, exp.Plan, exp.Summary)
	return nil
}

func listPlans(ctx context.Context, args []string, out io.Writer) error {
	limit := 20
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("%w: plans [LIMIT]", errUsage)
		}
		limit = n
	}

	db, err := connectDatabase()
	if err != nil {
		return err
	}
	backend := gormstorage.New(gormstorage.Dependencies{DB: db.DB, Logger: Logger})
	plans, err := backend.List(ctx, limit)
	if err != nil {
		return err
	}
	if len(plans) == 0 {
		fmt.Fprintln(out, "No saved plans.")
		return nil
	}
	for _, p := range plans {
		fmt.Fprintf(out, "%5d  %-32s %s-%s  %7.1f nm  %s\n", p.ID, p.Name, p.DepartureID, p.ArrivalID, p.TotalDistance, p.ETE)
	}
	return nil
}
