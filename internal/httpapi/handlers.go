package httpapi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/skyroute/flightplanner/internal/atmosphere"
	"github.com/skyroute/flightplanner/internal/dispatcher"
	"github.com/skyroute/flightplanner/internal/flighttime"
	"github.com/skyroute/flightplanner/internal/geo"
	"github.com/skyroute/flightplanner/internal/handlers"
	"github.com/skyroute/flightplanner/internal/route"
	"github.com/skyroute/flightplanner/internal/util"
	"github.com/skyroute/flightplanner/pkg/core"
)

const defaultSearchLimit = 50

// Handler contains all HTTP handlers
type Handler struct {
	svc        *handlers.Service
	dispatcher *dispatcher.Dispatcher
	version    string
}

// NewHandler creates a new handler
func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		svc:        deps.Service,
		dispatcher: deps.Dispatcher,
		version:    deps.Version,
	}
}

// CommandRequest is the body of a plan command
type CommandRequest struct {
	Args []string `json:"args"`
}

// commandName maps a URL name such as "waypoint-navaid" to
// ":PLAN:WAYPOINT:NAVAID:". Names already in command form pass through.
func commandName(name string) string {
	if strings.HasPrefix(name, ":") {
		return name
	}
	name = strings.NewReplacer("-", ":", ".", ":", "_", ":").Replace(strings.ToUpper(name))
	return ":PLAN:" + name + ":"
}

func queryFloat(c *fiber.Ctx, key string) (float64, error) {
	v, err := util.FloatArg([]string{c.Query(key)}, 0, key)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return v, nil
}

func queryPoint(c *fiber.Ctx, latKey, lonKey string) (core.GeoPoint, error) {
	lat, err := queryFloat(c, latKey)
	if err != nil {
		return core.GeoPoint{}, err
	}
	lon, err := queryFloat(c, lonKey)
	if err != nil {
		return core.GeoPoint{}, err
	}
	p := core.GeoPoint{Latitude: lat, Longitude: lon}
	if err := p.Validate(); err != nil {
		return core.GeoPoint{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return p, nil
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	airports, navaids := h.svc.Catalog().Counts()
	return c.JSON(fiber.Map{
		"status":   "ok",
		"service":  "flightplanner",
		"version":  h.version,
		"airports": airports,
		"navaids":  navaids,
		"revision": h.svc.Session().Revision(),
	})
}

// GetPlan returns the current plan with its summary
func (h *Handler) GetPlan(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    h.svc.State(),
	})
}

// GetSummary returns the derived values of the current plan
func (h *Handler) GetSummary(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    h.svc.Session().Summary(),
	})
}

// GetRouteGeoJSON returns the route as a GeoJSON FeatureCollection
func (h *Handler) GetRouteGeoJSON(c *fiber.Ctx) error {
	out, err := route.GeoJSON(h.svc.Session().Plan())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to render route")
	}
	c.Set(fiber.HeaderContentType, "application/geo+json")
	return c.Send(out)
}

// PostCommand dispatches a plan command
func (h *Handler) PostCommand(c *fiber.Ctx) error {
	var req CommandRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
	}

	cmd := commandName(c.Params("command"))
	if cmd == handlers.CmdPublish {
		return fiber.NewError(fiber.StatusNotFound, "unknown command: "+cmd)
	}

	result, err := h.dispatcher.Dispatch(dispatcher.Event{
		Command: cmd,
		Args:    req.Args,
		Source:  "http",
	})
	if err != nil {
		return fiber.NewError(commandStatus(cmd, err), err.Error())
	}

	return c.JSON(fiber.Map{
		"success": true,
		"command": cmd,
		"data":    result,
	})
}

func commandStatus(cmd string, err error) int {
	switch {
	case errors.Is(err, dispatcher.ErrUnknownCommand):
		return fiber.StatusNotFound
	case errors.Is(err, handlers.ErrNoBackend),
		errors.Is(err, dispatcher.ErrClosed),
		errors.Is(err, dispatcher.ErrQueueFull):
		return fiber.StatusServiceUnavailable
	case cmd == handlers.CmdSave:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusBadRequest
	}
}

// GetAirports searches airports by id or name. With grouped=true the whole
// catalog is returned grouped by airport type.
func (h *Handler) GetAirports(c *fiber.Ctx) error {
	if c.QueryBool("grouped", false) {
		return c.JSON(fiber.Map{
			"success": true,
			"data":    h.svc.Catalog().AirportsByType(),
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    h.svc.Catalog().SearchAirports(c.Query("q"), c.QueryInt("limit", defaultSearchLimit)),
	})
}

// GetNavaids searches NAVAIDs by id or name
func (h *Handler) GetNavaids(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    h.svc.Catalog().SearchNavaids(c.Query("q"), c.QueryInt("limit", defaultSearchLimit)),
	})
}

// ConvertToDMS formats a decimal position in both DMS forms
func (h *Handler) ConvertToDMS(c *fiber.Ctx) error {
	p, err := queryPoint(c, "lat", "lon")
	if err != nil {
		return err
	}
	lat, lon := geo.DecimalToDMS(p.Latitude, p.Longitude)
	return c.JSON(fiber.Map{
		"latitude":  lat,
		"longitude": lon,
		"compact":   geo.FormatCompactDMS(p.Latitude, p.Longitude),
	})
}

// ConvertPunctuated decodes a punctuated DMS value such as N35°43'36"
func (h *Handler) ConvertPunctuated(c *fiber.Ctx) error {
	v, ok := geo.ParsePunctuatedDMS(c.Query("dms"), c.QueryBool("lat", true))
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "invalid DMS coordinate")
	}
	return c.JSON(fiber.Map{"value": v})
}

// ConvertCompact decodes a compact DMS value such as N354336
func (h *Handler) ConvertCompact(c *fiber.Ctx) error {
	d, err := geo.ParseCompactDMS(c.Query("dms"), c.QueryBool("lat", true))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(fiber.Map{
		"value":      d.Decimal(),
		"degrees":    d.Degrees,
		"minutes":    d.Minutes,
		"seconds":    d.Seconds,
		"hemisphere": string(d.Hemisphere),
	})
}

// Offset returns the point at bearing/distance from lat/lon
func (h *Handler) Offset(c *fiber.Ctx) error {
	origin, err := queryPoint(c, "lat", "lon")
	if err != nil {
		return err
	}
	bearing, err := queryFloat(c, "bearing")
	if err != nil {
		return err
	}
	distance, err := queryFloat(c, "distance")
	if err != nil {
		return err
	}
	p, err := geo.OffsetPoint(origin, bearing, distance)
	if err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}
	return c.JSON(fiber.Map{
		"latitude":  p.Latitude,
		"longitude": p.Longitude,
		"compact":   geo.FormatCompactDMS(p.Latitude, p.Longitude),
	})
}

// Distance returns the great-circle distance and initial course between two points
func (h *Handler) Distance(c *fiber.Ctx) error {
	a, err := queryPoint(c, "lat1", "lon1")
	if err != nil {
		return err
	}
	b, err := queryPoint(c, "lat2", "lon2")
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"distanceNm": geo.DistanceNm(a, b),
		"course":     geo.InitialBearing(a, b),
	})
}

// Atmosphere returns TAS, Mach and ISA values for an IAS and altitude.
// With distance set the ETE at that TAS is included.
func (h *Handler) Atmosphere(c *fiber.Ctx) error {
	ias, err := queryFloat(c, "ias")
	if err != nil {
		return err
	}
	alt, err := queryFloat(c, "altitude")
	if err != nil {
		return err
	}
	if !atmosphere.InModel(alt) {
		return fiber.NewError(fiber.StatusBadRequest,
			fmt.Sprintf("%s: altitude %v ft is outside the standard atmosphere", util.ErrInvalidArg, alt))
	}
	tas := atmosphere.CalculateTAS(ias, alt)
	out := fiber.Map{
		"tas":          tas,
		"mach":         atmosphere.CalculateMach(tas, alt),
		"temperatureK": atmosphere.TemperatureAt(alt),
		"speedOfSound": atmosphere.SpeedOfSound(alt),
	}
	if c.Query("distance") != "" {
		dist, err := queryFloat(c, "distance")
		if err != nil {
			return err
		}
		ete := flighttime.CalculateETE(dist, &tas)
		out["eteMinutes"] = ete
		out["ete"] = flighttime.FormatTime(ete)
	}
	return c.JSON(out)
}
