package httpapi

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/skyroute/flightplanner/internal/dispatcher"
	"github.com/skyroute/flightplanner/internal/handlers"
)

// Dependencies holds everything the HTTP API serves from
type Dependencies struct {
	Service    *handlers.Service
	Dispatcher *dispatcher.Dispatcher
	// AccessLog receives one line per request. Defaults to stdout.
	AccessLog io.Writer
	Version   string
}

// New creates the fiber app with middleware and all routes registered
func New(deps Dependencies) *fiber.App {
	if deps.AccessLog == nil {
		deps.AccessLog = os.Stdout
	}

	app := fiber.New(fiber.Config{
		AppName:               "flightplanner " + deps.Version,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
		Output: deps.AccessLog,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	SetupRoutes(app, NewHandler(deps))
	return app
}

// SetupRoutes configures all HTTP routes
func SetupRoutes(app *fiber.App, h *Handler) {
	app.Get("/health", h.HealthCheck)

	api := app.Group("/api/v1")
	{
		api.Get("/health", h.HealthCheck)

		// Plan
		api.Get("/plan", h.GetPlan)
		api.Get("/plan/summary", h.GetSummary)
		api.Get("/plan/route.geojson", h.GetRouteGeoJSON)
		api.Post("/plan/commands/:command", h.PostCommand)

		// Reference data
		api.Get("/airports", h.GetAirports)
		api.Get("/navaids", h.GetNavaids)

		// Stateless calculators
		api.Get("/convert/dms", h.ConvertToDMS)
		api.Get("/convert/decimal", h.ConvertPunctuated)
		api.Get("/convert/compact", h.ConvertCompact)
		api.Get("/offset", h.Offset)
		api.Get("/distance", h.Distance)
		api.Get("/atmosphere", h.Atmosphere)
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
