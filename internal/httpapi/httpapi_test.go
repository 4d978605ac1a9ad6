package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/skyroute/flightplanner/internal/dispatcher"
	"github.com/skyroute/flightplanner/internal/handlers"
	"github.com/skyroute/flightplanner/internal/logging"
	"github.com/skyroute/flightplanner/internal/refdata"
	"github.com/skyroute/flightplanner/internal/session"
	"github.com/skyroute/flightplanner/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) (*fiber.App, *handlers.Service) {
	t.Helper()

	logManager := logging.NewSlogManager()
	logManager.Setup(logging.Options{Level: "error", File: io.Discard})

	catalog := refdata.NewCatalog()
	catalog.AddAirports(
		core.Airport{ID: "RJTT", Name: "Tokyo Haneda", Label: "Tokyo Haneda (RJTT)", Type: core.AirportCivilian,
			Position: core.GeoPoint{Latitude: 35.5494, Longitude: 139.7798}},
		core.Airport{ID: "RJOO", Name: "Osaka Itami", Label: "Osaka Itami (RJOO)", Type: core.AirportCivilian,
			Position: core.GeoPoint{Latitude: 34.7855, Longitude: 135.4382}},
		core.Airport{ID: "RJTY", Name: "Yokota", Label: "Yokota (RJTY)", Type: core.AirportMilitary,
			Position: core.GeoPoint{Latitude: 35.7485, Longitude: 139.3485}},
	)
	catalog.AddNavaids(core.Navaid{ID: "HME", Name: "HANEDA", Type: core.NavaidVOR,
		Position: core.GeoPoint{Latitude: 35.5436, Longitude: 139.7953}})

	sess, err := session.NewContext(session.Defaults{
		Speed:    250,
		Altitude: 30000,
		Clock:    func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local) },
	}, nil)
	require.NoError(t, err)

	svc := handlers.NewService(handlers.Dependencies{
		Session:    sess,
		Catalog:    catalog,
		LogManager: logManager,
	})
	d, err := dispatcher.New(logging.NewDispatcherLogger(logManager.Logger()))
	require.NoError(t, err)
	svc.RegisterHandlers(d)
	t.Cleanup(func() { _ = d.Close(context.Background()) })

	app := New(Dependencies{
		Service:    svc,
		Dispatcher: d,
		AccessLog:  io.Discard,
		Version:    "test",
	})
	return app, svc
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func TestCommandName(t *testing.T) {
	assert.Equal(t, ":PLAN:DEPARTURE:", commandName("departure"))
	assert.Equal(t, ":PLAN:WAYPOINT:NAVAID:", commandName("waypoint-navaid"))
	assert.Equal(t, ":PLAN:WAYPOINT:UP:", commandName("waypoint.up"))
	assert.Equal(t, ":PLAN:SPEED:", commandName(":PLAN:SPEED:"))
}

func TestHealthCheck(t *testing.T) {
	app, _ := newTestApp(t)

	code, body := doJSON(t, app, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(3), body["airports"])
	assert.Equal(t, float64(1), body["navaids"])
}

func TestPostCommand_PlanFlow(t *testing.T) {
	app, svc := newTestApp(t)

	code, _ := doJSON(t, app, http.MethodPost, "/api/v1/plan/commands/departure", `{"args":["RJTT"]}`)
	require.Equal(t, http.StatusOK, code)
	code, body := doJSON(t, app, http.MethodPost, "/api/v1/plan/commands/arrival", `{"args":["RJOO"]}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, ":PLAN:ARRIVAL:", body["command"])

	data := body["data"].(map[string]any)
	assert.Equal(t, true, data["complete"])
	assert.InDelta(t, 218, data["totalDistance"].(float64), 1)

	code, _ = doJSON(t, app, http.MethodPost, "/api/v1/plan/commands/waypoint-navaid", `{"args":["HME","90","10"]}`)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, svc.Session().Plan().Waypoints, 1)

	code, _ = doJSON(t, app, http.MethodPost, "/api/v1/plan/commands/reset", "")
	require.Equal(t, http.StatusOK, code)
	assert.Nil(t, svc.Session().Plan().Departure)
}

func TestPostCommand_Errors(t *testing.T) {
	app, svc := newTestApp(t)

	tests := []struct {
		name string
		path string
		body string
		code int
	}{
		{"unknown command", "/api/v1/plan/commands/fly", `{"args":[]}`, http.StatusNotFound},
		{"internal publish hidden", "/api/v1/plan/commands/publish", "", http.StatusNotFound},
		{"unknown airport", "/api/v1/plan/commands/departure", `{"args":["XXXX"]}`, http.StatusBadRequest},
		{"negative speed", "/api/v1/plan/commands/speed", `{"args":["-1"]}`, http.StatusBadRequest},
		{"altitude above the model", "/api/v1/plan/commands/altitude", `{"args":["200000"]}`, http.StatusBadRequest},
		{"bad body", "/api/v1/plan/commands/speed", `{"args":`, http.StatusBadRequest},
		{"save without backend", "/api/v1/plan/commands/save", "", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := doJSON(t, app, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, true, body["error"])
			assert.NotEmpty(t, body["message"])
		})
	}
	assert.Zero(t, svc.Session().Revision())
}

func TestGetPlanAndSummary(t *testing.T) {
	app, svc := newTestApp(t)
	_, err := svc.SetDeparture([]string{"RJTT"})
	require.NoError(t, err)

	code, body := doJSON(t, app, http.MethodGet, "/api/v1/plan", "")
	require.Equal(t, http.StatusOK, code)
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(1), data["revision"])
	plan := data["plan"].(map[string]any)
	assert.Equal(t, "09:00", plan["departureTime"])

	code, body = doJSON(t, app, http.MethodGet, "/api/v1/plan/summary", "")
	require.Equal(t, http.StatusOK, code)
	summary := body["data"].(map[string]any)
	assert.Equal(t, "--:--", summary["eta"])
	assert.InDelta(t, 280.6, summary["tas"].(float64), 0.1)
}

func TestGetRouteGeoJSON(t *testing.T) {
	app, svc := newTestApp(t)
	_, err := svc.SetDeparture([]string{"RJTT"})
	require.NoError(t, err)
	_, err = svc.SetArrival([]string{"RJOO"})
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/plan/route.geojson", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/geo+json", resp.Header.Get("Content-Type"))

	var fc map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fc))
	assert.Equal(t, "FeatureCollection", fc["type"])
	assert.Len(t, fc["features"], 3)
}

func TestGetAirportsAndNavaids(t *testing.T) {
	app, _ := newTestApp(t)

	code, body := doJSON(t, app, http.MethodGet, "/api/v1/airports?q=osaka", "")
	require.Equal(t, http.StatusOK, code)
	list := body["data"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "RJOO", list[0].(map[string]any)["id"])

	code, body = doJSON(t, app, http.MethodGet, "/api/v1/airports?q=rj&limit=2", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["data"], 2)

	code, body = doJSON(t, app, http.MethodGet, "/api/v1/airports?grouped=true", "")
	require.Equal(t, http.StatusOK, code)
	groups := body["data"].([]any)
	assert.Len(t, groups, 2)

	code, body = doJSON(t, app, http.MethodGet, "/api/v1/navaids?q=hme", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["data"], 1)
}

func TestConvertEndpoints(t *testing.T) {
	app, _ := newTestApp(t)

	code, body := doJSON(t, app, http.MethodGet, "/api/v1/convert/dms?lat=35.7267&lon=139.7956", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, `N35°43'36"`, body["latitude"])
	assert.Equal(t, "N354336 E1394744", body["compact"])

	code, body = doJSON(t, app, http.MethodGet, "/api/v1/convert/compact?dms=N354336&lat=true", "")
	require.Equal(t, http.StatusOK, code)
	assert.InDelta(t, 35.7267, body["value"].(float64), 1e-4)
	assert.Equal(t, "N", body["hemisphere"])

	code, _ = doJSON(t, app, http.MethodGet, "/api/v1/convert/compact?dms=N994336&lat=true", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = doJSON(t, app, http.MethodGet, "/api/v1/convert/decimal?dms=garbage", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = doJSON(t, app, http.MethodGet, "/api/v1/convert/dms?lat=95&lon=0", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestOffsetAndDistance(t *testing.T) {
	app, _ := newTestApp(t)

	code, body := doJSON(t, app, http.MethodGet, "/api/v1/offset?lat=0&lon=0&bearing=90&distance=60", "")
	require.Equal(t, http.StatusOK, code)
	assert.InDelta(t, 0, body["latitude"].(float64), 1e-9)
	assert.InDelta(t, 1.0, body["longitude"].(float64), 0.01)

	code, _ = doJSON(t, app, http.MethodGet, "/api/v1/offset?lat=0&lon=0&bearing=90&distance=-1", "")
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, _ = doJSON(t, app, http.MethodGet, "/api/v1/offset?lat=0&lon=0&bearing=east&distance=1", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = doJSON(t, app, http.MethodGet,
		"/api/v1/distance?lat1=35.5494&lon1=139.7798&lat2=34.7855&lon2=135.4382", "")
	require.Equal(t, http.StatusOK, code)
	assert.InDelta(t, 218, body["distanceNm"].(float64), 1)
	assert.InDelta(t, 259, body["course"].(float64), 1)
}

func TestAtmosphere(t *testing.T) {
	app, _ := newTestApp(t)

	code, body := doJSON(t, app, http.MethodGet, "/api/v1/atmosphere?ias=250&altitude=30000&distance=217.95", "")
	require.Equal(t, http.StatusOK, code)
	assert.InDelta(t, 280.6, body["tas"].(float64), 0.1)
	assert.InDelta(t, 0.476, body["mach"].(float64), 0.001)
	assert.Equal(t, "00:46", body["ete"])

	code, body = doJSON(t, app, http.MethodGet, "/api/v1/atmosphere?ias=250&altitude=0", "")
	require.Equal(t, http.StatusOK, code)
	assert.InDelta(t, 250, body["tas"].(float64), 1e-9)
	assert.NotContains(t, body, "ete")

	code, _ = doJSON(t, app, http.MethodGet, "/api/v1/atmosphere?ias=250", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = doJSON(t, app, http.MethodGet, "/api/v1/atmosphere?ias=250&altitude=200000&distance=100", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["message"], "outside the standard atmosphere")
}

func TestPostCommand_AltitudeOutOfModelKeepsPlanReadable(t *testing.T) {
	app, svc := newTestApp(t)

	code, _ := doJSON(t, app, http.MethodPost, "/api/v1/plan/commands/altitude", `{"args":["200000"]}`)
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, 30000.0, svc.Session().Plan().Altitude)

	code, _ = doJSON(t, app, http.MethodGet, "/api/v1/plan", "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = doJSON(t, app, http.MethodGet, "/api/v1/plan/summary", "")
	assert.Equal(t, http.StatusOK, code)
}
