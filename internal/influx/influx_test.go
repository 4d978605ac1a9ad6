package influx

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/skyroute/flightplanner/pkg/core"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readBackup(t *testing.T, path string) string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(zr)
	require.NoError(t, err)
	return string(data)
}

func testPlan() (core.FlightPlan, core.Summary) {
	plan := core.FlightPlan{
		Departure: &core.Airport{ID: "RJTT"},
		Arrival:   &core.Airport{ID: "RJOO"},
		Waypoints: []core.Waypoint{{ID: "HLC"}},
		Speed:     250,
		Altitude:  30000,
	}
	summary := core.Summary{TAS: 280.6, Mach: 0.476, TotalDistance: 218, ETEMinutes: 46.6, Complete: true}
	return plan, summary
}

func TestNewManager_Bucket(t *testing.T) {
	viper.Set("influx.bucket", "history")
	t.Cleanup(viper.Reset)

	m := NewManager(zerolog.Nop(), "")
	assert.Equal(t, "history", m.Bucket())
}

func TestNewManager_DefaultBucket(t *testing.T) {
	m := NewManager(zerolog.Nop(), "")
	assert.Equal(t, "plans", m.Bucket())
}

func TestConnect_Disabled(t *testing.T) {
	m := NewManager(zerolog.Nop(), "")
	assert.ErrorIs(t, m.Connect(context.Background()), ErrDisabled)
}

func TestConnect_UnreachableUsesBackup(t *testing.T) {
	viper.Set("influx.enabled", true)
	viper.Set("influx.protocol", "http")
	viper.Set("influx.host", "127.0.0.1")
	viper.Set("influx.port", "1")
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "influx_backup.lp.gz")
	m := NewManager(zerolog.Nop(), path)
	require.NoError(t, m.Connect(context.Background()))
	assert.False(t, m.IsValid)
	require.NotNil(t, m.BackupWriter)

	plan, summary := testPlan()
	require.NoError(t, m.RecordPlan(plan, summary, time.Unix(1700000000, 0)))
	require.NoError(t, m.Close())

	assert.Contains(t, readBackup(t, path), "flight_plan,arrival=RJOO,departure=RJTT")
}

func TestConnect_SetupFailureUsesBackup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ping" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"code":"internal error","message":"org store unavailable"}`))
	}))
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	viper.Set("influx.enabled", true)
	viper.Set("influx.protocol", "http")
	viper.Set("influx.host", u.Hostname())
	viper.Set("influx.port", u.Port())
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "influx_backup.lp.gz")
	m := NewManager(zerolog.Nop(), path)
	require.NoError(t, m.Connect(context.Background()))
	assert.False(t, m.IsValid)
	assert.Nil(t, m.Client)
	require.NotNil(t, m.BackupWriter)

	plan, summary := testPlan()
	require.NoError(t, m.RecordPlan(plan, summary, time.Unix(1700000000, 0)))
	require.NoError(t, m.Close())
	assert.Contains(t, readBackup(t, path), "flight_plan,arrival=RJOO,departure=RJTT")
}

func TestWritePoint_NoBackup(t *testing.T) {
	m := NewManager(zerolog.Nop(), "")
	plan, summary := testPlan()
	assert.Error(t, m.RecordPlan(plan, summary, time.Now()))
}

func TestRecordPlan_BackupLineProtocol(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.lp.gz")
	m := NewManager(zerolog.Nop(), path)
	require.NoError(t, m.OpenBackup())

	plan, summary := testPlan()
	at := time.Unix(1700000000, 0)
	require.NoError(t, m.RecordPlan(plan, summary, at))
	require.NoError(t, m.RecordPlan(core.FlightPlan{}, core.Summary{}, at))
	require.NoError(t, m.Close())

	lines := strings.Split(strings.TrimSpace(readBackup(t, path)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "flight_plan,arrival=RJOO,departure=RJTT "))
	assert.Contains(t, lines[0], "waypoints=1i")
	assert.Contains(t, lines[0], "complete=true")
	assert.True(t, strings.HasSuffix(lines[0], " 1700000000000000000"))
	assert.True(t, strings.HasPrefix(lines[1], "flight_plan,arrival=none,departure=none "))
}

func TestClose_Idempotent(t *testing.T) {
	m := NewManager(zerolog.Nop(), filepath.Join(t.TempDir(), "b.gz"))
	require.NoError(t, m.OpenBackup())
	assert.NoError(t, m.Close())
	assert.NoError(t, m.Close())
}
