package memory

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/skyroute/flightplanner/internal/config"
	"github.com/skyroute/flightplanner/internal/route"
	"github.com/skyroute/flightplanner/internal/storage"
	"github.com/skyroute/flightplanner/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var savedAt = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

func testSnapshot() *storage.Snapshot {
	plan := core.FlightPlan{
		Departure: &core.Airport{ID: "RJTT", Name: "Tokyo Haneda",
			Position: core.GeoPoint{Latitude: 35.5494, Longitude: 139.7798}},
		Arrival: &core.Airport{ID: "RJOO", Name: "Osaka Itami",
			Position: core.GeoPoint{Latitude: 34.7855, Longitude: 135.4382}},
		Waypoints: []core.Waypoint{
			{ID: "HLC", Name: "HAMAMATSU TACAN", Type: core.WaypointNavaid,
				Position: core.GeoPoint{Latitude: 34.7503, Longitude: 137.7031}},
		},
		Speed:         250,
		Altitude:      30000,
		DepartureTime: "09:00",
	}
	return storage.NewSnapshot("", 4, savedAt, plan, route.Compose(plan))
}

func TestNew_DefaultsFormat(t *testing.T) {
	b := New(config.MemoryConfig{})
	assert.Equal(t, FormatJSON, b.cfg.Format)
	assert.NoError(t, b.Init())
	assert.NoError(t, b.Close())
}

func TestPublishPlan_KeepsLatest(t *testing.T) {
	b := New(config.MemoryConfig{})

	_, ok := b.Latest()
	assert.False(t, ok)

	s := testSnapshot()
	require.NoError(t, b.PublishPlan(s))
	s.Revision = 5
	require.NoError(t, b.PublishPlan(s))

	latest, ok := b.Latest()
	require.True(t, ok)
	assert.Equal(t, uint64(5), latest.Revision)
	assert.Empty(t, b.Saved())
	assert.Empty(t, b.GetExportedFilePath())
}

func TestFileName(t *testing.T) {
	s := testSnapshot()
	assert.Equal(t, "RJTT_RJOO_20240115_103000_r4.json", FileName(s, FormatJSON, false))
	assert.Equal(t, "RJTT_RJOO_20240115_103000_r4.json.gz", FileName(s, FormatJSON, true))
	assert.Equal(t, "RJTT_RJOO_20240115_103000_r4.msgpack", FileName(s, FormatMsgpack, false))
}

func TestSavePlan_SameSecondKeepsBothRevisions(t *testing.T) {
	dir := t.TempDir()
	b := New(config.MemoryConfig{OutputDir: dir, Format: FormatJSON})

	first := testSnapshot()
	require.NoError(t, b.SavePlan(first))
	firstPath := b.GetExportedFilePath()

	second := testSnapshot()
	second.Revision = 5
	require.NoError(t, b.SavePlan(second))
	secondPath := b.GetExportedFilePath()
	assert.NotEqual(t, firstPath, secondPath)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	exp, err := ReadExport(firstPath)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), exp.Revision)
	exp, err = ReadExport(secondPath)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), exp.Revision)
}

func TestSavePlan_ExistingFileNotOverwritten(t *testing.T) {
	for _, compress := range []bool{false, true} {
		dir := t.TempDir()
		b := New(config.MemoryConfig{OutputDir: dir, Format: FormatJSON, CompressOutput: compress})
		s := testSnapshot()
		require.NoError(t, b.SavePlan(s))
		path := b.GetExportedFilePath()
		before, err := os.ReadFile(path)
		require.NoError(t, err)

		s.Summary.ETE = "99:59"
		err = b.SavePlan(s)
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrExist)

		after, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, before, after)
		assert.Len(t, b.Saved(), 1)
	}
}

func TestSavePlan_RoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		compress bool
	}{
		{"json", FormatJSON, false},
		{"json gzip", FormatJSON, true},
		{"msgpack", FormatMsgpack, false},
		{"msgpack gzip", FormatMsgpack, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			b := New(config.MemoryConfig{OutputDir: dir, Format: tt.format, CompressOutput: tt.compress})
			s := testSnapshot()

			require.NoError(t, b.SavePlan(s))

			path := b.GetExportedFilePath()
			assert.Equal(t, filepath.Join(dir, FileName(s, tt.format, tt.compress)), path)
			_, err := os.Stat(path)
			require.NoError(t, err)

			exp, err := ReadExport(path)
			require.NoError(t, err)
			assert.Equal(t, ExportVersion, exp.Version)
			assert.Equal(t, "RJTT_RJOO", exp.Name)
			assert.True(t, savedAt.Equal(exp.SavedAt))
			assert.Equal(t, uint64(4), exp.Revision)
			assert.Equal(t, "RJOO", exp.Plan.Arrival.ID)
			require.Len(t, exp.Plan.Waypoints, 1)
			assert.Equal(t, "HLC", exp.Plan.Waypoints[0].ID)
			assert.Equal(t, s.Summary.ETE, exp.Summary.ETE)
			assert.InDelta(t, s.Summary.TotalDistance, exp.Summary.TotalDistance, 1e-9)
			assert.Len(t, exp.Route, 3)

			assert.Len(t, b.Saved(), 1)
		})
	}
}

func TestSavePlan_UnknownFormat(t *testing.T) {
	b := New(config.MemoryConfig{OutputDir: t.TempDir(), Format: "xml"})
	err := b.SavePlan(testSnapshot())
	assert.ErrorIs(t, err, ErrUnknownFormat)
	assert.Empty(t, b.Saved())
}

func TestReadExport_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadExport(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	txt := filepath.Join(dir, "plan.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0644))
	_, err = ReadExport(txt)
	assert.ErrorIs(t, err, ErrUnknownFormat)

	bad := filepath.Join(dir, "plan.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0644))
	_, err = ReadExport(bad)
	assert.Error(t, err)

	badGz := filepath.Join(dir, "plan.json.gz")
	require.NoError(t, os.WriteFile(badGz, []byte("not gzip"), 0644))
	_, err = ReadExport(badGz)
	assert.Error(t, err)
}
