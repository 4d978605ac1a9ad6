package database

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/skyroute/flightplanner/pkg/core"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryManager(t *testing.T, name string) *Manager {
	t.Helper()
	db, err := GetSqliteDB("file:" + name + "?mode=memory&cache=shared")
	require.NoError(t, err)

	m := NewManager(zerolog.Nop())
	m.DB = db
	m.UsingSqlite = true
	m.SqlDB, err = db.DB()
	require.NoError(t, err)
	require.NoError(t, m.Setup())
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestSetup_MigratesTables(t *testing.T) {
	m := newMemoryManager(t, "setup")

	for _, table := range []string{"airports", "navaids", "saved_plans", "saved_waypoints"} {
		assert.True(t, m.DB.Migrator().HasTable(table), table)
	}
}

func TestReferenceData_RoundTrip(t *testing.T) {
	m := newMemoryManager(t, "refdata")
	ctx := context.Background()

	airports := []core.Airport{
		{ID: "RJTT", Name: "Tokyo Haneda", Label: "Tokyo Haneda (RJTT)", Type: "civilian",
			Position: core.GeoPoint{Latitude: 35.5494, Longitude: 139.7798}},
		{ID: "RJOO", Name: "Osaka Itami", Label: "Osaka Itami (RJOO)", Type: "civilian",
			Position: core.GeoPoint{Latitude: 34.7855, Longitude: 135.4382}},
	}
	navaids := []core.Navaid{
		{ID: "HLC", Name: "HAMAMATSU TACAN", Label: "HAMAMATSU TACAN (HLC)", Type: "TACAN", Channel: "46X",
			Position: core.GeoPoint{Latitude: 34.7503, Longitude: 137.7031}},
	}
	require.NoError(t, m.SaveReferenceData(ctx, airports, navaids))

	gotAirports, gotNavaids, err := m.LoadReferenceData(ctx)
	require.NoError(t, err)
	require.Len(t, gotAirports, 2)
	assert.Equal(t, airports[1], gotAirports[0]) // ordered by ID
	assert.Equal(t, airports[0], gotAirports[1])
	assert.Equal(t, navaids, gotNavaids)
}

func TestSaveReferenceData_Upserts(t *testing.T) {
	m := newMemoryManager(t, "upsert")
	ctx := context.Background()

	a := core.Airport{ID: "RJTY", Name: "Yokota", Type: "military"}
	require.NoError(t, m.SaveReferenceData(ctx, []core.Airport{a}, nil))
	a.Name = "Yokota AB"
	require.NoError(t, m.SaveReferenceData(ctx, []core.Airport{a}, nil))

	airports, _, err := m.LoadReferenceData(ctx)
	require.NoError(t, err)
	require.Len(t, airports, 1)
	assert.Equal(t, "Yokota AB", airports[0].Name)
}

func TestConnect_FallsBackToSqlite(t *testing.T) {
	viper.Set("db.host", "127.0.0.1")
	viper.Set("db.port", "1")
	t.Cleanup(viper.Reset)

	m := NewManager(zerolog.Nop())
	m.SqliteFilePath = "file:fallback?mode=memory&cache=shared"
	require.NoError(t, m.Connect())
	t.Cleanup(func() { _ = m.Close() })

	assert.True(t, m.IsValid)
	assert.True(t, m.UsingSqlite)
	assert.Equal(t, "sqlite", m.DB.Dialector.Name())
}

func TestClose_NoConnection(t *testing.T) {
	m := NewManager(zerolog.Nop())
	assert.NoError(t, m.Close())
}
