package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/skyroute/flightplanner/internal/model"
	"github.com/skyroute/flightplanner/internal/model/convert"
	"github.com/skyroute/flightplanner/pkg/core"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Manager handles database connections and operations.
type Manager struct {
	DB             *gorm.DB
	SqlDB          *sql.DB
	IsValid        bool
	UsingSqlite    bool
	SqliteFilePath string
	Logger         zerolog.Logger
}

// NewManager creates a new database manager.
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		SqliteFilePath: viper.GetString("db.sqlitePath"),
		Logger:         log,
	}
}

// Connect establishes a database connection, falling back to SQLite if Postgres fails.
func (m *Manager) Connect() error {
	var err error

	m.DB, err = GetPostgresDB()
	if err == nil {
		m.SqlDB, err = m.DB.DB()
		if err == nil {
			err = m.SqlDB.Ping()
		}
	}
	if err != nil {
		m.Logger.Error().Err(err).Msg("Failed to connect to Postgres DB, trying SQLite")
		if err := m.useSqlite(); err != nil {
			return err
		}
	} else {
		m.Logger.Info().Msg("Connected to database")
		m.SqlDB.SetMaxOpenConns(10)
	}

	m.IsValid = true
	return nil
}

func (m *Manager) useSqlite() error {
	db, err := GetSqliteDB(m.SqliteFilePath)
	if err != nil || db == nil {
		m.IsValid = false
		return fmt.Errorf("failed to get local SQLite DB: %w", err)
	}
	m.DB = db
	m.UsingSqlite = true
	if m.SqlDB, err = db.DB(); err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	if m.SqliteFilePath != "" {
		m.Logger.Info().Str("path", m.SqliteFilePath).Msg("Using local SQLite DB")
	} else {
		m.Logger.Info().Msg("Using local SQLite DB in memory")
	}
	return nil
}

// Setup migrates tables. On Postgres the PostGIS extension is created first.
func (m *Manager) Setup() error {
	if m.DB.Dialector.Name() == "postgres" {
		err := m.DB.Exec(`CREATE Extension IF NOT EXISTS postgis;`).Error
		if err != nil {
			m.IsValid = false
			return fmt.Errorf("failed to create PostGIS Extension: %w", err)
		}
		m.Logger.Info().Msg("PostGIS Extension created")
	}

	m.Logger.Info().Msg("Migrating schema")
	if err := m.DB.AutoMigrate(model.DatabaseModels...); err != nil {
		m.IsValid = false
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	m.Logger.Info().Msg("Database setup complete")
	return nil
}

// Close releases the underlying connection pool.
func (m *Manager) Close() error {
	if m.SqlDB == nil {
		return nil
	}
	m.IsValid = false
	return m.SqlDB.Close()
}

// SaveReferenceData upserts airports and NAVAIDs by ID.
func (m *Manager) SaveReferenceData(ctx context.Context, airports []core.Airport, navaids []core.Navaid) error {
	db := m.DB.WithContext(ctx)
	upsert := clause.OnConflict{UpdateAll: true}

	if len(airports) > 0 {
		rows := make([]model.Airport, len(airports))
		for i, a := range airports {
			rows[i] = convert.CoreToAirport(a)
		}
		if err := db.Clauses(upsert).CreateInBatches(rows, 500).Error; err != nil {
			return fmt.Errorf("failed to save airports: %w", err)
		}
	}

	if len(navaids) > 0 {
		rows := make([]model.Navaid, len(navaids))
		for i, n := range navaids {
			rows[i] = convert.CoreToNavaid(n)
		}
		if err := db.Clauses(upsert).CreateInBatches(rows, 500).Error; err != nil {
			return fmt.Errorf("failed to save navaids: %w", err)
		}
	}

	m.Logger.Debug().Int("airports", len(airports)).Int("navaids", len(navaids)).Msg("Saved reference data")
	return nil
}

// LoadReferenceData reads every stored airport and NAVAID ordered by ID.
func (m *Manager) LoadReferenceData(ctx context.Context) ([]core.Airport, []core.Navaid, error) {
	db := m.DB.WithContext(ctx)

	var airportRows []model.Airport
	if err := db.Order("id").Find(&airportRows).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load airports: %w", err)
	}
	var navaidRows []model.Navaid
	if err := db.Order("id").Find(&navaidRows).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load navaids: %w", err)
	}

	airports := make([]core.Airport, len(airportRows))
	for i, a := range airportRows {
		airports[i] = convert.AirportToCore(a)
	}
	navaids := make([]core.Navaid, len(navaidRows))
	for i, n := range navaidRows {
		navaids[i] = convert.NavaidToCore(n)
	}
	return airports, navaids, nil
}

// GetPostgresDB returns a connection to the Postgres database using viper config.
func GetPostgresDB() (*gorm.DB, error) {
	dsn := fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		viper.GetString("db.host"),
		viper.GetString("db.port"),
		viper.GetString("db.username"),
		viper.GetString("db.password"),
		viper.GetString("db.database"),
	)

	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        1000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
}

// GetSqliteDB returns a connection to a SQLite database.
// If path is empty, uses an in-memory database.
func GetSqliteDB(path string) (*gorm.DB, error) {
	dsn := path
	if dsn == "" {
		dsn = "file::memory:?cache=shared"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        500,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	pragmas := []string{
		"PRAGMA user_version = 1;",
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA foreign_keys = ON;",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting PRAGMA: %w", err)
		}
	}

	return db, nil
}
