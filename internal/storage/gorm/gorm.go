package gormstorage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/skyroute/flightplanner/internal/model"
	"github.com/skyroute/flightplanner/internal/model/convert"
	"github.com/skyroute/flightplanner/internal/storage"
	"github.com/skyroute/flightplanner/pkg/core"
	"gorm.io/gorm"
)

// ErrDatabaseUnavailable is returned when the backend has no usable database.
var ErrDatabaseUnavailable = errors.New("database unavailable")

// ErrPlanNotFound is returned when no saved plan has the requested ID.
var ErrPlanNotFound = errors.New("saved plan not found")

// Dependencies holds everything the GORM backend needs.
type Dependencies struct {
	DB              *gorm.DB
	Logger          *slog.Logger
	IsDatabaseValid func() bool
}

// Backend persists saved plans to SQL through GORM. Plan updates are not
// written; only explicit saves are.
type Backend struct {
	deps Dependencies
	log  *slog.Logger
}

var _ storage.Backend = (*Backend)(nil)

// New creates a GORM backend.
func New(deps Dependencies) *Backend {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.IsDatabaseValid == nil {
		deps.IsDatabaseValid = func() bool { return deps.DB != nil }
	}
	return &Backend{deps: deps, log: logger.With("component", "gormstorage")}
}

func (b *Backend) db(ctx context.Context) (*gorm.DB, error) {
	if b.deps.DB == nil || !b.deps.IsDatabaseValid() {
		return nil, ErrDatabaseUnavailable
	}
	return b.deps.DB.WithContext(ctx), nil
}

// Init migrates the plan tables.
func (b *Backend) Init() error {
	db, err := b.db(context.Background())
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(&model.SavedPlan{}, &model.SavedWaypoint{}); err != nil {
		return fmt.Errorf("failed to migrate plan tables: %w", err)
	}
	return nil
}

// Close is a no-op; the connection belongs to the database manager.
func (b *Backend) Close() error {
	return nil
}

// PublishPlan ignores live updates.
func (b *Backend) PublishPlan(*storage.Snapshot) error {
	return nil
}

// SavePlan stores the snapshot and its waypoints in one transaction.
func (b *Backend) SavePlan(s *storage.Snapshot) error {
	_, err := b.Save(context.Background(), s)
	return err
}

// Save stores the snapshot and returns the new plan ID.
func (b *Backend) Save(ctx context.Context, s *storage.Snapshot) (uint, error) {
	db, err := b.db(ctx)
	if err != nil {
		return 0, err
	}

	row, err := convert.CoreToSavedPlan(s.DisplayName(), s.Plan, s.Summary)
	if err != nil {
		return 0, fmt.Errorf("failed to convert plan: %w", err)
	}
	row.CreatedAt = s.Time

	if err := db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&row).Error
	}); err != nil {
		return 0, fmt.Errorf("failed to save plan: %w", err)
	}

	b.log.Info("Saved plan", "id", row.ID, "name", row.Name, "waypoints", len(row.Waypoints))
	return row.ID, nil
}

// PlanInfo is a listing entry of a saved plan.
type PlanInfo struct {
	ID            uint    `json:"id"`
	Name          string  `json:"name"`
	DepartureID   string  `json:"departureId"`
	ArrivalID     string  `json:"arrivalId"`
	TotalDistance float64 `json:"totalDistance"`
	ETE           string  `json:"ete"`
}

// List returns saved plans, newest first. limit <= 0 means no limit.
func (b *Backend) List(ctx context.Context, limit int) ([]PlanInfo, error) {
	db, err := b.db(ctx)
	if err != nil {
		return nil, err
	}

	q := db.Model(&model.SavedPlan{}).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []model.SavedPlan
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}

	out := make([]PlanInfo, len(rows))
	for i, r := range rows {
		out[i] = PlanInfo{
			ID:            r.ID,
			Name:          r.Name,
			DepartureID:   r.DepartureID,
			ArrivalID:     r.ArrivalID,
			TotalDistance: r.TotalDistance,
			ETE:           r.ETE,
		}
	}
	return out, nil
}

// Load restores the plan inputs of a saved plan.
func (b *Backend) Load(ctx context.Context, id uint) (core.FlightPlan, error) {
	db, err := b.db(ctx)
	if err != nil {
		return core.FlightPlan{}, err
	}

	var row model.SavedPlan
	err = db.Preload("Waypoints").First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.FlightPlan{}, fmt.Errorf("%w: %d", ErrPlanNotFound, id)
	}
	if err != nil {
		return core.FlightPlan{}, fmt.Errorf("failed to load plan %d: %w", id, err)
	}
	return convert.SavedPlanToCore(row)
}

// Delete removes a saved plan and its waypoints.
func (b *Backend) Delete(ctx context.Context, id uint) error {
	db, err := b.db(ctx)
	if err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("saved_plan_id = ?", id).Delete(&model.SavedWaypoint{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.SavedPlan{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %d", ErrPlanNotFound, id)
		}
		return nil
	})
}
