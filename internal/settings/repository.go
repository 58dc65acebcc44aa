package settings

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/pricesync/pkg/db/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get loads the settings row; gorm.ErrRecordNotFound when it was never seeded.
func (r *Repository) Get(ctx context.Context) (*models.ScheduleSettings, error) {
	var row models.ScheduleSettings
	if err := r.db.WithContext(ctx).
		Where("id = ?", models.ScheduleSettingsID).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Upsert writes the singleton row.
func (r *Repository) Upsert(ctx context.Context, row *models.ScheduleSettings) error {
	row.ID = models.ScheduleSettingsID
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"schedule", "custom_time", "updated_at"}),
		}).
		Create(row).Error
}
