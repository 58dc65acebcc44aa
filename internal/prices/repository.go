package prices

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/pricesync/pkg/db/models"
	"github.com/angelmondragon/pricesync/pkg/enums"
)

// Repository persists the derived price table.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) List(ctx context.Context, orderClauses ...string) ([]models.PriceEntry, error) {
	query := r.db.WithContext(ctx).Model(&models.PriceEntry{})
	for _, clause := range orderClauses {
		query = query.Order(clause)
	}
	var rows []models.PriceEntry
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) FindBySlave(ctx context.Context, slaveID int64) (*models.PriceEntry, error) {
	var entry models.PriceEntry
	if err := r.db.WithContext(ctx).First(&entry, "slave_product_id = ?", slaveID).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// Upsert inserts the slave's entry or rewrites the existing one in place.
func (r *Repository) Upsert(ctx context.Context, entry *models.PriceEntry) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slave_product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"relationship_type", "calculated_price", "updated_at"}),
		}).
		Create(entry).Error
}

// UpdateEntry rewrites the type and price of the slave's entry.
func (r *Repository) UpdateEntry(ctx context.Context, slaveID int64, relType enums.RelationshipType, price decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.PriceEntry{}).
		Where("slave_product_id = ?", slaveID).
		Updates(map[string]any{
			"relationship_type": relType,
			"calculated_price":  price,
		}).Error
}

func (r *Repository) UpdatePrice(ctx context.Context, slaveID int64, price decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.PriceEntry{}).
		Where("slave_product_id = ?", slaveID).
		Update("calculated_price", price).Error
}

func (r *Repository) DeleteBySlave(ctx context.Context, slaveID int64) (int64, error) {
	res := r.db.WithContext(ctx).Where("slave_product_id = ?", slaveID).Delete(&models.PriceEntry{})
	return res.RowsAffected, res.Error
}
