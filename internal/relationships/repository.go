package relationships

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/pricesync/pkg/db/models"
)

// Repository persists slave/source relationships.
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

func (r *Repository) Create(ctx context.Context, rel *models.Relationship) error {
	return r.db.WithContext(ctx).Create(rel).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Relationship, error) {
	var rel models.Relationship
	if err := r.db.WithContext(ctx).First(&rel, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rel, nil
}

// PairExists reports whether the ordered (slave, source) pair is already stored.
func (r *Repository) PairExists(ctx context.Context, slaveID, sourceID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Relationship{}).
		Where("slave_product_id = ? AND source_product_id = ?", slaveID, sourceID).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) UpdateActive(ctx context.Context, id uuid.UUID, active bool) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Relationship{}).
		Where("id = ?", id).
		Update("active", active)
	return res.RowsAffected, res.Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Relationship{})
	return res.RowsAffected, res.Error
}

// DeleteByProduct removes every relationship where the product is slave or source.
func (r *Repository) DeleteByProduct(ctx context.Context, productID int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("slave_product_id = ? OR source_product_id = ?", productID, productID).
		Delete(&models.Relationship{})
	return res.RowsAffected, res.Error
}

// List returns every relationship using the provided ORDER BY clauses.
func (r *Repository) List(ctx context.Context, orderClauses ...string) ([]models.Relationship, error) {
	query := r.db.WithContext(ctx).Model(&models.Relationship{})
	for _, clause := range orderClauses {
		query = query.Order(clause)
	}
	var rows []models.Relationship
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) ListBySlave(ctx context.Context, slaveID int64) ([]models.Relationship, error) {
	var rows []models.Relationship
	if err := r.db.WithContext(ctx).
		Where("slave_product_id = ?", slaveID).
		Order("source_product_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) ListBySource(ctx context.Context, sourceID int64) ([]models.Relationship, error) {
	var rows []models.Relationship
	if err := r.db.WithContext(ctx).
		Where("source_product_id = ?", sourceID).
		Order("slave_product_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// SlaveIDs returns the distinct slave ids in ascending order.
func (r *Repository) SlaveIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := r.db.WithContext(ctx).
		Model(&models.Relationship{}).
		Distinct("slave_product_id").
		Order("slave_product_id ASC").
		Pluck("slave_product_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// SourceIDsBySlave returns the sources already linked to slaveID.
func (r *Repository) SourceIDsBySlave(ctx context.Context, slaveID int64) ([]int64, error) {
	var ids []int64
	if err := r.db.WithContext(ctx).
		Model(&models.Relationship{}).
		Where("slave_product_id = ?", slaveID).
		Order("source_product_id ASC").
		Pluck("source_product_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *Repository) CountActiveBySlave(ctx context.Context, slaveID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Relationship{}).
		Where("slave_product_id = ? AND active = ?", slaveID, true).
		Count(&count).Error
	return count, err
}
