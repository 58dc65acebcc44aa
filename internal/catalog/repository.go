package catalog

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/pricesync/pkg/db/models"
	"github.com/angelmondragon/pricesync/pkg/enums"
)

// Repository persists catalog products, categories and price audit rows.
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

// FindByID loads a product or returns gorm.ErrRecordNotFound.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.CatalogProduct, error) {
	var product models.CatalogProduct
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateRegularPrice stores the formatted price and reports the affected row count.
func (r *Repository) UpdateRegularPrice(ctx context.Context, id int64, price string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CatalogProduct{}).
		Where("id = ?", id).
		Update("regular_price", price)
	return res.RowsAffected, res.Error
}

func (r *Repository) InsertPriceChange(ctx context.Context, change *models.PriceChange) error {
	return r.db.WithContext(ctx).Create(change).Error
}

// ListPublished returns published products ordered by name, skipping excludeIDs.
func (r *Repository) ListPublished(ctx context.Context, excludeIDs []int64) ([]models.CatalogProduct, error) {
	query := r.db.WithContext(ctx).
		Model(&models.CatalogProduct{}).
		Where("status = ?", enums.ProductStatusPublish)
	if len(excludeIDs) > 0 {
		query = query.Where("id NOT IN ?", excludeIDs)
	}
	var rows []models.CatalogProduct
	if err := query.Order("name ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListPublishedInCategory narrows ListPublished to direct members of categoryID.
func (r *Repository) ListPublishedInCategory(ctx context.Context, categoryID int64, excludeIDs []int64) ([]models.CatalogProduct, error) {
	query := r.db.WithContext(ctx).
		Model(&models.CatalogProduct{}).
		Joins("JOIN catalog_product_categories pc ON pc.product_id = catalog_products.id").
		Where("pc.category_id = ?", categoryID).
		Where("catalog_products.status = ?", enums.ProductStatusPublish)
	if len(excludeIDs) > 0 {
		query = query.Where("catalog_products.id NOT IN ?", excludeIDs)
	}
	var rows []models.CatalogProduct
	if err := query.
		Order("catalog_products.name ASC").
		Order("catalog_products.id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]models.CatalogCategory, error) {
	var rows []models.CatalogCategory
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) ListPriceChanges(ctx context.Context, productID int64, limit int) ([]models.PriceChange, error) {
	var rows []models.PriceChange
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteProduct removes the product and its category links.
func (r *Repository) DeleteProduct(ctx context.Context, id int64) (int64, error) {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("product_id = ?", id).Delete(&models.CatalogProductCategory{}).Error; err != nil {
		return 0, err
	}
	res := tx.Where("id = ?", id).Delete(&models.CatalogProduct{})
	return res.RowsAffected, res.Error
}
