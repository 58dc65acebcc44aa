package models

import (
	"time"

	"github.com/angelmondragon/pricesync/pkg/enums"
)

// CatalogProduct is the storefront product whose regular price is kept in sync.
// RegularPrice holds the raw catalog value and may be empty or malformed.
type CatalogProduct struct {
	ID           int64               `gorm:"column:id;primaryKey"`
	Name         string              `gorm:"column:name;not null"`
	Status       enums.ProductStatus `gorm:"column:status;not null"`
	RegularPrice *string             `gorm:"column:regular_price"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (CatalogProduct) TableName() string { return "catalog_products" }

// CatalogCategory is a node in the catalog's category tree.
type CatalogCategory struct {
	ID       int64  `gorm:"column:id;primaryKey"`
	Name     string `gorm:"column:name;not null"`
	ParentID *int64 `gorm:"column:parent_id"`
}

func (CatalogCategory) TableName() string { return "catalog_categories" }

type CatalogProductCategory struct {
	ProductID  int64 `gorm:"column:product_id;primaryKey"`
	CategoryID int64 `gorm:"column:category_id;primaryKey"`
}

func (CatalogProductCategory) TableName() string { return "catalog_product_categories" }
