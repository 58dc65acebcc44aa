package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/pricesync/pkg/enums"
)

// PriceEntry caches the summed source price for a slave product.
type PriceEntry struct {
	ID               uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	SlaveProductID   int64                  `gorm:"column:slave_product_id;not null;uniqueIndex"`
	RelationshipType enums.RelationshipType `gorm:"column:relationship_type;not null"`
	CalculatedPrice  decimal.Decimal        `gorm:"column:calculated_price;type:numeric(12,4);not null"`
	UpdatedAt        time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (PriceEntry) TableName() string { return "price_sync_prices" }

func (p *PriceEntry) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
