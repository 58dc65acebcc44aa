package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/pricesync/pkg/enums"
)

// PriceChange records a catalog regular price write. Rows are never updated.
type PriceChange struct {
	ID            uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	ProductID     int64                   `gorm:"column:product_id;not null;index"`
	PreviousPrice *string                 `gorm:"column:previous_price"`
	NewPrice      decimal.Decimal         `gorm:"column:new_price;type:numeric(12,2);not null"`
	Reason        enums.PriceChangeReason `gorm:"column:reason;not null"`
	CreatedAt     time.Time               `gorm:"column:created_at;autoCreateTime"`
}

func (PriceChange) TableName() string { return "catalog_price_changes" }

func (p *PriceChange) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
