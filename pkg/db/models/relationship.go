package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Relationship is a directed edge from a slave product to one of its sources.
type Relationship struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	SlaveProductID  int64     `gorm:"column:slave_product_id;not null;uniqueIndex:price_sync_relationships_pair_key,priority:1"`
	SourceProductID int64     `gorm:"column:source_product_id;not null;uniqueIndex:price_sync_relationships_pair_key,priority:2;index"`
	Active          bool      `gorm:"column:active;not null"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Relationship) TableName() string { return "price_sync_relationships" }

func (r *Relationship) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
