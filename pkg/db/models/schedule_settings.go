package models

import (
	"time"

	"github.com/angelmondragon/pricesync/pkg/enums"
)

// ScheduleSettingsID is the primary key of the single settings row.
const ScheduleSettingsID = 1

type ScheduleSettings struct {
	ID         int                `gorm:"column:id;primaryKey"`
	Schedule   enums.SyncSchedule `gorm:"column:schedule;not null"`
	CustomTime string             `gorm:"column:custom_time;not null"`
	UpdatedAt  time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (ScheduleSettings) TableName() string { return "price_sync_settings" }
