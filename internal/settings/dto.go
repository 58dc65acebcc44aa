package settings

import (
	"time"

	"github.com/angelmondragon/pricesync/pkg/db/models"
	"github.com/angelmondragon/pricesync/pkg/enums"
)

// Settings is the scheduled sync configuration.
type Settings struct {
	Schedule   enums.SyncSchedule `json:"schedule"`
	CustomTime string             `json:"custom_time"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

type SaveInput struct {
	Schedule   string `json:"schedule" validate:"required"`
	CustomTime string `json:"custom_time"`
}

type SaveResult struct {
	Settings Settings   `json:"settings"`
	NextRun  *time.Time `json:"next_run,omitempty"`
	Message  string     `json:"message"`
}

func newSettings(m models.ScheduleSettings) Settings {
	return Settings{
		Schedule:   m.Schedule,
		CustomTime: m.CustomTime,
		UpdatedAt:  m.UpdatedAt,
	}
}

func defaultSettings() Settings {
	return Settings{Schedule: enums.SyncScheduleDisabled, CustomTime: DefaultCustomTime}
}
