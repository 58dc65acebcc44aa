package enums

import (
	"fmt"
	"strings"
)

// SyncSchedule enumerates how often the scheduled sync runs.
type SyncSchedule string

const (
	SyncScheduleDisabled SyncSchedule = "disabled"
	SyncScheduleDaily    SyncSchedule = "daily"
	SyncScheduleWeekly   SyncSchedule = "weekly"
	SyncScheduleCustom   SyncSchedule = "custom"
)

var validSyncSchedules = []SyncSchedule{
	SyncScheduleDisabled,
	SyncScheduleDaily,
	SyncScheduleWeekly,
	SyncScheduleCustom,
}

// String implements fmt.Stringer.
func (s SyncSchedule) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SyncSchedule.
func (s SyncSchedule) IsValid() bool {
	for _, candidate := range validSyncSchedules {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSyncSchedule converts raw input into a SyncSchedule.
func ParseSyncSchedule(value string) (SyncSchedule, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validSyncSchedules {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sync schedule %q", value)
}
