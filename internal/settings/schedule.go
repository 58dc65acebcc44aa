package settings

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/angelmondragon/pricesync/pkg/enums"
)

const DefaultCustomTime = "02:00"

var clockPattern = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):([0-5][0-9])$`)

// ParseClock splits an HH:MM value; single digit hours are accepted.
func ParseClock(value string) (hour, minute int, err error) {
	match := clockPattern.FindStringSubmatch(strings.TrimSpace(value))
	if match == nil {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", value)
	}
	hour, _ = strconv.Atoi(match[1])
	minute, _ = strconv.Atoi(match[2])
	return hour, minute, nil
}

// CronSpec maps a schedule to a standard five field cron expression. Disabled
// schedules report ok=false.
func CronSpec(schedule enums.SyncSchedule, customTime string) (spec string, ok bool, err error) {
	switch schedule {
	case enums.SyncScheduleDaily:
		return "0 2 * * *", true, nil
	case enums.SyncScheduleWeekly:
		return "0 2 * * 1", true, nil
	case enums.SyncScheduleCustom:
		hour, minute, err := ParseClock(customTime)
		if err != nil {
			return "", false, err
		}
		return fmt.Sprintf("%d %d * * *", minute, hour), true, nil
	case enums.SyncScheduleDisabled:
		return "", false, nil
	default:
		return "", false, fmt.Errorf("unknown schedule %q", schedule)
	}
}

// NextRun returns the first activation strictly after now, evaluated in loc.
func NextRun(schedule enums.SyncSchedule, customTime string, loc *time.Location, now time.Time) (time.Time, bool, error) {
	spec, ok, err := CronSpec(schedule, customTime)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	parsed, err := cron.ParseStandard(spec)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse cron spec %q: %w", spec, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return parsed.Next(now.In(loc)), true, nil
}
