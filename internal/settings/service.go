package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/pricesync/pkg/db/models"
	"github.com/angelmondragon/pricesync/pkg/enums"
	pkgerrors "github.com/angelmondragon/pricesync/pkg/errors"
)

// Service reads and saves the scheduled sync settings.
type Service interface {
	Get(ctx context.Context) (*Settings, error)
	Save(ctx context.Context, input SaveInput) (*SaveResult, error)
	NextRun(ctx context.Context, now time.Time) (time.Time, bool, error)
}

type service struct {
	repo *Repository
	loc  *time.Location
	now  func() time.Time
}

// NewService builds the settings service; schedules are evaluated in loc.
func NewService(repo *Repository, loc *time.Location) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &service{repo: repo, loc: loc, now: time.Now}, nil
}

// Get returns the stored settings, or the disabled default when none exist.
func (s *service) Get(ctx context.Context) (*Settings, error) {
	row, err := s.repo.Get(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			out := defaultSettings()
			return &out, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load schedule settings")
	}
	out := newSettings(*row)
	return &out, nil
}

func (s *service) Save(ctx context.Context, input SaveInput) (*SaveResult, error) {
	schedule, err := enums.ParseSyncSchedule(input.Schedule)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid schedule").
			WithDetails(map[string]any{"schedule": input.Schedule})
	}

	customTime := strings.TrimSpace(input.CustomTime)
	if customTime == "" {
		customTime = DefaultCustomTime
	}
	hour, minute, err := ParseClock(customTime)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid time format. Use HH:MM").
			WithDetails(map[string]any{"custom_time": input.CustomTime})
	}
	customTime = fmt.Sprintf("%02d:%02d", hour, minute)

	row := &models.ScheduleSettings{Schedule: schedule, CustomTime: customTime, UpdatedAt: s.now().UTC()}
	if err := s.repo.Upsert(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "save schedule settings")
	}

	result := &SaveResult{Settings: newSettings(*row), Message: "Settings saved. Scheduled sync disabled."}
	next, ok, err := NextRun(schedule, customTime, s.loc, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "compute next run")
	}
	if ok {
		result.NextRun = &next
		result.Message = fmt.Sprintf("Settings saved. Next sync: %s", next.Format("2006-01-02 15:04 MST"))
	}
	return result, nil
}

func (s *service) NextRun(ctx context.Context, now time.Time) (time.Time, bool, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return time.Time{}, false, err
	}
	return NextRun(current.Schedule, current.CustomTime, s.loc, now)
}
