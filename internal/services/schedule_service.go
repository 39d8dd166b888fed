package services

import (
	"context"
	"time"

	"github.com/facilityinspect/server/internal/models"
	"github.com/facilityinspect/server/internal/observability"
	"github.com/facilityinspect/server/internal/repository"
)

// ScheduleService manages recurring inspection schedules. next_due_at is a
// cached value: recomputed on every create and edit, and advanced when a due
// schedule is triggered.
type ScheduleService struct {
	schedules repository.ScheduleRepo
	logger    *observability.Logger
}

// NewScheduleService creates a new ScheduleService
func NewScheduleService(schedules repository.ScheduleRepo) *ScheduleService {
	return &ScheduleService{
		schedules: schedules,
		logger:    observability.WithField("component", "schedules"),
	}
}

// Create persists a schedule with a freshly computed next_due_at
func (s *ScheduleService) Create(ctx context.Context, orgID, spaceID string, frequency models.Frequency, anchorWeekday, anchorDayOfMonth int, timeOfDay string) (*models.InspectionSchedule, error) {
	schedule := models.NewInspectionSchedule(orgID, spaceID, frequency, anchorWeekday, anchorDayOfMonth, timeOfDay)
	schedule.NextDueAt = NextDue(schedule.Frequency, schedule.AnchorWeekday, schedule.AnchorDayOfMonth, schedule.TimeOfDay, time.Now().UTC())

	if err := s.schedules.Add(ctx, schedule); err != nil {
		return nil, err
	}
	return schedule, nil
}

// Update applies edits and recomputes next_due_at from the new parameters
func (s *ScheduleService) Update(ctx context.Context, schedule *models.InspectionSchedule) error {
	schedule.NextDueAt = NextDue(schedule.Frequency, schedule.AnchorWeekday, schedule.AnchorDayOfMonth, schedule.TimeOfDay, time.Now().UTC())
	return s.schedules.Update(ctx, schedule)
}

// Get retrieves a schedule by id
func (s *ScheduleService) Get(ctx context.Context, id string) (*models.InspectionSchedule, error) {
	return s.schedules.GetByID(ctx, id)
}

// ListDue returns enabled schedules whose cached next_due_at has passed
func (s *ScheduleService) ListDue(ctx context.Context, asOf time.Time) ([]*models.InspectionSchedule, error) {
	return s.schedules.ListDue(ctx, asOf)
}

// Trigger marks a due schedule as fired and advances its next_due_at. The
// next occurrence is computed from now, so a schedule that fired late does
// not immediately fire again.
func (s *ScheduleService) Trigger(ctx context.Context, schedule *models.InspectionSchedule) error {
	now := time.Now().UTC()
	next := NextDue(schedule.Frequency, schedule.AnchorWeekday, schedule.AnchorDayOfMonth, schedule.TimeOfDay, now)
	if schedule.Frequency == models.FrequencyBiweekly {
		// NextDue lands on the coming anchor weekday; a biweekly schedule
		// sits out that week after firing
		next = next.AddDate(0, 0, 7)
	}

	if err := s.schedules.MarkTriggered(ctx, schedule.ID, now, next); err != nil {
		return err
	}

	schedule.LastTriggeredAt = &now
	schedule.NextDueAt = next

	s.logger.WithContext(ctx).
		WithField("schedule_id", schedule.ID).
		WithField("space_id", schedule.SpaceID).
		Infof("schedule triggered, next due %s", next.Format(time.RFC3339))

	return nil
}
