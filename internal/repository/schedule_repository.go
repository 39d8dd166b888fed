package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/facilityinspect/server/internal/models"
)

// ScheduleRepository handles recurring inspection schedule persistence
type ScheduleRepository struct {
	db DB
}

// NewScheduleRepository creates a new ScheduleRepository
func NewScheduleRepository(db DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Add inserts a new schedule
func (r *ScheduleRepository) Add(ctx context.Context, schedule *models.InspectionSchedule) error {
	query := `
		INSERT INTO schedules (id, org_id, space_id, frequency, anchor_weekday, anchor_day_of_month, time_of_day, enabled, next_due_at, last_triggered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		schedule.ID,
		schedule.OrgID,
		schedule.SpaceID,
		schedule.Frequency,
		schedule.AnchorWeekday,
		schedule.AnchorDayOfMonth,
		schedule.TimeOfDay,
		schedule.Enabled,
		schedule.NextDueAt,
		schedule.LastTriggeredAt,
	)

	return err
}

// Update rewrites a schedule, including its recomputed next_due_at
func (r *ScheduleRepository) Update(ctx context.Context, schedule *models.InspectionSchedule) error {
	query := `
		UPDATE schedules SET frequency = $1, anchor_weekday = $2, anchor_day_of_month = $3,
			time_of_day = $4, enabled = $5, next_due_at = $6, last_triggered_at = $7
		WHERE id = $8
	`

	_, err := r.db.ExecContext(ctx, query,
		schedule.Frequency,
		schedule.AnchorWeekday,
		schedule.AnchorDayOfMonth,
		schedule.TimeOfDay,
		schedule.Enabled,
		schedule.NextDueAt,
		schedule.LastTriggeredAt,
		schedule.ID,
	)

	return err
}

// GetByID retrieves a schedule by its ID
func (r *ScheduleRepository) GetByID(ctx context.Context, id string) (*models.InspectionSchedule, error) {
	query := `
		SELECT id, org_id, space_id, frequency, anchor_weekday, anchor_day_of_month, time_of_day, enabled, next_due_at, last_triggered_at
		FROM schedules WHERE id = $1
	`

	var s models.InspectionSchedule
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID,
		&s.OrgID,
		&s.SpaceID,
		&s.Frequency,
		&s.AnchorWeekday,
		&s.AnchorDayOfMonth,
		&s.TimeOfDay,
		&s.Enabled,
		&s.NextDueAt,
		&s.LastTriggeredAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// ListDue retrieves enabled schedules whose cached next_due_at has passed
func (r *ScheduleRepository) ListDue(ctx context.Context, asOf time.Time) ([]*models.InspectionSchedule, error) {
	query := `
		SELECT id, org_id, space_id, frequency, anchor_weekday, anchor_day_of_month, time_of_day, enabled, next_due_at, last_triggered_at
		FROM schedules WHERE enabled = $1 AND next_due_at <= $2
		ORDER BY next_due_at
	`

	rows, err := r.db.QueryContext(ctx, query, true, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []*models.InspectionSchedule
	for rows.Next() {
		var s models.InspectionSchedule
		if err := rows.Scan(
			&s.ID,
			&s.OrgID,
			&s.SpaceID,
			&s.Frequency,
			&s.AnchorWeekday,
			&s.AnchorDayOfMonth,
			&s.TimeOfDay,
			&s.Enabled,
			&s.NextDueAt,
			&s.LastTriggeredAt,
		); err != nil {
			return nil, err
		}
		schedules = append(schedules, &s)
	}

	if schedules == nil {
		schedules = []*models.InspectionSchedule{}
	}

	return schedules, rows.Err()
}

// MarkTriggered records a firing and advances the cached next_due_at
func (r *ScheduleRepository) MarkTriggered(ctx context.Context, id string, triggeredAt, nextDueAt time.Time) error {
	query := `
		UPDATE schedules SET last_triggered_at = $1, next_due_at = $2
		WHERE id = $3
	`

	_, err := r.db.ExecContext(ctx, query, triggeredAt, nextDueAt, id)
	return err
}
