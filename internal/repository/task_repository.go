package repository

import (
	"context"

	"github.com/facilityinspect/server/internal/models"
)

// TaskRepository handles remediation task persistence
type TaskRepository struct {
	db DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Add inserts a new task
func (r *TaskRepository) Add(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (id, deficiency_id, space_id, description, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		task.ID,
		task.DeficiencyID,
		task.SpaceID,
		task.Description,
		task.Source,
		task.CreatedAt,
	)

	return err
}

// ListForDeficiency retrieves the tasks linked to a deficiency
func (r *TaskRepository) ListForDeficiency(ctx context.Context, deficiencyID string) ([]*models.Task, error) {
	query := `
		SELECT id, deficiency_id, space_id, description, source, created_at
		FROM tasks WHERE deficiency_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, deficiencyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		var task models.Task
		if err := rows.Scan(
			&task.ID,
			&task.DeficiencyID,
			&task.SpaceID,
			&task.Description,
			&task.Source,
			&task.CreatedAt,
		); err != nil {
			return nil, err
		}
		tasks = append(tasks, &task)
	}

	if tasks == nil {
		tasks = []*models.Task{}
	}

	return tasks, rows.Err()
}
