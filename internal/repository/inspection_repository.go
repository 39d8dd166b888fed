package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/facilityinspect/server/internal/models"
)

// InspectionRepository handles inspection persistence
type InspectionRepository struct {
	db DB
}

// NewInspectionRepository creates a new InspectionRepository
func NewInspectionRepository(db DB) *InspectionRepository {
	return &InspectionRepository{db: db}
}

// Add inserts a new inspection
func (r *InspectionRepository) Add(ctx context.Context, inspection *models.Inspection) error {
	query := `
		INSERT INTO inspections (id, org_id, building_id, space_id, inspector_id, template_id, template_version, status, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		inspection.ID,
		inspection.OrgID,
		inspection.BuildingID,
		inspection.SpaceID,
		inspection.InspectorID,
		inspection.TemplateID,
		inspection.TemplateVersion,
		inspection.Status,
		inspection.StartedAt,
		inspection.CompletedAt,
	)

	return err
}

// GetByID retrieves an inspection by its ID
func (r *InspectionRepository) GetByID(ctx context.Context, id string) (*models.Inspection, error) {
	query := `
		SELECT id, org_id, building_id, space_id, inspector_id, template_id, template_version, status, started_at, completed_at
		FROM inspections WHERE id = $1
	`

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetOpenForSpace retrieves the in-progress inspection for a space, if any.
// The model assumes at most one open inspection per space.
func (r *InspectionRepository) GetOpenForSpace(ctx context.Context, spaceID string) (*models.Inspection, error) {
	query := `
		SELECT id, org_id, building_id, space_id, inspector_id, template_id, template_version, status, started_at, completed_at
		FROM inspections WHERE space_id = $1 AND status = $2
		ORDER BY started_at DESC LIMIT 1
	`

	return r.scanOne(r.db.QueryRowContext(ctx, query, spaceID, models.StatusInProgress))
}

// MarkCompleted flips status and completed_at in one statement. The WHERE
// clause keeps the flip idempotent under completion retries.
func (r *InspectionRepository) MarkCompleted(ctx context.Context, id string, completedAt time.Time) error {
	query := `
		UPDATE inspections SET status = $1, completed_at = $2
		WHERE id = $3 AND status != $1
	`

	_, err := r.db.ExecContext(ctx, query, models.StatusCompleted, completedAt, id)
	return err
}

// ListForBuilding retrieves the most recent inspections for a building
func (r *InspectionRepository) ListForBuilding(ctx context.Context, buildingID string, limit int) ([]*models.Inspection, error) {
	query := `
		SELECT id, org_id, building_id, space_id, inspector_id, template_id, template_version, status, started_at, completed_at
		FROM inspections WHERE building_id = $1
		ORDER BY started_at DESC LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, buildingID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var inspections []*models.Inspection
	for rows.Next() {
		var insp models.Inspection
		if err := rows.Scan(
			&insp.ID,
			&insp.OrgID,
			&insp.BuildingID,
			&insp.SpaceID,
			&insp.InspectorID,
			&insp.TemplateID,
			&insp.TemplateVersion,
			&insp.Status,
			&insp.StartedAt,
			&insp.CompletedAt,
		); err != nil {
			return nil, err
		}
		inspections = append(inspections, &insp)
	}

	if inspections == nil {
		inspections = []*models.Inspection{}
	}

	return inspections, rows.Err()
}

// CountOpenForBuilding returns how many inspections are still in progress for
// a building. Zero means the building may be fully inspected.
func (r *InspectionRepository) CountOpenForBuilding(ctx context.Context, buildingID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM inspections WHERE building_id = $1 AND status = $2",
		buildingID, models.StatusInProgress,
	).Scan(&count)
	return count, err
}

func (r *InspectionRepository) scanOne(row *sql.Row) (*models.Inspection, error) {
	var insp models.Inspection
	err := row.Scan(
		&insp.ID,
		&insp.OrgID,
		&insp.BuildingID,
		&insp.SpaceID,
		&insp.InspectorID,
		&insp.TemplateID,
		&insp.TemplateVersion,
		&insp.Status,
		&insp.StartedAt,
		&insp.CompletedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &insp, nil
}
