package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/facilityinspect/server/internal/models"
	"github.com/lib/pq"
	sqlite3 "github.com/mattn/go-sqlite3"
)

// DeficiencyRepository handles deficiency persistence
type DeficiencyRepository struct {
	db DB
}

// NewDeficiencyRepository creates a new DeficiencyRepository
func NewDeficiencyRepository(db DB) *DeficiencyRepository {
	return &DeficiencyRepository{db: db}
}

// Add inserts a deficiency. A violation of the (space_id, number) constraint
// is reported as ErrDuplicateDeficiencyNumber so the completion transaction
// can retry with a fresh count.
func (r *DeficiencyRepository) Add(ctx context.Context, deficiency *models.Deficiency) error {
	query := `
		INSERT INTO deficiencies (id, number, space_id, inspection_id, checklist_item_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		deficiency.ID,
		deficiency.Number,
		deficiency.SpaceID,
		deficiency.InspectionID,
		deficiency.ChecklistItemID,
		deficiency.Status,
		deficiency.CreatedAt,
	)

	if isUniqueViolation(err) {
		return models.ErrDuplicateDeficiencyNumber
	}

	return err
}

// GetByResponse retrieves the deficiency derived from a specific response, if
// one exists. Used to keep completion fan-out idempotent under retries.
func (r *DeficiencyRepository) GetByResponse(ctx context.Context, inspectionID, checklistItemID string) (*models.Deficiency, error) {
	query := `
		SELECT id, number, space_id, inspection_id, checklist_item_id, status, created_at
		FROM deficiencies WHERE inspection_id = $1 AND checklist_item_id = $2
	`

	var def models.Deficiency
	err := r.db.QueryRowContext(ctx, query, inspectionID, checklistItemID).Scan(
		&def.ID,
		&def.Number,
		&def.SpaceID,
		&def.InspectionID,
		&def.ChecklistItemID,
		&def.Status,
		&def.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &def, nil
}

// CountForSpace returns the number of deficiencies recorded for a space
func (r *DeficiencyRepository) CountForSpace(ctx context.Context, spaceID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM deficiencies WHERE space_id = $1",
		spaceID,
	).Scan(&count)
	return count, err
}

// ListForInspection retrieves all deficiencies derived from one inspection
func (r *DeficiencyRepository) ListForInspection(ctx context.Context, inspectionID string) ([]*models.Deficiency, error) {
	query := `
		SELECT id, number, space_id, inspection_id, checklist_item_id, status, created_at
		FROM deficiencies WHERE inspection_id = $1
		ORDER BY number
	`

	rows, err := r.db.QueryContext(ctx, query, inspectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deficiencies []*models.Deficiency
	for rows.Next() {
		var def models.Deficiency
		if err := rows.Scan(
			&def.ID,
			&def.Number,
			&def.SpaceID,
			&def.InspectionID,
			&def.ChecklistItemID,
			&def.Status,
			&def.CreatedAt,
		); err != nil {
			return nil, err
		}
		deficiencies = append(deficiencies, &def)
	}

	if deficiencies == nil {
		deficiencies = []*models.Deficiency{}
	}

	return deficiencies, rows.Err()
}

// isUniqueViolation recognizes unique-constraint errors from both backends
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}

	return false
}
