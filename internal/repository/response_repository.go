package repository

import (
	"context"
	"database/sql"

	"github.com/facilityinspect/server/internal/models"
)

// ResponseRepository handles answer and photo-record persistence
type ResponseRepository struct {
	db DB
}

// NewResponseRepository creates a new ResponseRepository
func NewResponseRepository(db DB) *ResponseRepository {
	return &ResponseRepository{db: db}
}

// Upsert writes an answer keyed by (inspection_id, checklist_item_id).
// Repeated syncs of the same answer are a no-op row-wise, which is what makes
// the sync engine and completion retries idempotent.
func (r *ResponseRepository) Upsert(ctx context.Context, response *models.Response) error {
	query := `
		INSERT INTO responses (inspection_id, checklist_item_id, result, comment, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (inspection_id, checklist_item_id) DO UPDATE SET
			result = EXCLUDED.result,
			comment = EXCLUDED.comment,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		response.InspectionID,
		response.ChecklistItemID,
		string(response.Result),
		response.Comment,
		response.UpdatedAt,
	)

	return err
}

// GetForInspection retrieves all answers for an inspection
func (r *ResponseRepository) GetForInspection(ctx context.Context, inspectionID string) ([]*models.Response, error) {
	query := `
		SELECT inspection_id, checklist_item_id, result, comment, updated_at
		FROM responses WHERE inspection_id = $1
		ORDER BY checklist_item_id
	`

	rows, err := r.db.QueryContext(ctx, query, inspectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var responses []*models.Response
	for rows.Next() {
		var resp models.Response
		var result sql.NullString
		if err := rows.Scan(
			&resp.InspectionID,
			&resp.ChecklistItemID,
			&result,
			&resp.Comment,
			&resp.UpdatedAt,
		); err != nil {
			return nil, err
		}
		resp.Result = models.Result(result.String)
		responses = append(responses, &resp)
	}

	if responses == nil {
		responses = []*models.Response{}
	}

	return responses, rows.Err()
}

// UpsertPhoto writes an ordered photo record keyed by
// (inspection_id, checklist_item_id, position) so retried completions
// overwrite rather than duplicate.
func (r *ResponseRepository) UpsertPhoto(ctx context.Context, record *models.PhotoRecord) error {
	query := `
		INSERT INTO response_photos (inspection_id, checklist_item_id, position, stored_path)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (inspection_id, checklist_item_id, position) DO UPDATE SET
			stored_path = EXCLUDED.stored_path
	`

	_, err := r.db.ExecContext(ctx, query,
		record.InspectionID,
		record.ChecklistItemID,
		record.Position,
		record.StoredPath,
	)

	return err
}

// DeletePhotosFrom removes an item's photo records at position and above.
// Called when a correction shrinks an item's photo list so stale tail rows
// do not survive the upsert.
func (r *ResponseRepository) DeletePhotosFrom(ctx context.Context, inspectionID, checklistItemID string, position int) error {
	query := `
		DELETE FROM response_photos
		WHERE inspection_id = $1 AND checklist_item_id = $2 AND position >= $3
	`

	_, err := r.db.ExecContext(ctx, query, inspectionID, checklistItemID, position)
	return err
}

// GetPhotos retrieves all photo records for an inspection, ordered
func (r *ResponseRepository) GetPhotos(ctx context.Context, inspectionID string) ([]*models.PhotoRecord, error) {
	query := `
		SELECT inspection_id, checklist_item_id, position, stored_path
		FROM response_photos WHERE inspection_id = $1
		ORDER BY checklist_item_id, position
	`

	rows, err := r.db.QueryContext(ctx, query, inspectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.PhotoRecord
	for rows.Next() {
		var rec models.PhotoRecord
		if err := rows.Scan(
			&rec.InspectionID,
			&rec.ChecklistItemID,
			&rec.Position,
			&rec.StoredPath,
		); err != nil {
			return nil, err
		}
		records = append(records, &rec)
	}

	if records == nil {
		records = []*models.PhotoRecord{}
	}

	return records, rows.Err()
}
