package repository

import (
	"context"

	"github.com/facilityinspect/server/internal/models"
)

// ChecklistItemRepository reads checklist template items. Authoring happens
// elsewhere; this side only seeds and reads frozen template versions.
type ChecklistItemRepository struct {
	db DB
}

// NewChecklistItemRepository creates a new ChecklistItemRepository
func NewChecklistItemRepository(db DB) *ChecklistItemRepository {
	return &ChecklistItemRepository{db: db}
}

// ListForTemplateVersion retrieves the items of one template version in order
func (r *ChecklistItemRepository) ListForTemplateVersion(ctx context.Context, templateID string, version int) ([]models.ChecklistItem, error) {
	query := `
		SELECT id, template_id, template_version, text, photo_required, sort_order
		FROM checklist_items WHERE template_id = $1 AND template_version = $2
		ORDER BY sort_order
	`

	rows, err := r.db.QueryContext(ctx, query, templateID, version)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.ChecklistItem
	for rows.Next() {
		var item models.ChecklistItem
		if err := rows.Scan(
			&item.ID,
			&item.TemplateID,
			&item.TemplateVersion,
			&item.Text,
			&item.PhotoRequired,
			&item.SortOrder,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if items == nil {
		items = []models.ChecklistItem{}
	}

	return items, rows.Err()
}

// Add inserts a checklist item
func (r *ChecklistItemRepository) Add(ctx context.Context, item *models.ChecklistItem) error {
	query := `
		INSERT INTO checklist_items (id, template_id, template_version, text, photo_required, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		item.ID,
		item.TemplateID,
		item.TemplateVersion,
		item.Text,
		item.PhotoRequired,
		item.SortOrder,
	)

	return err
}
