package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/facilityinspect/server/internal/models"
)

// ReportConfigRepository handles report directive persistence. Cadence is
// stored in its descriptor form and parsed once on read.
type ReportConfigRepository struct {
	db DB
}

// NewReportConfigRepository creates a new ReportConfigRepository
func NewReportConfigRepository(db DB) *ReportConfigRepository {
	return &ReportConfigRepository{db: db}
}

// Add inserts a new report config
func (r *ReportConfigRepository) Add(ctx context.Context, config *models.ReportConfig) error {
	query := `
		INSERT INTO report_configs (id, org_id, building_id, trigger_type, cadence, enabled, last_sent_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		config.ID,
		config.OrgID,
		config.BuildingID,
		config.TriggerType,
		config.Cadence.String(),
		config.Enabled,
		config.LastSentAt,
		config.CreatedAt,
	)

	return err
}

// Update rewrites a report config
func (r *ReportConfigRepository) Update(ctx context.Context, config *models.ReportConfig) error {
	query := `
		UPDATE report_configs SET trigger_type = $1, cadence = $2, enabled = $3, last_sent_at = $4
		WHERE id = $5
	`

	_, err := r.db.ExecContext(ctx, query,
		config.TriggerType,
		config.Cadence.String(),
		config.Enabled,
		config.LastSentAt,
		config.ID,
	)

	return err
}

// GetByID retrieves a report config by its ID
func (r *ReportConfigRepository) GetByID(ctx context.Context, id string) (*models.ReportConfig, error) {
	query := `
		SELECT id, org_id, building_id, trigger_type, cadence, enabled, last_sent_at, created_at
		FROM report_configs WHERE id = $1
	`

	return scanReportConfig(r.db.QueryRowContext(ctx, query, id))
}

// ListScheduledEnabled retrieves all enabled schedule-triggered configs for a
// due-check evaluation pass
func (r *ReportConfigRepository) ListScheduledEnabled(ctx context.Context) ([]*models.ReportConfig, error) {
	query := `
		SELECT id, org_id, building_id, trigger_type, cadence, enabled, last_sent_at, created_at
		FROM report_configs WHERE enabled = $1 AND trigger_type = $2
	`

	return r.list(ctx, query, true, models.TriggerScheduled)
}

// ListOnCompletionForBuilding retrieves enabled on_completion configs for a building
func (r *ReportConfigRepository) ListOnCompletionForBuilding(ctx context.Context, buildingID string) ([]*models.ReportConfig, error) {
	query := `
		SELECT id, org_id, building_id, trigger_type, cadence, enabled, last_sent_at, created_at
		FROM report_configs WHERE enabled = $1 AND trigger_type = $2 AND building_id = $3
	`

	return r.list(ctx, query, true, models.TriggerOnCompletion, buildingID)
}

// MarkSent records a delivery
func (r *ReportConfigRepository) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE report_configs SET last_sent_at = $1 WHERE id = $2",
		sentAt, id,
	)
	return err
}

func (r *ReportConfigRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.ReportConfig, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []*models.ReportConfig
	for rows.Next() {
		cfg, err := scanReportConfigRow(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}

	if configs == nil {
		configs = []*models.ReportConfig{}
	}

	return configs, rows.Err()
}

func scanReportConfig(row *sql.Row) (*models.ReportConfig, error) {
	var cfg models.ReportConfig
	var cadence string
	err := row.Scan(
		&cfg.ID,
		&cfg.OrgID,
		&cfg.BuildingID,
		&cfg.TriggerType,
		&cadence,
		&cfg.Enabled,
		&cfg.LastSentAt,
		&cfg.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	// An unparseable stored descriptor leaves an invalid cadence, which the
	// evaluator treats as never due.
	cfg.Cadence, _ = models.ParseCadence(cadence)
	return &cfg, nil
}

func scanReportConfigRow(rows *sql.Rows) (*models.ReportConfig, error) {
	var cfg models.ReportConfig
	var cadence string
	if err := rows.Scan(
		&cfg.ID,
		&cfg.OrgID,
		&cfg.BuildingID,
		&cfg.TriggerType,
		&cadence,
		&cfg.Enabled,
		&cfg.LastSentAt,
		&cfg.CreatedAt,
	); err != nil {
		return nil, err
	}

	cfg.Cadence, _ = models.ParseCadence(cadence)
	return &cfg, nil
}
