package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/facilityinspect/server/internal/models"
)

// DB is the query surface the repositories need. Satisfied by *sql.DB and by
// the traced wrapper in observability, so main can swap one in for the other.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// InspectionRepo defines the interface for inspection persistence operations
type InspectionRepo interface {
	Add(ctx context.Context, inspection *models.Inspection) error
	GetByID(ctx context.Context, id string) (*models.Inspection, error)
	GetOpenForSpace(ctx context.Context, spaceID string) (*models.Inspection, error)
	MarkCompleted(ctx context.Context, id string, completedAt time.Time) error
	ListForBuilding(ctx context.Context, buildingID string, limit int) ([]*models.Inspection, error)
	CountOpenForBuilding(ctx context.Context, buildingID string) (int, error)
}

// ResponseRepo defines upsert-by-key persistence for answers and their photos
type ResponseRepo interface {
	Upsert(ctx context.Context, response *models.Response) error
	GetForInspection(ctx context.Context, inspectionID string) ([]*models.Response, error)
	UpsertPhoto(ctx context.Context, record *models.PhotoRecord) error
	DeletePhotosFrom(ctx context.Context, inspectionID, checklistItemID string, position int) error
	GetPhotos(ctx context.Context, inspectionID string) ([]*models.PhotoRecord, error)
}

// ChecklistItemRepo reads checklist template items
type ChecklistItemRepo interface {
	ListForTemplateVersion(ctx context.Context, templateID string, version int) ([]models.ChecklistItem, error)
	Add(ctx context.Context, item *models.ChecklistItem) error
}

// DeficiencyRepo defines insert-only persistence for derived deficiencies
type DeficiencyRepo interface {
	Add(ctx context.Context, deficiency *models.Deficiency) error
	GetByResponse(ctx context.Context, inspectionID, checklistItemID string) (*models.Deficiency, error)
	CountForSpace(ctx context.Context, spaceID string) (int, error)
	ListForInspection(ctx context.Context, inspectionID string) ([]*models.Deficiency, error)
}

// TaskRepo defines insert-only persistence for remediation tasks
type TaskRepo interface {
	Add(ctx context.Context, task *models.Task) error
	ListForDeficiency(ctx context.Context, deficiencyID string) ([]*models.Task, error)
}

// ScheduleRepo defines persistence for recurring inspection schedules
type ScheduleRepo interface {
	Add(ctx context.Context, schedule *models.InspectionSchedule) error
	Update(ctx context.Context, schedule *models.InspectionSchedule) error
	GetByID(ctx context.Context, id string) (*models.InspectionSchedule, error)
	ListDue(ctx context.Context, asOf time.Time) ([]*models.InspectionSchedule, error)
	MarkTriggered(ctx context.Context, id string, triggeredAt, nextDueAt time.Time) error
}

// ReportConfigRepo defines persistence for report directives
type ReportConfigRepo interface {
	Add(ctx context.Context, config *models.ReportConfig) error
	Update(ctx context.Context, config *models.ReportConfig) error
	GetByID(ctx context.Context, id string) (*models.ReportConfig, error)
	ListScheduledEnabled(ctx context.Context) ([]*models.ReportConfig, error)
	ListOnCompletionForBuilding(ctx context.Context, buildingID string) ([]*models.ReportConfig, error)
	MarkSent(ctx context.Context, id string, sentAt time.Time) error
}

// UserRepo defines the interface for user lookup
type UserRepo interface {
	Add(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByAPIKeyHash(ctx context.Context, keyHash string) (*models.User, error)
}
