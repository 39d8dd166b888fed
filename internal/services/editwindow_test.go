package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facilityinspect/server/internal/models"
)

func TestCanEdit(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	completedInspection := func(completedAt time.Time) *models.Inspection {
		insp, err := models.NewInspection("org-1", "bld-1", "space-1", "inspector-1", "tpl-1", 1)
		require.NoError(t, err)
		insp.Status = models.StatusCompleted
		insp.CompletedAt = &completedAt
		return insp
	}

	admin := models.Actor{ID: "admin-1", Role: models.RoleAdmin}
	originalInspector := models.Actor{ID: "inspector-1", Role: models.RoleInspector}
	otherInspector := models.Actor{ID: "inspector-2", Role: models.RoleInspector}
	viewer := models.Actor{ID: "viewer-1", Role: models.RoleViewer}

	t.Run("admin within window", func(t *testing.T) {
		insp := completedInspection(now.AddDate(0, -1, 0))
		assert.True(t, CanEdit(insp, admin, now))
	})

	t.Run("original inspector within window", func(t *testing.T) {
		insp := completedInspection(now.AddDate(0, -2, 0))
		assert.True(t, CanEdit(insp, originalInspector, now))
	})

	t.Run("other inspector denied even within window", func(t *testing.T) {
		insp := completedInspection(now.AddDate(0, 0, -1))
		assert.False(t, CanEdit(insp, otherInspector, now))
	})

	t.Run("viewer denied", func(t *testing.T) {
		insp := completedInspection(now.AddDate(0, 0, -1))
		assert.False(t, CanEdit(insp, viewer, now))
	})

	t.Run("window is three calendar months inclusive", func(t *testing.T) {
		exactlyThreeMonths := completedInspection(now.AddDate(0, -3, 0))
		assert.True(t, CanEdit(exactlyThreeMonths, admin, now))

		justOver := completedInspection(now.AddDate(0, -3, 0).Add(-time.Second))
		assert.False(t, CanEdit(justOver, admin, now))
	})

	t.Run("admin denied outside window", func(t *testing.T) {
		insp := completedInspection(now.AddDate(0, -4, 0))
		assert.False(t, CanEdit(insp, admin, now))
	})

	t.Run("in-progress inspection is not editable", func(t *testing.T) {
		insp, err := models.NewInspection("org-1", "bld-1", "space-1", "inspector-1", "tpl-1", 1)
		require.NoError(t, err)
		assert.False(t, CanEdit(insp, admin, now))
	})

	t.Run("nil inspection", func(t *testing.T) {
		assert.False(t, CanEdit(nil, admin, now))
	})
}
