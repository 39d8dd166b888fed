package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facilityinspect/server/internal/models"
)

func newCompletionFixture(t *testing.T) (*CompletionService, *fakeInspectionRepo, *fakeResponseRepo, *fakeDeficiencyRepo, *fakeTaskRepo, *models.Inspection, *DraftStore) {
	t.Helper()

	inspections := newFakeInspectionRepo()
	responses := newFakeResponseRepo()
	deficiencies := &fakeDeficiencyRepo{}
	tasks := &fakeTaskRepo{}
	items := &fakeChecklistItemRepo{
		items: []models.ChecklistItem{
			{ID: "item-1", TemplateID: "tpl-1", TemplateVersion: 1, Text: "Fire extinguisher present"},
			{ID: "item-2", TemplateID: "tpl-1", TemplateVersion: 1, Text: "Exit signs illuminated"},
			{ID: "item-3", TemplateID: "tpl-1", TemplateVersion: 1, Text: "Floor clear of hazards"},
			{ID: "item-4", TemplateID: "tpl-1", TemplateVersion: 1, Text: "First aid kit stocked"},
			{ID: "item-5", TemplateID: "tpl-1", TemplateVersion: 1, Text: "Emergency lighting works"},
		},
	}

	inspection, err := models.NewInspection("org-1", "bld-1", "space-1", "user-1", "tpl-1", 1)
	require.NoError(t, err)
	require.NoError(t, inspections.Add(context.Background(), inspection))

	draft := NewDraftStore()
	require.NoError(t, draft.Init(inspection.ID, "space-1", []string{"item-1", "item-2", "item-3", "item-4", "item-5"}))

	svc := NewCompletionService(inspections, responses, items, deficiencies, tasks, nil)
	return svc, inspections, responses, deficiencies, tasks, inspection, draft
}

func TestComplete(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects incomplete submission", func(t *testing.T) {
		svc, inspections, _, _, _, inspection, draft := newCompletionFixture(t)

		require.NoError(t, draft.SetResult("item-1", models.ResultPass))
		require.NoError(t, draft.SetResult("item-2", models.ResultPass))

		err := svc.Complete(ctx, inspection, draft)

		var incomplete IncompleteSubmissionError
		require.ErrorAs(t, err, &incomplete)
		assert.Equal(t, 3, incomplete.Count)

		stored, err := inspections.GetByID(ctx, inspection.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusInProgress, stored.Status)
	})

	t.Run("fans out deficiencies and tasks for failed items", func(t *testing.T) {
		svc, inspections, responses, deficiencies, tasks, inspection, draft := newCompletionFixture(t)

		for _, id := range []string{"item-1", "item-3", "item-5"} {
			require.NoError(t, draft.SetResult(id, models.ResultPass))
		}
		require.NoError(t, draft.SetResult("item-2", models.ResultFail))
		require.NoError(t, draft.SetComment("item-2", "bulb burned out"))
		require.NoError(t, draft.SetResult("item-4", models.ResultFail))

		require.NoError(t, svc.Complete(ctx, inspection, draft))

		stored, err := inspections.GetByID(ctx, inspection.ID)
		require.NoError(t, err)
		assert.True(t, stored.IsCompleted())

		assert.Equal(t, 5, responses.count())

		require.Len(t, deficiencies.deficiencies, 2)
		numbers := map[string]bool{}
		for _, d := range deficiencies.deficiencies {
			numbers[d.Number] = true
			assert.Equal(t, models.DeficiencyOpen, d.Status)
			assert.Equal(t, "space-1", d.SpaceID)
		}
		assert.Len(t, numbers, 2, "deficiency numbers must be distinct")
		assert.True(t, numbers["DEF-0001"])
		assert.True(t, numbers["DEF-0002"])

		require.Len(t, tasks.tasks, 2)
		descriptions := map[string]bool{}
		for _, task := range tasks.tasks {
			descriptions[task.Description] = true
			assert.Equal(t, models.TaskSourceAuto, task.Source)
		}
		assert.True(t, descriptions["Exit signs illuminated: bulb burned out"])
		assert.True(t, descriptions["First aid kit stocked: Failed inspection"])

		assert.False(t, draft.Dirty())
		assert.Empty(t, draft.Snapshot(), "draft is reset after completion")
	})

	t.Run("retried completion does not duplicate fan-out", func(t *testing.T) {
		svc, _, _, deficiencies, tasks, inspection, draft := newCompletionFixture(t)

		for _, id := range []string{"item-1", "item-2", "item-3", "item-4"} {
			require.NoError(t, draft.SetResult(id, models.ResultPass))
		}
		require.NoError(t, draft.SetResult("item-5", models.ResultFail))

		require.NoError(t, svc.Complete(ctx, inspection, draft))
		require.Len(t, deficiencies.deficiencies, 1)

		// Simulate a client retry that replays the same draft
		retry := NewDraftStore()
		require.NoError(t, retry.Init(inspection.ID, "space-1", []string{"item-1", "item-2", "item-3", "item-4", "item-5"}))
		for _, id := range []string{"item-1", "item-2", "item-3", "item-4"} {
			require.NoError(t, retry.SetResult(id, models.ResultPass))
		}
		require.NoError(t, retry.SetResult("item-5", models.ResultFail))

		inspection.Status = models.StatusInProgress
		inspection.CompletedAt = nil
		require.NoError(t, svc.Complete(ctx, inspection, retry))

		assert.Len(t, deficiencies.deficiencies, 1)
		assert.Len(t, tasks.tasks, 1)
	})

	t.Run("retries numbering on conflict", func(t *testing.T) {
		svc, _, _, deficiencies, _, inspection, draft := newCompletionFixture(t)
		deficiencies.conflicts = 2

		for _, id := range []string{"item-1", "item-2", "item-3", "item-4"} {
			require.NoError(t, draft.SetResult(id, models.ResultPass))
		}
		require.NoError(t, draft.SetResult("item-5", models.ResultFail))

		require.NoError(t, svc.Complete(ctx, inspection, draft))
		require.Len(t, deficiencies.deficiencies, 1)
	})

	t.Run("rejects already completed inspection", func(t *testing.T) {
		svc, _, _, _, _, inspection, draft := newCompletionFixture(t)

		now := time.Now().UTC()
		inspection.Status = models.StatusCompleted
		inspection.CompletedAt = &now

		err := svc.Complete(ctx, inspection, draft)
		assert.ErrorIs(t, err, models.ErrAlreadyCompleted)
	})
}

func TestApplyCorrections(t *testing.T) {
	ctx := context.Background()

	completed := func(t *testing.T, completedAt time.Time) (*CompletionService, *fakeResponseRepo, *fakeDeficiencyRepo, *models.Inspection) {
		t.Helper()
		svc, _, responses, deficiencies, _, inspection, _ := newCompletionFixture(t)
		inspection.Status = models.StatusCompleted
		inspection.CompletedAt = &completedAt
		return svc, responses, deficiencies, inspection
	}

	t.Run("re-upserts responses without fan-out", func(t *testing.T) {
		completedAt := time.Now().UTC().AddDate(0, 0, -7)
		svc, responses, deficiencies, inspection := completed(t, completedAt)

		corrections := []DraftAnswer{
			{ChecklistItemID: "item-2", Result: models.ResultFail, Comment: "still broken"},
		}

		admin := models.Actor{ID: "someone-else", Role: models.RoleAdmin}
		require.NoError(t, svc.ApplyCorrections(ctx, inspection, admin, corrections))

		stored := responses.get(inspection.ID, "item-2")
		require.NotNil(t, stored)
		assert.Equal(t, models.ResultFail, stored.Result)
		assert.Equal(t, "still broken", stored.Comment)

		assert.Empty(t, deficiencies.deficiencies, "corrections never create deficiencies")
		assert.Equal(t, models.StatusCompleted, inspection.Status)
	})

	t.Run("shrinking the photo list removes stale tail records", func(t *testing.T) {
		completedAt := time.Now().UTC().AddDate(0, 0, -1)
		svc, responses, _, inspection := completed(t, completedAt)

		admin := models.Actor{ID: "admin-1", Role: models.RoleAdmin}
		require.NoError(t, svc.ApplyCorrections(ctx, inspection, admin, []DraftAnswer{
			{ChecklistItemID: "item-3", Result: models.ResultFail, PhotoRefs: []string{"photos/a.jpg", "photos/b.jpg", "photos/c.jpg"}},
		}))
		require.Len(t, responses.photosFor(inspection.ID, "item-3"), 3)

		require.NoError(t, svc.ApplyCorrections(ctx, inspection, admin, []DraftAnswer{
			{ChecklistItemID: "item-3", Result: models.ResultFail, PhotoRefs: []string{"photos/a.jpg"}},
		}))

		remaining := responses.photosFor(inspection.ID, "item-3")
		require.Len(t, remaining, 1)
		assert.Equal(t, 0, remaining[0].Position)
		assert.Equal(t, "photos/a.jpg", remaining[0].StoredPath)
	})

	t.Run("denies outside the edit window as not found", func(t *testing.T) {
		completedAt := time.Now().UTC().AddDate(0, -4, 0)
		svc, _, _, inspection := completed(t, completedAt)

		admin := models.Actor{ID: "admin-1", Role: models.RoleAdmin}
		err := svc.ApplyCorrections(ctx, inspection, admin, nil)
		assert.ErrorIs(t, err, models.ErrInspectionNotFound)
	})

	t.Run("denies unrelated inspector as not found", func(t *testing.T) {
		completedAt := time.Now().UTC().AddDate(0, 0, -1)
		svc, _, _, inspection := completed(t, completedAt)

		other := models.Actor{ID: "other-user", Role: models.RoleInspector}
		err := svc.ApplyCorrections(ctx, inspection, other, nil)
		assert.ErrorIs(t, err, models.ErrInspectionNotFound)
	})
}
