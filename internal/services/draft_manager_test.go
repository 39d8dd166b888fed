package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facilityinspect/server/internal/models"
)

func newManagerFixture(t *testing.T) (*DraftManager, *fakeInspectionRepo, *fakeResponseRepo, *DraftCache) {
	t.Helper()

	inspections := newFakeInspectionRepo()
	responses := newFakeResponseRepo()
	items := &fakeChecklistItemRepo{
		items: []models.ChecklistItem{
			{ID: "item-1", TemplateID: "tpl-1", TemplateVersion: 1, Text: "Door closes"},
			{ID: "item-2", TemplateID: "tpl-1", TemplateVersion: 1, Text: "Lock works"},
		},
	}
	cache := NewDraftCache(NewMemoryKVStore(), time.Hour)

	manager := NewDraftManager(inspections, items, responses, cache, t.TempDir(), time.Hour)
	return manager, inspections, responses, cache
}

func TestDraftManager(t *testing.T) {
	ctx := context.Background()

	t.Run("start seeds a draft from the checklist", func(t *testing.T) {
		manager, _, _, _ := newManagerFixture(t)

		inspection, err := manager.Start(ctx, "org-1", "bld-1", "space-1", "user-1", "tpl-1", 1)
		require.NoError(t, err)
		assert.Equal(t, models.StatusInProgress, inspection.Status)

		session, err := manager.Session(inspection.ID)
		require.NoError(t, err)
		assert.Len(t, session.Store.Snapshot(), 2)
		assert.Len(t, session.Store.Unanswered(), 2)
	})

	t.Run("second start for the same space is rejected", func(t *testing.T) {
		manager, _, _, _ := newManagerFixture(t)

		_, err := manager.Start(ctx, "org-1", "bld-1", "space-1", "user-1", "tpl-1", 1)
		require.NoError(t, err)

		_, err = manager.Start(ctx, "org-1", "bld-1", "space-1", "user-2", "tpl-1", 1)
		assert.ErrorIs(t, err, models.ErrOpenInspectionExists)
	})

	t.Run("mutations go through the session", func(t *testing.T) {
		manager, _, _, _ := newManagerFixture(t)

		inspection, err := manager.Start(ctx, "org-1", "bld-1", "space-1", "user-1", "tpl-1", 1)
		require.NoError(t, err)

		require.NoError(t, manager.SetResult(ctx, inspection.ID, "item-1", models.ResultFail))
		require.NoError(t, manager.SetComment(ctx, inspection.ID, "item-1", "hinge loose"))
		require.NoError(t, manager.AddPhoto(ctx, inspection.ID, "item-1", "photos/a.jpg"))

		session, err := manager.Session(inspection.ID)
		require.NoError(t, err)
		snapshot := session.Store.Snapshot()
		assert.Equal(t, models.ResultFail, snapshot[0].Result)
		assert.Equal(t, "hinge loose", snapshot[0].Comment)
		assert.Equal(t, []string{"photos/a.jpg"}, snapshot[0].PhotoRefs)
	})

	t.Run("open restores the cached draft after a restart", func(t *testing.T) {
		manager, inspections, _, cache := newManagerFixture(t)

		inspection, err := manager.Start(ctx, "org-1", "bld-1", "space-1", "user-1", "tpl-1", 1)
		require.NoError(t, err)
		require.NoError(t, manager.SetResult(ctx, inspection.ID, "item-2", models.ResultPass))

		// Fresh manager over the same cache simulates a process restart
		items := &fakeChecklistItemRepo{
			items: []models.ChecklistItem{
				{ID: "item-1", TemplateID: "tpl-1", TemplateVersion: 1},
				{ID: "item-2", TemplateID: "tpl-1", TemplateVersion: 1},
			},
		}
		restarted := NewDraftManager(inspections, items, newFakeResponseRepo(), cache, t.TempDir(), time.Hour)

		stored, err := inspections.GetByID(ctx, inspection.ID)
		require.NoError(t, err)

		session, err := restarted.Open(ctx, stored)
		require.NoError(t, err)

		snapshot := session.Store.Snapshot()
		assert.Equal(t, models.ResultPass, snapshot[1].Result)
		assert.True(t, session.Store.Dirty(), "restored draft counts as unsynced")
	})

	t.Run("open falls back to persisted responses", func(t *testing.T) {
		manager, inspections, responses, _ := newManagerFixture(t)

		inspection, err := models.NewInspection("org-1", "bld-1", "space-2", "user-1", "tpl-1", 1)
		require.NoError(t, err)
		require.NoError(t, inspections.Add(ctx, inspection))
		require.NoError(t, responses.Upsert(ctx, &models.Response{
			InspectionID:    inspection.ID,
			ChecklistItemID: "item-1",
			Result:          models.ResultFail,
			Comment:         "persisted earlier",
			UpdatedAt:       time.Now().UTC(),
		}))

		session, err := manager.Open(ctx, inspection)
		require.NoError(t, err)

		snapshot := session.Store.Snapshot()
		assert.Equal(t, models.ResultFail, snapshot[0].Result)
		assert.Equal(t, "persisted earlier", snapshot[0].Comment)
		assert.False(t, session.Store.Dirty(), "persisted state is already durable")
	})

	t.Run("open refuses completed inspections", func(t *testing.T) {
		manager, _, _, _ := newManagerFixture(t)

		inspection, err := models.NewInspection("org-1", "bld-1", "space-3", "user-1", "tpl-1", 1)
		require.NoError(t, err)
		now := time.Now().UTC()
		inspection.Status = models.StatusCompleted
		inspection.CompletedAt = &now

		_, err = manager.Open(ctx, inspection)
		assert.ErrorIs(t, err, models.ErrAlreadyCompleted)
	})

	t.Run("discard drops session and cache", func(t *testing.T) {
		manager, _, _, cache := newManagerFixture(t)

		inspection, err := manager.Start(ctx, "org-1", "bld-1", "space-1", "user-1", "tpl-1", 1)
		require.NoError(t, err)
		require.NoError(t, manager.SetResult(ctx, inspection.ID, "item-1", models.ResultPass))

		manager.Discard(ctx, inspection.ID, "space-1")

		_, err = manager.Session(inspection.ID)
		assert.ErrorIs(t, err, ErrNoDraft)

		restored := NewDraftStore()
		found, err := cache.Restore(ctx, "space-1", restored)
		require.NoError(t, err)
		assert.False(t, found)
	})
}
