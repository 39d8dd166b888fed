package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facilityinspect/server/internal/models"
)

func TestDraftCache(t *testing.T) {
	ctx := context.Background()

	seedDraft := func(t *testing.T) *DraftStore {
		t.Helper()
		store := NewDraftStore()
		require.NoError(t, store.Init("insp-1", "space-1", []string{"item-1", "item-2"}))
		require.NoError(t, store.SetResult("item-1", models.ResultFail))
		require.NoError(t, store.SetComment("item-1", "water damage"))
		require.NoError(t, store.AddPhoto("item-1", "photos/x.jpg"))
		return store
	}

	t.Run("save then restore round-trips the draft", func(t *testing.T) {
		cache := NewDraftCache(NewMemoryKVStore(), time.Hour)
		require.NoError(t, cache.Save(ctx, seedDraft(t)))

		restored := NewDraftStore()
		found, err := cache.Restore(ctx, "space-1", restored)
		require.NoError(t, err)
		require.True(t, found)

		assert.Equal(t, "insp-1", restored.InspectionID())
		assert.Equal(t, "space-1", restored.SpaceID())

		snapshot := restored.Snapshot()
		require.Len(t, snapshot, 2)
		assert.Equal(t, models.ResultFail, snapshot[0].Result)
		assert.Equal(t, "water damage", snapshot[0].Comment)
		assert.Equal(t, []string{"photos/x.jpg"}, snapshot[0].PhotoRefs)
		assert.Equal(t, models.ResultNone, snapshot[1].Result)

		assert.True(t, restored.Dirty(), "restored answers are unsynced")
	})

	t.Run("restore misses for unknown space", func(t *testing.T) {
		cache := NewDraftCache(NewMemoryKVStore(), time.Hour)

		store := NewDraftStore()
		found, err := cache.Restore(ctx, "space-nope", store)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("drop removes the cached draft", func(t *testing.T) {
		cache := NewDraftCache(NewMemoryKVStore(), time.Hour)
		require.NoError(t, cache.Save(ctx, seedDraft(t)))
		require.NoError(t, cache.Drop(ctx, "space-1"))

		store := NewDraftStore()
		found, err := cache.Restore(ctx, "space-1", store)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("newer save supersedes older one", func(t *testing.T) {
		cache := NewDraftCache(NewMemoryKVStore(), time.Hour)

		store := seedDraft(t)
		require.NoError(t, cache.Save(ctx, store))
		require.NoError(t, store.SetResult("item-2", models.ResultPass))
		require.NoError(t, cache.Save(ctx, store))

		restored := NewDraftStore()
		found, err := cache.Restore(ctx, "space-1", restored)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, models.ResultPass, restored.Snapshot()[1].Result)
	})
}

func TestWriteAheadLog(t *testing.T) {
	t.Run("replace and reload survive reopen", func(t *testing.T) {
		dir := t.TempDir()

		wal, err := OpenWriteAheadLog(dir, "insp-1")
		require.NoError(t, err)
		assert.Empty(t, wal.Entries())

		entries := []PendingUpsert{
			{InspectionID: "insp-1", ChecklistItemID: "item-1", Result: models.ResultPass, QueuedAt: time.Now().UTC()},
			{InspectionID: "insp-1", ChecklistItemID: "item-2", Result: models.ResultFail, Comment: "leak", QueuedAt: time.Now().UTC()},
		}
		require.NoError(t, wal.Replace(entries))

		reopened, err := OpenWriteAheadLog(dir, "insp-1")
		require.NoError(t, err)
		assert.Len(t, reopened.Entries(), 2)
	})

	t.Run("truncate clears disk and memory", func(t *testing.T) {
		dir := t.TempDir()

		wal, err := OpenWriteAheadLog(dir, "insp-1")
		require.NoError(t, err)
		require.NoError(t, wal.Replace([]PendingUpsert{
			{InspectionID: "insp-1", ChecklistItemID: "item-1", Result: models.ResultPass},
		}))
		require.NoError(t, wal.Truncate())

		assert.Empty(t, wal.Entries())

		reopened, err := OpenWriteAheadLog(dir, "insp-1")
		require.NoError(t, err)
		assert.Empty(t, reopened.Entries())
	})
}
