package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facilityinspect/server/internal/models"
)

func TestDraftStore(t *testing.T) {
	newDraft := func(t *testing.T) *DraftStore {
		t.Helper()
		store := NewDraftStore()
		require.NoError(t, store.Init("insp-1", "space-1", []string{"item-1", "item-2", "item-3"}))
		return store
	}

	t.Run("init seeds one empty answer per item", func(t *testing.T) {
		store := newDraft(t)

		snapshot := store.Snapshot()
		require.Len(t, snapshot, 3)
		for _, answer := range snapshot {
			assert.Equal(t, models.ResultNone, answer.Result)
			assert.Empty(t, answer.Comment)
			assert.Empty(t, answer.PhotoRefs)
		}
		assert.False(t, store.Dirty())
		assert.Len(t, store.Unanswered(), 3)
	})

	t.Run("double init fails", func(t *testing.T) {
		store := newDraft(t)
		err := store.Init("insp-2", "space-2", []string{"item-9"})
		assert.ErrorIs(t, err, ErrAlreadyInitialized)
	})

	t.Run("mutations set dirty", func(t *testing.T) {
		store := newDraft(t)

		require.NoError(t, store.SetResult("item-1", models.ResultPass))
		assert.True(t, store.Dirty())

		store.MarkClean()
		assert.False(t, store.Dirty())

		require.NoError(t, store.SetComment("item-1", "looks fine"))
		assert.True(t, store.Dirty())
	})

	t.Run("unknown item rejected", func(t *testing.T) {
		store := newDraft(t)
		assert.ErrorIs(t, store.SetResult("bogus", models.ResultFail), ErrUnknownItem)
		assert.ErrorIs(t, store.SetComment("bogus", "x"), ErrUnknownItem)
		assert.ErrorIs(t, store.AddPhoto("bogus", "ref"), ErrUnknownItem)
	})

	t.Run("downgrading fail keeps comment and photos", func(t *testing.T) {
		store := newDraft(t)

		require.NoError(t, store.SetResult("item-2", models.ResultFail))
		require.NoError(t, store.SetComment("item-2", "cracked tile"))
		require.NoError(t, store.AddPhoto("item-2", "photos/a.jpg"))

		require.NoError(t, store.SetResult("item-2", models.ResultPass))

		snapshot := store.Snapshot()
		assert.Equal(t, models.ResultPass, snapshot[1].Result)
		assert.Equal(t, "cracked tile", snapshot[1].Comment)
		assert.Equal(t, []string{"photos/a.jpg"}, snapshot[1].PhotoRefs)
	})

	t.Run("photo order is preserved and removal keeps order", func(t *testing.T) {
		store := newDraft(t)

		require.NoError(t, store.AddPhoto("item-1", "a.jpg"))
		require.NoError(t, store.AddPhoto("item-1", "b.jpg"))
		require.NoError(t, store.AddPhoto("item-1", "c.jpg"))
		require.NoError(t, store.RemovePhoto("item-1", "b.jpg"))

		snapshot := store.Snapshot()
		assert.Equal(t, []string{"a.jpg", "c.jpg"}, snapshot[0].PhotoRefs)
	})

	t.Run("unanswered shrinks as results land", func(t *testing.T) {
		store := newDraft(t)

		require.NoError(t, store.SetResult("item-1", models.ResultPass))
		require.NoError(t, store.SetResult("item-3", models.ResultFail))

		assert.Equal(t, []string{"item-2"}, store.Unanswered())
	})

	t.Run("reset clears everything", func(t *testing.T) {
		store := newDraft(t)
		require.NoError(t, store.SetResult("item-1", models.ResultPass))

		store.Reset()

		assert.False(t, store.Dirty())
		assert.Empty(t, store.Snapshot())
		require.NoError(t, store.Init("insp-2", "space-1", []string{"item-1"}))
	})

	t.Run("snapshot is a copy", func(t *testing.T) {
		store := newDraft(t)
		require.NoError(t, store.AddPhoto("item-1", "a.jpg"))

		snapshot := store.Snapshot()
		snapshot[0].PhotoRefs[0] = "tampered"
		snapshot[0].Comment = "tampered"

		fresh := store.Snapshot()
		assert.Equal(t, "a.jpg", fresh[0].PhotoRefs[0])
		assert.Empty(t, fresh[0].Comment)
	})
}
