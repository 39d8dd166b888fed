package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facilityinspect/server/internal/models"
)

func TestScheduleTrigger(t *testing.T) {
	ctx := context.Background()

	newTriggered := func(t *testing.T, freq models.Frequency) (*models.InspectionSchedule, *fakeScheduleRepo, time.Time) {
		t.Helper()

		repo := newFakeScheduleRepo()
		svc := NewScheduleService(repo)

		anchor := int(time.Now().UTC().Weekday())
		schedule, err := svc.Create(ctx, "org-1", "space-1", freq, anchor, 0, "09:00")
		require.NoError(t, err)

		before := time.Now().UTC()
		require.NoError(t, svc.Trigger(ctx, schedule))
		return schedule, repo, before
	}

	t.Run("weekly advances to the next anchor occurrence", func(t *testing.T) {
		schedule, repo, before := newTriggered(t, models.FrequencyWeekly)

		gap := schedule.NextDueAt.Sub(before)
		assert.True(t, gap > 0, "next due must be in the future")
		assert.True(t, gap <= 7*24*time.Hour+time.Second, "weekly fires at most a week out, got %s", gap)
		assert.Equal(t, time.Weekday(schedule.AnchorWeekday), schedule.NextDueAt.Weekday())

		stored, err := repo.GetByID(ctx, schedule.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.LastTriggeredAt)
		assert.Equal(t, schedule.NextDueAt, stored.NextDueAt)
	})

	t.Run("biweekly sits out the week after firing", func(t *testing.T) {
		schedule, repo, before := newTriggered(t, models.FrequencyBiweekly)

		gap := schedule.NextDueAt.Sub(before)
		assert.True(t, gap > 7*24*time.Hour, "biweekly must skip the coming week, got %s", gap)
		assert.True(t, gap <= 14*24*time.Hour+time.Second, "biweekly fires at most two weeks out, got %s", gap)
		assert.Equal(t, time.Weekday(schedule.AnchorWeekday), schedule.NextDueAt.Weekday())

		stored, err := repo.GetByID(ctx, schedule.ID)
		require.NoError(t, err)
		assert.Equal(t, schedule.NextDueAt, stored.NextDueAt)
	})

	t.Run("create does not add the biweekly gap", func(t *testing.T) {
		repo := newFakeScheduleRepo()
		svc := NewScheduleService(repo)

		anchor := int(time.Now().UTC().Weekday())
		before := time.Now().UTC()
		schedule, err := svc.Create(ctx, "org-1", "space-1", models.FrequencyBiweekly, anchor, 0, "09:00")
		require.NoError(t, err)

		// First occurrence is the next anchor day; the two-week rhythm only
		// starts once the schedule has fired
		assert.True(t, schedule.NextDueAt.Sub(before) <= 7*24*time.Hour+time.Second)
	})
}
