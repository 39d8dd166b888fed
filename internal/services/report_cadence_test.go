package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facilityinspect/server/internal/models"
)

func TestIsDue(t *testing.T) {
	// 2025-06-09 is a Monday
	monday := time.Date(2025, 6, 9, 10, 0, 0, 0, time.UTC)
	tuesday := monday.AddDate(0, 0, 1)

	ts := func(t time.Time) *time.Time { return &t }

	cadence := func(t *testing.T, s string) models.Cadence {
		t.Helper()
		c, err := models.ParseCadence(s)
		require.NoError(t, err)
		return c
	}

	t.Run("daily", func(t *testing.T) {
		daily := cadence(t, "daily")

		assert.True(t, IsDue(daily, nil, monday), "never sent")
		assert.True(t, IsDue(daily, ts(monday.AddDate(0, 0, -1)), monday), "sent yesterday")
		assert.False(t, IsDue(daily, ts(monday.Add(-time.Hour)), monday), "already sent today")
	})

	t.Run("weekly fires on the anchor weekday", func(t *testing.T) {
		weeklyMonday := cadence(t, "weekly:1")

		assert.True(t, IsDue(weeklyMonday, nil, monday))
		assert.False(t, IsDue(weeklyMonday, nil, tuesday), "wrong weekday")
	})

	t.Run("weekly elapsed floor prevents double fire", func(t *testing.T) {
		weeklyMonday := cadence(t, "weekly:1")

		assert.False(t, IsDue(weeklyMonday, ts(monday.AddDate(0, 0, -5)), monday), "sent five days ago")
		assert.True(t, IsDue(weeklyMonday, ts(monday.AddDate(0, 0, -8)), monday), "sent eight days ago")
		assert.False(t, IsDue(weeklyMonday, ts(monday.Add(-time.Hour)), monday), "sent earlier today")
	})

	t.Run("biweekly needs a thirteen day gap", func(t *testing.T) {
		biweeklyMonday := cadence(t, "biweekly:1")

		assert.True(t, IsDue(biweeklyMonday, nil, monday))
		assert.False(t, IsDue(biweeklyMonday, ts(monday.AddDate(0, 0, -7)), monday), "only one week elapsed")
		assert.True(t, IsDue(biweeklyMonday, ts(monday.AddDate(0, 0, -14)), monday))
	})

	t.Run("monthly fires on the anchor day", func(t *testing.T) {
		monthly15 := cadence(t, "monthly:15")
		the15th := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

		assert.True(t, IsDue(monthly15, nil, the15th))
		assert.False(t, IsDue(monthly15, nil, monday), "wrong day of month")
		assert.False(t, IsDue(monthly15, ts(the15th.AddDate(0, 0, -10)), the15th), "only ten days elapsed")
		assert.True(t, IsDue(monthly15, ts(the15th.AddDate(0, -1, 0)), the15th))
	})

	t.Run("invalid cadence is never due", func(t *testing.T) {
		assert.False(t, IsDue(models.Cadence{}, nil, monday))
		assert.False(t, IsDue(models.Cadence{Kind: "hourly"}, nil, monday))
	})
}
