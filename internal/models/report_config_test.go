package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCadence(t *testing.T) {
	t.Run("parses daily", func(t *testing.T) {
		c, err := ParseCadence("daily")
		require.NoError(t, err)
		assert.Equal(t, CadenceDaily, c.Kind)
		assert.Equal(t, 0, c.Day)
	})

	t.Run("parses weekly with weekday", func(t *testing.T) {
		c, err := ParseCadence("weekly:1")
		require.NoError(t, err)
		assert.Equal(t, CadenceWeekly, c.Kind)
		assert.Equal(t, 1, c.Day)
	})

	t.Run("parses biweekly with weekday", func(t *testing.T) {
		c, err := ParseCadence("biweekly:6")
		require.NoError(t, err)
		assert.Equal(t, CadenceBiweekly, c.Kind)
		assert.Equal(t, 6, c.Day)
	})

	t.Run("parses monthly with day of month", func(t *testing.T) {
		c, err := ParseCadence("monthly:15")
		require.NoError(t, err)
		assert.Equal(t, CadenceMonthly, c.Kind)
		assert.Equal(t, 15, c.Day)
	})

	t.Run("rejects bad descriptors", func(t *testing.T) {
		bad := []string{
			"",
			"hourly",
			"daily:1",
			"weekly",
			"weekly:7",
			"weekly:-1",
			"weekly:mon",
			"monthly:0",
			"monthly:29",
			"monthly:31",
		}

		for _, s := range bad {
			_, err := ParseCadence(s)
			assert.ErrorIs(t, err, ErrInvalidCadence, "descriptor %q should be rejected", s)
		}
	})

	t.Run("round-trips through String", func(t *testing.T) {
		for _, s := range []string{"daily", "weekly:1", "biweekly:3", "monthly:28"} {
			c, err := ParseCadence(s)
			require.NoError(t, err)
			assert.Equal(t, s, c.String())
		}
	})
}
