package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAutoTask(t *testing.T) {
	def := NewDeficiency("space-1", "insp-1", "item-1", 3)

	t.Run("combines item text and inspector comment", func(t *testing.T) {
		task := NewAutoTask(def, "Fire extinguisher present", "missing from bracket")

		assert.Equal(t, "Fire extinguisher present: missing from bracket", task.Description)
		assert.Equal(t, TaskSourceAuto, task.Source)
		assert.Equal(t, def.ID, task.DeficiencyID)
		assert.Equal(t, def.SpaceID, task.SpaceID)
	})

	t.Run("falls back when comment is empty", func(t *testing.T) {
		task := NewAutoTask(def, "Exit signs illuminated", "   ")
		assert.Equal(t, "Exit signs illuminated: Failed inspection", task.Description)
	})

	t.Run("works without item text", func(t *testing.T) {
		task := NewAutoTask(def, "", "")
		assert.Equal(t, "Failed inspection", task.Description)
	})
}

func TestNewDeficiency(t *testing.T) {
	t.Run("formats sequential number", func(t *testing.T) {
		def := NewDeficiency("space-1", "insp-1", "item-1", 1)
		assert.Equal(t, "DEF-0001", def.Number)
		assert.Equal(t, DeficiencyOpen, def.Status)
	})

	t.Run("pads to four digits", func(t *testing.T) {
		assert.Equal(t, "DEF-0042", FormatDeficiencyNumber(42))
		assert.Equal(t, "DEF-1234", FormatDeficiencyNumber(1234))
	})
}

func TestNewInspection(t *testing.T) {
	t.Run("creates in-progress inspection", func(t *testing.T) {
		insp, err := NewInspection("org-1", "bld-1", "space-1", "user-1", "tpl-1", 2)

		require.NoError(t, err)
		assert.NotEmpty(t, insp.ID)
		assert.Equal(t, StatusInProgress, insp.Status)
		assert.Equal(t, 2, insp.TemplateVersion)
		assert.Nil(t, insp.CompletedAt)
		assert.False(t, insp.IsCompleted())
	})

	t.Run("rejects empty space id", func(t *testing.T) {
		_, err := NewInspection("org-1", "bld-1", "", "user-1", "tpl-1", 1)
		assert.ErrorIs(t, err, ErrEmptySpaceID)
	})

	t.Run("rejects empty inspector id", func(t *testing.T) {
		_, err := NewInspection("org-1", "bld-1", "space-1", "", "tpl-1", 1)
		assert.ErrorIs(t, err, ErrEmptyInspectorID)
	})

	t.Run("rejects non-positive template version", func(t *testing.T) {
		_, err := NewInspection("org-1", "bld-1", "space-1", "user-1", "tpl-1", 0)
		assert.ErrorIs(t, err, ErrInvalidTemplateVersion)
	})
}
