package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskSource distinguishes auto-created remediation tasks from manual ones
type TaskSource string

const (
	TaskSourceAuto   TaskSource = "auto"
	TaskSourceManual TaskSource = "manual"
)

// Task is a remediation work item, auto-created 1:1 with a new deficiency
// at completion time or created manually by a user.
type Task struct {
	ID           string     `json:"id"`
	DeficiencyID string     `json:"deficiencyId"`
	SpaceID      string     `json:"spaceId"`
	Description  string     `json:"description"`
	Source       TaskSource `json:"source"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// NewAutoTask creates the remediation task for a freshly derived deficiency.
// Description combines the checklist item text with the inspector's comment,
// falling back to "Failed inspection" when no comment was left.
func NewAutoTask(deficiency *Deficiency, itemText, inspectorComment string) *Task {
	detail := strings.TrimSpace(inspectorComment)
	if detail == "" {
		detail = "Failed inspection"
	}

	description := detail
	if itemText = strings.TrimSpace(itemText); itemText != "" {
		description = itemText + ": " + detail
	}

	return &Task{
		ID:           uuid.New().String(),
		DeficiencyID: deficiency.ID,
		SpaceID:      deficiency.SpaceID,
		Description:  description,
		Source:       TaskSourceAuto,
		CreatedAt:    time.Now().UTC(),
	}
}
