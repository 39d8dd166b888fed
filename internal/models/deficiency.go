package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DeficiencyStatus is the remediation lifecycle state of a deficiency
type DeficiencyStatus string

const (
	DeficiencyOpen       DeficiencyStatus = "open"
	DeficiencyInProgress DeficiencyStatus = "in_progress"
	DeficiencyClosed     DeficiencyStatus = "closed"
)

// Deficiency is a tracked failed-item record derived at completion time.
// Number is sequential per space, format DEF-0001.
type Deficiency struct {
	ID              string           `json:"id"`
	Number          string           `json:"number"`
	SpaceID         string           `json:"spaceId"`
	InspectionID    string           `json:"inspectionId"`
	ChecklistItemID string           `json:"checklistItemId"`
	Status          DeficiencyStatus `json:"status"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// FormatDeficiencyNumber renders the per-space sequence as a display number
func FormatDeficiencyNumber(seq int) string {
	return fmt.Sprintf("DEF-%04d", seq)
}

// NewDeficiency creates an open deficiency linked back to its originating response
func NewDeficiency(spaceID, inspectionID, checklistItemID string, seq int) *Deficiency {
	return &Deficiency{
		ID:              uuid.New().String(),
		Number:          FormatDeficiencyNumber(seq),
		SpaceID:         spaceID,
		InspectionID:    inspectionID,
		ChecklistItemID: checklistItemID,
		Status:          DeficiencyOpen,
		CreatedAt:       time.Now().UTC(),
	}
}

// ErrDuplicateDeficiencyNumber is returned by repositories when the per-space
// (space_id, number) uniqueness constraint is violated. The completion
// transaction retries with a fresh count.
var ErrDuplicateDeficiencyNumber = InspectionError{"deficiency number already taken for space"}
