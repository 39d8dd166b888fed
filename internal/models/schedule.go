package models

import (
	"time"

	"github.com/google/uuid"
)

// Frequency is how often a recurring inspection schedule fires
type Frequency string

const (
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyMonthly  Frequency = "monthly"
)

// InspectionSchedule is a recurring-inspection directive for one space.
// NextDueAt is cached and recomputed on every create/edit; the invariant is
// that it is strictly in the future at the moment it was computed.
type InspectionSchedule struct {
	ID               string     `json:"id"`
	OrgID            string     `json:"orgId"`
	SpaceID          string     `json:"spaceId"`
	Frequency        Frequency  `json:"frequency"`
	AnchorWeekday    int        `json:"anchorWeekday"`    // 0=Sunday..6, weekly/biweekly only
	AnchorDayOfMonth int        `json:"anchorDayOfMonth"` // 1-28, monthly only
	TimeOfDay        string     `json:"timeOfDay"`        // "HH:MM"
	Enabled          bool       `json:"enabled"`
	NextDueAt        time.Time  `json:"nextDueAt"`
	LastTriggeredAt  *time.Time `json:"lastTriggeredAt,omitempty"`
}

// NewInspectionSchedule creates an enabled schedule. NextDueAt must be filled
// in by the caller via the recurrence calculator before persisting.
func NewInspectionSchedule(orgID, spaceID string, frequency Frequency, anchorWeekday, anchorDayOfMonth int, timeOfDay string) *InspectionSchedule {
	return &InspectionSchedule{
		ID:               uuid.New().String(),
		OrgID:            orgID,
		SpaceID:          spaceID,
		Frequency:        frequency,
		AnchorWeekday:    anchorWeekday,
		AnchorDayOfMonth: anchorDayOfMonth,
		TimeOfDay:        timeOfDay,
		Enabled:          true,
	}
}
