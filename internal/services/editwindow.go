package services

import (
	"time"

	"github.com/facilityinspect/server/internal/models"
)

// EditWindowMonths is how long after completion an inspection stays correctable
const EditWindowMonths = 3

// CanEdit decides whether a completed inspection may be reopened for
// correction: completed within the last 3 calendar months AND the actor is an
// org admin or the original inspector. Both conditions required, no override.
// Evaluated at the moment of access; callers surface a denial as "not found"
// rather than a permission error.
func CanEdit(inspection *models.Inspection, actor models.Actor, now time.Time) bool {
	if inspection == nil || !inspection.IsCompleted() {
		return false
	}

	cutoff := inspection.CompletedAt.AddDate(0, EditWindowMonths, 0)
	if now.After(cutoff) {
		return false
	}

	return actor.Role == models.RoleAdmin || actor.ID == inspection.InspectorID
}
