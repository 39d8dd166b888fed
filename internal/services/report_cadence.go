package services

import (
	"time"

	"github.com/facilityinspect/server/internal/models"
)

// Elapsed-time floors keep a report from double-firing when the evaluator is
// invoked repeatedly within the same qualifying day.
const (
	weeklyFloor   = 6 * 24 * time.Hour
	biweeklyFloor = 13 * 24 * time.Hour
	monthlyFloor  = 27 * 24 * time.Hour
)

// IsDue decides whether a scheduled report is due now. Pure; designed to be
// invoked far more often than the cadence itself (per minute or hour) and
// still fire at most once per qualifying window.
func IsDue(cadence models.Cadence, lastSent *time.Time, now time.Time) bool {
	switch cadence.Kind {
	case models.CadenceDaily:
		if lastSent == nil {
			return true
		}
		startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		return lastSent.Before(startOfToday)

	case models.CadenceWeekly:
		return int(now.Weekday()) == cadence.Day && pastFloor(lastSent, now, weeklyFloor)

	case models.CadenceBiweekly:
		return int(now.Weekday()) == cadence.Day && pastFloor(lastSent, now, biweeklyFloor)

	case models.CadenceMonthly:
		return now.Day() == cadence.Day && pastFloor(lastSent, now, monthlyFloor)
	}

	// Unrecognized cadence: never due
	return false
}

func pastFloor(lastSent *time.Time, now time.Time, floor time.Duration) bool {
	return lastSent == nil || now.Sub(*lastSent) > floor
}
