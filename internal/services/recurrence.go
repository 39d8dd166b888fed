package services

import (
	"strconv"
	"strings"
	"time"

	"github.com/facilityinspect/server/internal/models"
)

// NextDue computes the next due timestamp for a recurring inspection schedule.
// Deterministic, no side effects; the result is always strictly after now so
// a schedule never re-triggers the instant its due time is computed.
//
// anchorWeekday is 0=Sunday..6 (weekly/biweekly), anchorDayOfMonth is clamped
// to 1-28 (monthly) to avoid short-month ambiguity. Biweekly returns the next
// weekly anchor occurrence; Trigger adds the alternate-week gap when it
// advances a fired schedule. An unknown frequency fails closed to one day
// from now: a schedule must always have some future due time.
func NextDue(frequency models.Frequency, anchorWeekday int, anchorDayOfMonth int, timeOfDay string, now time.Time) time.Time {
	hour, minute := parseTimeOfDay(timeOfDay)

	switch frequency {
	case models.FrequencyDaily:
		candidate := at(now, now.Day(), hour, minute)
		if !candidate.After(now) {
			candidate = candidate.AddDate(0, 0, 1)
		}
		return candidate

	case models.FrequencyWeekly, models.FrequencyBiweekly:
		anchor := clampInt(anchorWeekday, 0, 6)
		offset := (anchor - int(now.Weekday()) + 7) % 7
		candidate := at(now, now.Day(), hour, minute).AddDate(0, 0, offset)
		if !candidate.After(now) {
			candidate = candidate.AddDate(0, 0, 7)
		}
		return candidate

	case models.FrequencyMonthly:
		day := clampInt(anchorDayOfMonth, 1, 28)
		candidate := at(now, day, hour, minute)
		if !candidate.After(now) {
			candidate = candidate.AddDate(0, 1, 0)
		}
		return candidate
	}

	// Fail closed rather than erroring
	return now.AddDate(0, 0, 1)
}

// parseTimeOfDay parses "HH:MM", defaulting to midnight on malformed input
func parseTimeOfDay(s string) (hour, minute int) {
	hStr, mStr, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, 0
	}

	h, err := strconv.Atoi(hStr)
	if err != nil || h < 0 || h > 23 {
		return 0, 0
	}
	m, err := strconv.Atoi(mStr)
	if err != nil || m < 0 || m > 59 {
		return 0, 0
	}

	return h, m
}

func at(ref time.Time, day, hour, minute int) time.Time {
	return time.Date(ref.Year(), ref.Month(), day, hour, minute, 0, 0, ref.Location())
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
