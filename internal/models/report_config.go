package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ReportTrigger is what causes a report to be delivered
type ReportTrigger string

const (
	TriggerScheduled    ReportTrigger = "scheduled"
	TriggerOnCompletion ReportTrigger = "on_completion"
)

// CadenceKind is the recurrence class of a scheduled report
type CadenceKind string

const (
	CadenceDaily    CadenceKind = "daily"
	CadenceWeekly   CadenceKind = "weekly"
	CadenceBiweekly CadenceKind = "biweekly"
	CadenceMonthly  CadenceKind = "monthly"
	CadenceInvalid  CadenceKind = ""
)

// Cadence is the parsed form of a cadence descriptor string. Day carries the
// weekday (0-6) for weekly/biweekly and the day-of-month (1-28) for monthly.
// Descriptors are parsed once at the boundary, never re-parsed per evaluation.
type Cadence struct {
	Kind CadenceKind `json:"kind"`
	Day  int         `json:"day,omitempty"`
}

// ParseCadence parses a descriptor like "daily", "weekly:1", "biweekly:3" or
// "monthly:15". Unrecognized descriptors yield an invalid cadence, which the
// due-check evaluator treats as never due.
func ParseCadence(s string) (Cadence, error) {
	kind, dayStr, hasDay := strings.Cut(strings.TrimSpace(s), ":")

	switch CadenceKind(kind) {
	case CadenceDaily:
		if hasDay {
			return Cadence{}, ErrInvalidCadence
		}
		return Cadence{Kind: CadenceDaily}, nil

	case CadenceWeekly, CadenceBiweekly:
		day, err := strconv.Atoi(dayStr)
		if err != nil || day < 0 || day > 6 {
			return Cadence{}, ErrInvalidCadence
		}
		return Cadence{Kind: CadenceKind(kind), Day: day}, nil

	case CadenceMonthly:
		day, err := strconv.Atoi(dayStr)
		if err != nil || day < 1 || day > 28 {
			return Cadence{}, ErrInvalidCadence
		}
		return Cadence{Kind: CadenceMonthly, Day: day}, nil
	}

	return Cadence{}, ErrInvalidCadence
}

// String renders the cadence back into its descriptor form
func (c Cadence) String() string {
	switch c.Kind {
	case CadenceDaily:
		return string(CadenceDaily)
	case CadenceWeekly, CadenceBiweekly, CadenceMonthly:
		return string(c.Kind) + ":" + strconv.Itoa(c.Day)
	}
	return ""
}

// ReportConfig is a recurring or event-triggered report directive.
// Due-ness is recomputed on every evaluation pass; there is no cached
// next-due value.
type ReportConfig struct {
	ID          string        `json:"id"`
	OrgID       string        `json:"orgId"`
	BuildingID  string        `json:"buildingId"`
	TriggerType ReportTrigger `json:"triggerType"`
	Cadence     Cadence       `json:"cadence"`
	Enabled     bool          `json:"enabled"`
	LastSentAt  *time.Time    `json:"lastSentAt,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// NewReportConfig creates an enabled report config
func NewReportConfig(orgID, buildingID string, trigger ReportTrigger, cadence Cadence) *ReportConfig {
	return &ReportConfig{
		ID:          uuid.New().String(),
		OrgID:       orgID,
		BuildingID:  buildingID,
		TriggerType: trigger,
		Cadence:     cadence,
		Enabled:     true,
		CreatedAt:   time.Now().UTC(),
	}
}

// ErrInvalidCadence is returned for unrecognized cadence descriptors
var ErrInvalidCadence = InspectionError{"unrecognized cadence descriptor"}
