package models

import "time"

// Result is an inspector's answer for a checklist item.
// The empty string means "not answered yet".
type Result string

const (
	ResultNone Result = ""
	ResultPass Result = "pass"
	ResultFail Result = "fail"
)

// Valid reports whether r is an answerable result value
func (r Result) Valid() bool {
	return r == ResultPass || r == ResultFail
}

// Response is one checklist item's answer within one inspection.
// Unique key: (InspectionID, ChecklistItemID).
type Response struct {
	InspectionID    string    `json:"inspectionId"`
	ChecklistItemID string    `json:"checklistItemId"`
	Result          Result    `json:"result"`
	Comment         string    `json:"comment"`
	PhotoRefs       []string  `json:"photoRefs"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// PhotoRecord is one stored photo attached to a response, ordered by Position
type PhotoRecord struct {
	InspectionID    string `json:"inspectionId"`
	ChecklistItemID string `json:"checklistItemId"`
	Position        int    `json:"position"`
	StoredPath      string `json:"storedPath"`
}
