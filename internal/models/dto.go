package models

import "time"

// ErrorResponse is the standard error body
type ErrorResponse struct {
	Error string `json:"error"`
}

// StartInspectionRequest opens a new inspection for a space
type StartInspectionRequest struct {
	OrgID           string `json:"orgId"`
	BuildingID      string `json:"buildingId"`
	SpaceID         string `json:"spaceId"`
	TemplateID      string `json:"templateId"`
	TemplateVersion int    `json:"templateVersion"`
}

// StartInspectionResponse returns the opened inspection plus whether an
// unsynced draft was restored from the persistent cache
type StartInspectionResponse struct {
	Inspection *Inspection     `json:"inspection"`
	Items      []ChecklistItem `json:"items"`
	Restored   bool            `json:"restoredDraft"`
}

// AnswerRequest mutates one checklist item's answer in the open draft
type AnswerRequest struct {
	ChecklistItemID string  `json:"checklistItemId"`
	Result          Result  `json:"result,omitempty"`
	Comment         *string `json:"comment,omitempty"`
}

// DraftStateResponse is the current working copy of an open inspection
type DraftStateResponse struct {
	InspectionID string        `json:"inspectionId"`
	Dirty        bool          `json:"dirty"`
	Unanswered   []string      `json:"unanswered"`
	Answers      []DraftAnswer `json:"answers"`
}

// DraftAnswer is one item's answer within a draft state response
type DraftAnswer struct {
	ChecklistItemID string   `json:"checklistItemId"`
	Result          Result   `json:"result"`
	Comment         string   `json:"comment"`
	PhotoRefs       []string `json:"photoRefs"`
}

// CompletionResponse summarizes a successful completion transaction
type CompletionResponse struct {
	Inspection   *Inspection   `json:"inspection"`
	Deficiencies []*Deficiency `json:"deficiencies"`
	Tasks        []*Task       `json:"tasks"`
}

// CorrectionRequest re-submits answers for a completed inspection within the
// edit window
type CorrectionRequest struct {
	Answers []DraftAnswer `json:"answers"`
}

// PhotoUploadResponse returns the stored reference for an uploaded photo
type PhotoUploadResponse struct {
	StoredPath string `json:"storedPath"`
	Position   int    `json:"position"`
}

// ScheduleRequest creates or edits a recurring inspection schedule
type ScheduleRequest struct {
	OrgID            string    `json:"orgId"`
	SpaceID          string    `json:"spaceId"`
	Frequency        Frequency `json:"frequency"`
	AnchorWeekday    int       `json:"anchorWeekday"`
	AnchorDayOfMonth int       `json:"anchorDayOfMonth"`
	TimeOfDay        string    `json:"timeOfDay"`
	Enabled          *bool     `json:"enabled,omitempty"`
}

// ReportConfigRequest creates or edits a report directive
type ReportConfigRequest struct {
	OrgID       string        `json:"orgId"`
	BuildingID  string        `json:"buildingId"`
	TriggerType ReportTrigger `json:"triggerType"`
	Cadence     string        `json:"cadence"`
	Enabled     *bool         `json:"enabled,omitempty"`
}

// CreateUserRequest provisions a user. The response carries the generated
// API key exactly once; the password, if set, is for web sign-in.
type CreateUserRequest struct {
	OrgID       string `json:"orgId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        Role   `json:"role,omitempty"`
	Password    string `json:"password,omitempty"`
}

// DueReportsResponse lists scheduled report configs due at evaluation time
type DueReportsResponse struct {
	EvaluatedAt time.Time       `json:"evaluatedAt"`
	Due         []*ReportConfig `json:"due"`
}
