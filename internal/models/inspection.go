package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// InspectionStatus is the lifecycle state of an inspection
type InspectionStatus string

const (
	StatusInProgress InspectionStatus = "in_progress"
	StatusCompleted  InspectionStatus = "completed"
	StatusExpired    InspectionStatus = "expired"
)

// Inspection represents one visit to one space under one checklist template version
type Inspection struct {
	ID              string           `json:"id"`
	OrgID           string           `json:"orgId"`
	BuildingID      string           `json:"buildingId"`
	SpaceID         string           `json:"spaceId"`
	InspectorID     string           `json:"inspectorId"`
	TemplateID      string           `json:"templateId"`
	TemplateVersion int              `json:"templateVersion"`
	Status          InspectionStatus `json:"status"`
	StartedAt       time.Time        `json:"startedAt"`
	CompletedAt     *time.Time       `json:"completedAt,omitempty"`
}

// NewInspection creates an in-progress inspection with a frozen template version
func NewInspection(orgID, buildingID, spaceID, inspectorID, templateID string, templateVersion int) (*Inspection, error) {
	if strings.TrimSpace(spaceID) == "" {
		return nil, ErrEmptySpaceID
	}
	if strings.TrimSpace(inspectorID) == "" {
		return nil, ErrEmptyInspectorID
	}
	if templateVersion <= 0 {
		return nil, ErrInvalidTemplateVersion
	}

	return &Inspection{
		ID:              uuid.New().String(),
		OrgID:           orgID,
		BuildingID:      buildingID,
		SpaceID:         spaceID,
		InspectorID:     inspectorID,
		TemplateID:      templateID,
		TemplateVersion: templateVersion,
		Status:          StatusInProgress,
		StartedAt:       time.Now().UTC(),
	}, nil
}

// IsCompleted reports whether the inspection has been completed.
// Invariant: CompletedAt is non-nil iff Status == completed.
func (i *Inspection) IsCompleted() bool {
	return i.Status == StatusCompleted && i.CompletedAt != nil
}

// Errors
type InspectionError struct {
	Message string
}

func (e InspectionError) Error() string {
	return e.Message
}

var (
	ErrEmptySpaceID           = InspectionError{"space id cannot be empty"}
	ErrEmptyInspectorID       = InspectionError{"inspector id cannot be empty"}
	ErrInvalidTemplateVersion = InspectionError{"template version must be positive"}
	ErrInspectionNotFound     = InspectionError{"inspection not found"}
	ErrAlreadyCompleted       = InspectionError{"inspection already completed"}
	ErrOpenInspectionExists   = InspectionError{"space already has an in-progress inspection"}
)
