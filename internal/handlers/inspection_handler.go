package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/facilityinspect/server/internal/middleware"
	"github.com/facilityinspect/server/internal/models"
	"github.com/facilityinspect/server/internal/repository"
	"github.com/facilityinspect/server/internal/services"
)

// InspectionHandler handles the inspection lifecycle: start, fetch, complete
// and post-completion corrections
type InspectionHandler struct {
	inspections  repository.InspectionRepo
	items        repository.ChecklistItemRepo
	deficiencies repository.DeficiencyRepo
	tasks        repository.TaskRepo
	drafts       *services.DraftManager
	completion   *services.CompletionService
}

// NewInspectionHandler creates a new InspectionHandler
func NewInspectionHandler(
	inspections repository.InspectionRepo,
	items repository.ChecklistItemRepo,
	deficiencies repository.DeficiencyRepo,
	tasks repository.TaskRepo,
	drafts *services.DraftManager,
	completion *services.CompletionService,
) *InspectionHandler {
	return &InspectionHandler{
		inspections:  inspections,
		items:        items,
		deficiencies: deficiencies,
		tasks:        tasks,
		drafts:       drafts,
		completion:   completion,
	}
}

// Start opens a new inspection for a space. If the caller already has an
// in-progress inspection on that space, it is resumed instead, restoring any
// unsynced draft; someone else's open inspection is a conflict.
func (h *InspectionHandler) Start(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Authentication required.")
		return
	}

	var req models.StartInspectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	inspection, err := h.drafts.Start(r.Context(), req.OrgID, req.BuildingID, req.SpaceID, user.ID, req.TemplateID, req.TemplateVersion)
	restored := false

	if errors.Is(err, models.ErrOpenInspectionExists) {
		open, lookupErr := h.inspections.GetOpenForSpace(r.Context(), req.SpaceID)
		if lookupErr != nil || open == nil {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		if open.InspectorID != user.ID {
			respondError(w, http.StatusConflict, "Space already has an in-progress inspection by another inspector.")
			return
		}
		if _, openErr := h.drafts.Open(r.Context(), open); openErr != nil {
			respondError(w, http.StatusInternalServerError, "Failed to reopen draft.")
			return
		}
		inspection = open
		restored = true
	} else if err != nil {
		var valErr models.InspectionError
		if errors.As(err, &valErr) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to start inspection.")
		return
	}

	items, err := h.items.ListForTemplateVersion(r.Context(), inspection.TemplateID, inspection.TemplateVersion)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load checklist.")
		return
	}

	respondJSON(w, http.StatusOK, models.StartInspectionResponse{
		Inspection: inspection,
		Items:      items,
		Restored:   restored,
	})
}

// Get returns one inspection with its derived records
func (h *InspectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	inspection, ok := h.loadInspection(w, r)
	if !ok {
		return
	}

	deficiencies, err := h.deficiencies.ListForInspection(r.Context(), inspection.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Database error.")
		return
	}

	tasks := []*models.Task{}
	for _, d := range deficiencies {
		forDeficiency, err := h.tasks.ListForDeficiency(r.Context(), d.ID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Database error.")
			return
		}
		tasks = append(tasks, forDeficiency...)
	}

	respondJSON(w, http.StatusOK, models.CompletionResponse{
		Inspection:   inspection,
		Deficiencies: deficiencies,
		Tasks:        tasks,
	})
}

// Complete runs the completion transaction for an in-progress inspection
func (h *InspectionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	inspection, ok := h.loadInspection(w, r)
	if !ok {
		return
	}

	session, err := h.drafts.Open(r.Context(), inspection)
	if err != nil {
		if errors.Is(err, models.ErrAlreadyCompleted) {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to open draft.")
		return
	}

	// Push unsynced answers down before completing; a failure here is fine,
	// completion writes the same rows itself
	session.Engine.Flush(r.Context())

	if err := h.completion.Complete(r.Context(), inspection, session.Store); err != nil {
		var incomplete services.IncompleteSubmissionError
		switch {
		case errors.As(err, &incomplete):
			respondError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, models.ErrAlreadyCompleted):
			respondError(w, http.StatusConflict, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "Completion failed.")
		}
		return
	}

	h.drafts.Discard(r.Context(), inspection.ID, inspection.SpaceID)

	deficiencies, err := h.deficiencies.ListForInspection(r.Context(), inspection.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Database error.")
		return
	}

	tasks := []*models.Task{}
	for _, d := range deficiencies {
		forDeficiency, err := h.tasks.ListForDeficiency(r.Context(), d.ID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Database error.")
			return
		}
		tasks = append(tasks, forDeficiency...)
	}

	respondJSON(w, http.StatusOK, models.CompletionResponse{
		Inspection:   inspection,
		Deficiencies: deficiencies,
		Tasks:        tasks,
	})
}

// Corrections re-submits answers for a completed inspection within the edit
// window. Denials surface as 404.
func (h *InspectionHandler) Corrections(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Authentication required.")
		return
	}

	inspection, ok := h.loadInspection(w, r)
	if !ok {
		return
	}

	var req models.CorrectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	answers := make([]services.DraftAnswer, len(req.Answers))
	for i, a := range req.Answers {
		answers[i] = services.DraftAnswer{
			ChecklistItemID: a.ChecklistItemID,
			Result:          a.Result,
			Comment:         a.Comment,
			PhotoRefs:       a.PhotoRefs,
		}
	}

	if err := h.completion.ApplyCorrections(r.Context(), inspection, user.Actor(), answers); err != nil {
		if errors.Is(err, models.ErrInspectionNotFound) {
			respondError(w, http.StatusNotFound, "Inspection not found.")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to apply corrections.")
		return
	}

	respondJSON(w, http.StatusOK, map[string]int{"applied": len(answers)})
}

// ListForBuilding returns the most recent inspections for a building
func (h *InspectionHandler) ListForBuilding(w http.ResponseWriter, r *http.Request) {
	buildingID := chi.URLParam(r, "buildingID")

	inspections, err := h.inspections.ListForBuilding(r.Context(), buildingID, 100)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Database error.")
		return
	}

	respondJSON(w, http.StatusOK, inspections)
}

func (h *InspectionHandler) loadInspection(w http.ResponseWriter, r *http.Request) (*models.Inspection, bool) {
	id := chi.URLParam(r, "inspectionID")

	inspection, err := h.inspections.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Database error.")
		return nil, false
	}
	if inspection == nil {
		respondError(w, http.StatusNotFound, "Inspection not found.")
		return nil, false
	}
	return inspection, true
}
