package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/facilityinspect/server/internal/models"
	"github.com/facilityinspect/server/internal/observability"
	"github.com/facilityinspect/server/internal/repository"
	"github.com/facilityinspect/server/internal/services"
)

// DraftHandler handles draft mutations for an open inspection. Mutations are
// in-memory only; the sync engine persists them after the quiet period.
type DraftHandler struct {
	inspections repository.InspectionRepo
	drafts      *services.DraftManager
	metrics     *observability.BusinessMetrics
}

// NewDraftHandler creates a new DraftHandler. metrics may be nil.
func NewDraftHandler(inspections repository.InspectionRepo, drafts *services.DraftManager, metrics *observability.BusinessMetrics) *DraftHandler {
	return &DraftHandler{
		inspections: inspections,
		drafts:      drafts,
		metrics:     metrics,
	}
}

// State returns the current working copy, reopening the draft if needed
func (h *DraftHandler) State(w http.ResponseWriter, r *http.Request) {
	session, ok := h.openSession(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, h.stateResponse(session))
}

// Answer records a result and/or comment for one checklist item
func (h *DraftHandler) Answer(w http.ResponseWriter, r *http.Request) {
	session, ok := h.openSession(w, r)
	if !ok {
		return
	}

	var req models.AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if req.ChecklistItemID == "" {
		respondError(w, http.StatusBadRequest, "checklistItemId is required.")
		return
	}
	if req.Result != models.ResultNone && !req.Result.Valid() {
		respondError(w, http.StatusBadRequest, "result must be pass or fail.")
		return
	}

	inspectionID := session.Store.InspectionID()

	if req.Result != models.ResultNone {
		if err := h.drafts.SetResult(r.Context(), inspectionID, req.ChecklistItemID, req.Result); err != nil {
			h.mutationError(w, err)
			return
		}
	}
	if req.Comment != nil {
		if err := h.drafts.SetComment(r.Context(), inspectionID, req.ChecklistItemID, *req.Comment); err != nil {
			h.mutationError(w, err)
			return
		}
	}

	respondJSON(w, http.StatusOK, h.stateResponse(session))
}

// Sync flushes pending answers immediately, e.g. when the app foregrounds
func (h *DraftHandler) Sync(w http.ResponseWriter, r *http.Request) {
	session, ok := h.openSession(w, r)
	if !ok {
		return
	}

	pending := len(session.Store.Snapshot())

	if err := session.Engine.Flush(r.Context()); err != nil {
		if h.metrics != nil {
			h.metrics.RecordSyncFlush(r.Context(), pending, false)
		}
		var syncErr *services.SyncFailureError
		if errors.As(err, &syncErr) {
			// Recoverable: answers are spooled locally and will be retried
			respondJSON(w, http.StatusAccepted, h.stateResponse(session))
			return
		}
		respondError(w, http.StatusInternalServerError, "Sync failed.")
		return
	}

	if h.metrics != nil {
		h.metrics.RecordSyncFlush(r.Context(), pending, true)
	}

	respondJSON(w, http.StatusOK, h.stateResponse(session))
}

func (h *DraftHandler) openSession(w http.ResponseWriter, r *http.Request) (*services.DraftSession, bool) {
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

	session, err := h.drafts.Open(r.Context(), inspection)
	if err != nil {
		if errors.Is(err, models.ErrAlreadyCompleted) {
			respondError(w, http.StatusConflict, "Inspection is no longer in progress.")
			return nil, false
		}
		respondError(w, http.StatusInternalServerError, "Failed to open draft.")
		return nil, false
	}
	return session, true
}

func (h *DraftHandler) stateResponse(session *services.DraftSession) models.DraftStateResponse {
	snapshot := session.Store.Snapshot()
	answers := make([]models.DraftAnswer, len(snapshot))
	for i, a := range snapshot {
		answers[i] = models.DraftAnswer{
			ChecklistItemID: a.ChecklistItemID,
			Result:          a.Result,
			Comment:         a.Comment,
			PhotoRefs:       a.PhotoRefs,
		}
	}

	unanswered := session.Store.Unanswered()
	if unanswered == nil {
		unanswered = []string{}
	}

	return models.DraftStateResponse{
		InspectionID: session.Store.InspectionID(),
		Dirty:        session.Store.Dirty(),
		Unanswered:   unanswered,
		Answers:      answers,
	}
}

func (h *DraftHandler) mutationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrUnknownItem):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNoDraft):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "Failed to update draft.")
	}
}
