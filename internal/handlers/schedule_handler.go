package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/facilityinspect/server/internal/models"
	"github.com/facilityinspect/server/internal/services"
)

// ScheduleHandler handles recurring inspection schedules
type ScheduleHandler struct {
	schedules *services.ScheduleService
}

// NewScheduleHandler creates a new ScheduleHandler
func NewScheduleHandler(schedules *services.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules}
}

// Create registers a schedule; next_due_at is computed before persisting
func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if req.SpaceID == "" {
		respondError(w, http.StatusBadRequest, "spaceId is required.")
		return
	}

	schedule, err := h.schedules.Create(r.Context(), req.OrgID, req.SpaceID, req.Frequency, req.AnchorWeekday, req.AnchorDayOfMonth, req.TimeOfDay)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create schedule.")
		return
	}

	respondJSON(w, http.StatusCreated, schedule)
}

// Get returns one schedule
func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	schedule, ok := h.loadSchedule(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, schedule)
}

// Update edits a schedule's recurrence parameters, recomputing next_due_at
func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	schedule, ok := h.loadSchedule(w, r)
	if !ok {
		return
	}

	var req models.ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if req.Frequency != "" {
		schedule.Frequency = req.Frequency
	}
	schedule.AnchorWeekday = req.AnchorWeekday
	schedule.AnchorDayOfMonth = req.AnchorDayOfMonth
	if req.TimeOfDay != "" {
		schedule.TimeOfDay = req.TimeOfDay
	}
	if req.Enabled != nil {
		schedule.Enabled = *req.Enabled
	}

	if err := h.schedules.Update(r.Context(), schedule); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update schedule.")
		return
	}

	respondJSON(w, http.StatusOK, schedule)
}

// ListDue returns enabled schedules whose next_due_at has passed
func (h *ScheduleHandler) ListDue(w http.ResponseWriter, r *http.Request) {
	due, err := h.schedules.ListDue(r.Context(), time.Now().UTC())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Database error.")
		return
	}
	respondJSON(w, http.StatusOK, due)
}

// Trigger marks a due schedule as fired and advances its next_due_at
func (h *ScheduleHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	schedule, ok := h.loadSchedule(w, r)
	if !ok {
		return
	}

	if err := h.schedules.Trigger(r.Context(), schedule); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to trigger schedule.")
		return
	}

	respondJSON(w, http.StatusOK, schedule)
}

func (h *ScheduleHandler) loadSchedule(w http.ResponseWriter, r *http.Request) (*models.InspectionSchedule, bool) {
	id := chi.URLParam(r, "scheduleID")

	schedule, err := h.schedules.Get(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Database error.")
		return nil, false
	}
	if schedule == nil {
		respondError(w, http.StatusNotFound, "Schedule not found.")
		return nil, false
	}
	return schedule, true
}
