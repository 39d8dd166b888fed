package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/facilityinspect/server/internal/models"
	"github.com/facilityinspect/server/internal/repository"
	"github.com/facilityinspect/server/internal/services"
)

// ReportHandler handles report directives and summary generation
type ReportHandler struct {
	configs repository.ReportConfigRepo
	reports *services.ReportService
	builder *services.ReportBuilder
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(configs repository.ReportConfigRepo, reports *services.ReportService, builder *services.ReportBuilder) *ReportHandler {
	return &ReportHandler{
		configs: configs,
		reports: reports,
		builder: builder,
	}
}

// CreateConfig registers a report directive. Cadence descriptors are parsed
// and rejected here, at the boundary.
func (h *ReportHandler) CreateConfig(w http.ResponseWriter, r *http.Request) {
	var req models.ReportConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if req.BuildingID == "" {
		respondError(w, http.StatusBadRequest, "buildingId is required.")
		return
	}

	var cadence models.Cadence
	if req.TriggerType == models.TriggerScheduled {
		parsed, err := models.ParseCadence(req.Cadence)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		cadence = parsed
	} else if req.TriggerType != models.TriggerOnCompletion {
		respondError(w, http.StatusBadRequest, "triggerType must be scheduled or on_completion.")
		return
	}

	config := models.NewReportConfig(req.OrgID, req.BuildingID, req.TriggerType, cadence)
	if req.Enabled != nil {
		config.Enabled = *req.Enabled
	}

	if err := h.configs.Add(r.Context(), config); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create report config.")
		return
	}

	respondJSON(w, http.StatusCreated, config)
}

// UpdateConfig edits a report directive
func (h *ReportHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	config, ok := h.loadConfig(w, r)
	if !ok {
		return
	}

	var req models.ReportConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if req.Cadence != "" {
		parsed, err := models.ParseCadence(req.Cadence)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		config.Cadence = parsed
	}
	if req.Enabled != nil {
		config.Enabled = *req.Enabled
	}

	if err := h.configs.Update(r.Context(), config); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update report config.")
		return
	}

	respondJSON(w, http.StatusOK, config)
}

// ListDue evaluates every enabled scheduled config against the current time
func (h *ReportHandler) ListDue(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()

	due, err := h.reports.ListDue(r.Context(), now)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Database error.")
		return
	}

	respondJSON(w, http.StatusOK, models.DueReportsResponse{
		EvaluatedAt: now,
		Due:         due,
	})
}

// MarkSent records a delivery so the cadence floor holds until the next window
func (h *ReportHandler) MarkSent(w http.ResponseWriter, r *http.Request) {
	config, ok := h.loadConfig(w, r)
	if !ok {
		return
	}

	if err := h.reports.MarkSent(r.Context(), config.ID, time.Now().UTC()); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to mark report sent.")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// BuildingSummary streams the XLSX inspection summary for a building
func (h *ReportHandler) BuildingSummary(w http.ResponseWriter, r *http.Request) {
	buildingID := chi.URLParam(r, "buildingID")

	workbook, err := h.builder.BuildBuildingSummary(r.Context(), buildingID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to build summary.")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="building-summary.xlsx"`)
	w.WriteHeader(http.StatusOK)
	w.Write(workbook)
}

func (h *ReportHandler) loadConfig(w http.ResponseWriter, r *http.Request) (*models.ReportConfig, bool) {
	id := chi.URLParam(r, "configID")

	config, err := h.configs.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Database error.")
		return nil, false
	}
	if config == nil {
		respondError(w, http.StatusNotFound, "Report config not found.")
		return nil, false
	}
	return config, true
}
