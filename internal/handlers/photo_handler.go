package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/facilityinspect/server/internal/models"
	"github.com/facilityinspect/server/internal/observability"
	"github.com/facilityinspect/server/internal/repository"
	"github.com/facilityinspect/server/internal/services"
)

// maxPhotoUploadBytes bounds one multipart photo upload
const maxPhotoUploadBytes = 50 << 20

// PhotoHandler handles photo capture for checklist items: compress, store,
// then attach the confirmed reference to the draft
type PhotoHandler struct {
	inspections repository.InspectionRepo
	drafts      *services.DraftManager
	pipeline    *services.PhotoPipeline
	blobs       services.BlobStore
	metrics     *observability.BusinessMetrics
}

// NewPhotoHandler creates a new PhotoHandler. metrics may be nil.
func NewPhotoHandler(
	inspections repository.InspectionRepo,
	drafts *services.DraftManager,
	pipeline *services.PhotoPipeline,
	blobs services.BlobStore,
	metrics *observability.BusinessMetrics,
) *PhotoHandler {
	return &PhotoHandler{
		inspections: inspections,
		drafts:      drafts,
		pipeline:    pipeline,
		blobs:       blobs,
		metrics:     metrics,
	}
}

// Upload accepts one captured photo for a checklist item. The file is
// compressed, stored under a deterministic key and only then attached to the
// draft, so a reference always points at a stored object. Retried uploads
// overwrite the same key.
func (h *PhotoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	inspectionID := chi.URLParam(r, "inspectionID")
	itemID := chi.URLParam(r, "itemID")

	inspection, err := h.inspections.GetByID(r.Context(), inspectionID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Database error.")
		return
	}
	if inspection == nil {
		respondError(w, http.StatusNotFound, "Inspection not found.")
		return
	}

	session, err := h.drafts.Open(r.Context(), inspection)
	if err != nil {
		if errors.Is(err, models.ErrAlreadyCompleted) {
			respondError(w, http.StatusConflict, "Inspection is no longer in progress.")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to open draft.")
		return
	}

	if err := r.ParseMultipartForm(maxPhotoUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "Request must be multipart/form-data.")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "No file provided or file is empty.")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to read file.")
		return
	}

	compressed, err := h.pipeline.Compress(data)
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecordPhotoUpload(r.Context(), inspection.ID, int64(len(data)), false)
		}
		var uploadErr *services.PhotoUploadError
		if errors.As(err, &uploadErr) {
			respondError(w, http.StatusBadRequest, "Unsupported or corrupt image.")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to process photo.")
		return
	}

	position := h.nextPosition(session, itemID)
	storedPath := services.PathFor(inspection.OrgID, inspection.BuildingID, inspection.ID, itemID, position)

	if err := h.blobs.Put(r.Context(), storedPath, compressed); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to store photo.")
		return
	}

	if err := h.drafts.AddPhoto(r.Context(), inspection.ID, itemID, storedPath); err != nil {
		if errors.Is(err, services.ErrUnknownItem) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to attach photo.")
		return
	}

	if h.metrics != nil {
		h.metrics.RecordPhotoUpload(r.Context(), inspection.ID, int64(len(compressed)), true)
	}

	respondJSON(w, http.StatusOK, models.PhotoUploadResponse{
		StoredPath: storedPath,
		Position:   position,
	})
}

// Remove detaches a photo reference from the draft. The stored object is
// left in place; orphan cleanup is a storage concern, not a draft one.
func (h *PhotoHandler) Remove(w http.ResponseWriter, r *http.Request) {
	inspectionID := chi.URLParam(r, "inspectionID")
	itemID := chi.URLParam(r, "itemID")

	storedPath := r.URL.Query().Get("path")
	if storedPath == "" {
		respondError(w, http.StatusBadRequest, "path query parameter required.")
		return
	}

	if err := h.drafts.RemovePhoto(r.Context(), inspectionID, itemID, storedPath); err != nil {
		switch {
		case errors.Is(err, services.ErrNoDraft):
			respondError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, services.ErrUnknownItem):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "Failed to remove photo.")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Download streams a stored photo back
func (h *PhotoHandler) Download(w http.ResponseWriter, r *http.Request) {
	storedPath := r.URL.Query().Get("path")
	if storedPath == "" {
		respondError(w, http.StatusBadRequest, "path query parameter required.")
		return
	}

	data, err := h.blobs.Get(r.Context(), storedPath)
	if err != nil {
		respondError(w, http.StatusNotFound, "Photo not found.")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// nextPosition picks the next free attachment slot for the item
func (h *PhotoHandler) nextPosition(session *services.DraftSession, itemID string) int {
	for _, answer := range session.Store.Snapshot() {
		if answer.ChecklistItemID == itemID {
			return len(answer.PhotoRefs)
		}
	}
	return 0
}
