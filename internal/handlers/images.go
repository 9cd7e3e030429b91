package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/nmoreau/go-image-pipeline/internal/auth"
	"github.com/nmoreau/go-image-pipeline/internal/intake"
	"github.com/nmoreau/go-image-pipeline/internal/storage"
	"github.com/nmoreau/go-image-pipeline/internal/store"
	"github.com/nmoreau/go-image-pipeline/internal/transform"
	"github.com/nmoreau/go-image-pipeline/models"
)

// ImagesHandler runs the upload pipeline (intake -> transform -> metadata) and
// serves owner-scoped listing and processed-binary retrieval.
type ImagesHandler struct {
	intake    *intake.Intake
	engine    *transform.Engine
	images    *store.Images
	processed storage.BlobStore
}

func NewImagesHandler(in *intake.Intake, engine *transform.Engine, images *store.Images, processed storage.BlobStore) *ImagesHandler {
	return &ImagesHandler{
		intake:    in,
		engine:    engine,
		images:    images,
		processed: processed,
	}
}

// Upload runs the full synchronous pipeline. The metadata record is created
// last, only after both binaries exist in storage and the chain completed; a
// failure after the original was written leaves it orphaned by design.
func (h *ImagesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeErrors(w, http.StatusUnauthorized, "user ID not found in context")
		return
	}

	original, err := h.intake.Ingest(r)
	if err != nil {
		switch {
		case errors.Is(err, intake.ErrNoFile):
			writeErrors(w, http.StatusBadRequest, "upload a valid file")
		case errors.Is(err, intake.ErrUnsupportedMediaType):
			writeErrors(w, http.StatusBadRequest, "file type is not accepted, please upload a JPEG, PNG, GIF or WEBP image")
		case errors.Is(err, intake.ErrFileTooLarge):
			writeErrors(w, http.StatusBadRequest, "file is too large, max size is 20MB")
		default:
			log.Error().Err(err).Str("userID", userID).Msg("upload: intake failed")
			writeErrors(w, http.StatusInternalServerError, "error storing uploaded file")
		}
		return
	}

	processed, applied, err := h.engine.Transform(r.Context(), original.StorageKey)
	if err != nil {
		switch {
		case errors.Is(err, transform.ErrCorruptImage):
			writeErrors(w, http.StatusBadRequest, "uploaded file is not a readable image")
		case errors.Is(err, transform.ErrFailed):
			log.Warn().Err(err).Str("key", original.StorageKey).Msg("upload: transformation failed")
			writeErrors(w, http.StatusBadRequest, "image could not be transformed")
		default:
			log.Error().Err(err).Str("key", original.StorageKey).Msg("upload: transform error")
			writeErrors(w, http.StatusInternalServerError, "error processing image")
		}
		return
	}

	img := &models.Image{
		UserID:                 userID,
		OriginalFileName:       original.OriginalFileName,
		OriginalKey:            original.StorageKey,
		ProcessedKey:           processed.StorageKey,
		OriginalMimeType:       original.MimeType,
		OriginalSizeBytes:      original.SizeBytes,
		ProcessedMimeType:      processed.MimeType,
		ProcessedSizeBytes:     processed.SizeBytes,
		AppliedTransformations: applied,
	}
	if err := h.images.Create(r.Context(), img); err != nil {
		log.Error().Err(err).Str("userID", userID).Msg("upload: saving image record failed")
		writeErrors(w, http.StatusInternalServerError, "error saving image metadata")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "image uploaded and processed successfully",
		"image":   img,
	})
}

// List returns the caller's records, newest first.
func (h *ImagesHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeErrors(w, http.StatusUnauthorized, "user ID not found in context")
		return
	}

	images, err := h.images.ListByOwner(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("userID", userID).Msg("listing images failed")
		writeErrors(w, http.StatusInternalServerError, "error fetching images")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"images": images})
}

// GetByID streams the processed binary. A record whose backing file is gone
// is a data-integrity fault and answers 500, distinct from the merged 404 for
// missing-or-not-owned records.
func (h *ImagesHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeErrors(w, http.StatusUnauthorized, "user ID not found in context")
		return
	}

	id := chi.URLParam(r, "imageID")
	if _, err := uuid.Parse(id); err != nil {
		writeErrors(w, http.StatusBadRequest, "image ID must be a valid UUID")
		return
	}

	img, err := h.images.GetByIDForOwner(r.Context(), userID, id)
	if errors.Is(err, store.ErrNotFound) {
		writeErrors(w, http.StatusNotFound, "image not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("userID", userID).Str("imageID", id).Msg("image lookup failed")
		writeErrors(w, http.StatusInternalServerError, "error fetching image")
		return
	}

	exists, err := h.processed.Exists(r.Context(), img.ProcessedKey)
	if err != nil {
		log.Error().Err(err).Str("key", img.ProcessedKey).Msg("checking processed blob failed")
		writeErrors(w, http.StatusInternalServerError, "error fetching image")
		return
	}
	if !exists {
		log.Error().
			Str("imageID", img.ID).
			Str("key", img.ProcessedKey).
			Msg("storage inconsistency: metadata record without backing file")
		writeErrors(w, http.StatusInternalServerError, "stored image data is inconsistent")
		return
	}

	rc, err := h.processed.Get(r.Context(), img.ProcessedKey)
	if err != nil {
		log.Error().Err(err).Str("key", img.ProcessedKey).Msg("opening processed blob failed")
		writeErrors(w, http.StatusInternalServerError, "error fetching image")
		return
	}
	defer rc.Close()

	mimeType := img.ProcessedMimeType
	if mimeType == "" {
		mimeType = img.OriginalMimeType
	}
	w.Header().Set("Content-Type", mimeType)
	if img.ProcessedSizeBytes > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(img.ProcessedSizeBytes, 10))
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", img.ProcessedKey))

	if _, err := io.Copy(w, rc); err != nil {
		log.Warn().Err(err).Str("key", img.ProcessedKey).Msg("streaming processed blob interrupted")
	}
}
