package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/startracker/internal/auth"
	"github.com/dukerupert/startracker/internal/upload"
)

const maxUploadSize = 10 << 20 // 10 MB

// UploadHandler accepts reward images and child avatars and stores them in
// S3-compatible storage. Returns 503 when storage is not configured.
type UploadHandler struct {
	uploads *upload.Service
	logger  *slog.Logger
}

func NewUploadHandler(us *upload.Service, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{uploads: us, logger: logger}
}

func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if !auth.IsParent(r.Context()) {
		writeError(w, http.StatusForbidden, "parent role required")
		return
	}
	if h.uploads == nil {
		writeError(w, http.StatusServiceUnavailable, "image storage is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "file too large or invalid form")
		return
	}

	folder := r.FormValue("folder")
	if folder != "avatars" {
		folder = "rewards"
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	url, err := h.uploads.Put(r.Context(), folder, header.Filename, file, header.Size)
	if err != nil {
		h.logger.Error("upload image", "filename", header.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to upload image")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}
