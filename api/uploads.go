package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"log/slog"

	"github.com/creostudios/backend/internal/filetype"
	"github.com/creostudios/backend/pkg/models"
	"github.com/creostudios/backend/pkg/repository"
	"github.com/gorilla/mux"
)

// maxUploadBytes bounds the in-memory multipart parse.
const maxUploadBytes = 64 << 20

type UploadsHandler struct {
	users repository.UserRepo
	files repository.FileRepo
}

func NewUploadsHandler(ur repository.UserRepo, fr repository.FileRepo) *UploadsHandler {
	return &UploadsHandler{users: ur, files: fr}
}

// Upload stores a deliverable blob. Admin only; unknown extensions are
// rejected outright rather than defaulted to a catch-all category.
func (h *UploadsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	email := emailFromContext(r)
	if !h.requireAdmin(w, r, email) {
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeMessage(w, "No file provided", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeMessage(w, "No file provided", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeMessage(w, "No file selected", http.StatusBadRequest)
		return
	}
	if !filetype.Allowed(header.Filename) {
		writeMessage(w, "File type not allowed", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeMessage(w, "Failed to read file: "+err.Error(), http.StatusInternalServerError)
		return
	}

	original := filetype.Sanitize(header.Filename)
	rec := &models.UploadedFile{
		Filename:         filetype.StoredName(header.Filename, time.Now().UTC()),
		OriginalFilename: original,
		FileType:         filetype.Category(original),
		MimeType:         filetype.MimeType(original),
		Data:             data,
		Size:             int64(len(data)),
		UploadedBy:       email,
	}
	id, err := h.files.CreateFile(r.Context(), rec)
	if err != nil {
		writeMessage(w, "Failed to upload file: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"message":  "File uploaded successfully",
		"id":       id,
		"url":      fmt.Sprintf("/v1/uploads/%d", id),
		"filename": original,
		"size":     rec.Size,
		"type":     rec.FileType,
	}, http.StatusCreated)
}

// Download serves a stored blob by numeric id. No authorization check:
// the opaque identifier is the retrieval handle.
func (h *UploadsHandler) Download(w http.ResponseWriter, r *http.Request) {
	idStr := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		writeMessage(w, "File not found", http.StatusNotFound)
		return
	}

	rec, err := h.files.GetFileByID(r.Context(), id)
	if err != nil {
		writeMessage(w, "Failed to retrieve file: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if rec == nil {
		writeMessage(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", rec.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rec.OriginalFilename))
	w.Header().Set("Content-Length", strconv.FormatInt(rec.Size, 10))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(rec.Data); err != nil {
		logger.Error("write download body", slog.Any("err", err))
	}
}

func (h *UploadsHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r, emailFromContext(r)) {
		return
	}

	recs, err := h.files.ListFiles(r.Context())
	if err != nil {
		writeMessage(w, "Failed to list files: "+err.Error(), http.StatusInternalServerError)
		return
	}

	files := make([]map[string]any, 0, len(recs))
	for _, rec := range recs {
		files = append(files, map[string]any{
			"id":         rec.ID,
			"filename":   rec.OriginalFilename,
			"type":       rec.FileType,
			"size":       rec.Size,
			"url":        fmt.Sprintf("/v1/uploads/%d", rec.ID),
			"created_at": rec.Created,
		})
	}

	writeJSON(w, map[string]any{"files": files, "total": len(files)}, http.StatusOK)
}

func (h *UploadsHandler) requireAdmin(w http.ResponseWriter, r *http.Request, email string) bool {
	user, err := h.users.GetUserByEmail(r.Context(), email)
	if err != nil {
		writeMessage(w, "Failed to resolve user: "+err.Error(), http.StatusInternalServerError)
		return false
	}
	if user == nil {
		writeMessage(w, "Unauthorized", http.StatusUnauthorized)
		return false
	}
	if !user.IsAdmin {
		writeMessage(w, "Admin access required", http.StatusForbidden)
		return false
	}
	return true
}
