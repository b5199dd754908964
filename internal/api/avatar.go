package api

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aoyagi/manabi/internal/profileservice"
)

const (
	avatarDir      = "avatars"
	maxUploadBytes = 10 << 20 // 10 MB
)

// AvatarHandler accepts and serves profile avatar images.
type AvatarHandler struct {
	dataDir  string
	profiles *profileservice.Service
}

// NewAvatarHandler creates a handler rooted at the data directory.
func NewAvatarHandler(dataDir string, profiles *profileservice.Service) *AvatarHandler {
	return &AvatarHandler{dataDir: dataDir, profiles: profiles}
}

func (h *AvatarHandler) avatarPath() string {
	return filepath.Join(h.dataDir, avatarDir)
}

// safeName validates that the filename is a plain name (no path separators,
// no traversal) and returns the absolute path under the avatars dir.
func (h *AvatarHandler) safeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("filename is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid filename: %s", name)
	}
	abs := filepath.Join(h.avatarPath(), cleaned)
	if !strings.HasPrefix(abs, h.avatarPath()+string(os.PathSeparator)) && abs != h.avatarPath() {
		return "", fmt.Errorf("path escapes avatars directory")
	}
	return abs, nil
}

// ServeFile handles GET /avatars/{filename}.
func (h *AvatarHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	abs, err := h.safeName(filename)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, statErr := os.Stat(abs); os.IsNotExist(statErr) {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}

// Upload handles POST /api/avatar (multipart/form-data, field "file").
// A successful upload also records the new URL on the profile.
func (h *AvatarHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	abs, err := h.safeName(header.Filename)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	if err := os.MkdirAll(h.avatarPath(), 0o755); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to create avatars dir"))
		return
	}

	dst, err := os.Create(abs)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to create file"))
		return
	}
	defer dst.Close()

	written, err := io.Copy(dst, file)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to write file"))
		return
	}

	url := "/avatars/" + header.Filename
	profile, err := h.profiles.SetAvatarURL(r.Context(), url)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to update profile"))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"filename": header.Filename,
		"size":     written,
		"url":      url,
		"profile":  profile,
	})
}
