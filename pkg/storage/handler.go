package storage

import (
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	storage BlobStorage
}

func NewHandler(storage BlobStorage) *Handler {
	return &Handler{storage: storage}
}

// Get godoc
// @Summary Download a stored note page photo
// @Tags Storage
// @Produce image/jpeg
// @Param path path string true "Object path"
// @Success 200 {file} image/jpeg
// @Failure 404 {string} string "Not Found"
// @Router /api/storage/{path} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	path := mux.Vars(r)["path"]
	log.Tracef("Downloading %s", path)

	body, contentType, err := h.storage.Download(r.Context(), path)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer body.Close()

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=86400")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		log.Errorf("failed to stream %s: %v", path, err)
	}
}
