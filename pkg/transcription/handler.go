package transcription

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/klokku/notebook/internal/rest"
	"github.com/klokku/notebook/pkg/note"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	service *Service
}

type PendingDTO struct {
	Status string `json:"status"`
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Request godoc
// @Summary Transcription of a note page
// @Description Returns the stored transcription, or asks the transcriber for one. 202 means the result will be delivered later.
// @Tags Transcription
// @Produce json
// @Param id path string true "Note page ID"
// @Param force query bool false "Transcribe again even when a transcription exists"
// @Success 200 {object} note.Transcription
// @Success 202 {object} PendingDTO
// @Failure 404 {string} string "Note page not found"
// @Failure 503 {object} rest.ErrorResponse "Transcription not configured"
// @Router /api/note/{id}/transcribe [get]
// @Security BearerToken
func (h *Handler) Request(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	force := r.URL.Query().Get("force") == "true"

	result, err := h.service.Request(r.Context(), id, force)
	if err != nil {
		if errors.Is(err, ErrTranscriptionDisabled) {
			rest.WriteError(w, http.StatusServiceUnavailable, "Transcription is not available", err.Error())
			return
		}
		note.WriteServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if result.Pending {
		w.WriteHeader(http.StatusAccepted)
		if err := json.NewEncoder(w).Encode(PendingDTO{Status: "pending"}); err != nil {
			log.Errorf("failed to encode response: %v", err)
		}
		return
	}
	if err := json.NewEncoder(w).Encode(result.Transcription); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// Receive godoc
// @Summary Deliver the transcription of a note page
// @Description Called by the transcriber once the page is transcribed
// @Tags Transcription
// @Accept json
// @Produce json
// @Param id path string true "Note page ID"
// @Param transcription body note.Transcription true "Transcription"
// @Success 200 {object} note.NotePageDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request body"
// @Failure 404 {string} string "Note page not found"
// @Router /api/note/{id}/transcription [post]
// @Security BearerToken
func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var transcription note.Transcription
	if err := json.NewDecoder(r.Body).Decode(&transcription); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}

	updated, err := h.service.Receive(r.Context(), id, transcription)
	if err != nil {
		note.WriteServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(note.PageToDTO(updated)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}
