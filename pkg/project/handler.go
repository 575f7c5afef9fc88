package project

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/klokku/notebook/internal/rest"
	"github.com/klokku/notebook/pkg/user"
	log "github.com/sirupsen/logrus"
)

type ProjectDTO struct {
	Id   int    `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// List godoc
// @Summary List projects
// @Tags Project
// @Produce json
// @Success 200 {array} ProjectDTO
// @Failure 403 {string} string "User not found"
// @Router /api/project [get]
// @Security BearerToken
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log.Debug("Listing projects")
	projects, err := h.service.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	dtos := make([]ProjectDTO, 0, len(projects))
	for _, p := range projects {
		dtos = append(dtos, toDTO(p))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Create godoc
// @Summary Create a project
// @Tags Project
// @Accept json
// @Produce json
// @Param project body ProjectDTO true "Project, only the name is used"
// @Success 201 {object} ProjectDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid project"
// @Failure 409 {object} rest.ErrorResponse "Project exists"
// @Router /api/project [post]
// @Security BearerToken
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating project")
	var dto ProjectDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}

	created, err := h.service.Create(r.Context(), dto.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(toDTO(created)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrNoUser):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ErrInvalidProject):
		rest.WriteError(w, http.StatusBadRequest, "Invalid project", err.Error())
	case errors.Is(err, ErrProjectExists):
		rest.WriteError(w, http.StatusConflict, "Project already exists", "")
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toDTO(p Project) ProjectDTO {
	return ProjectDTO{Id: p.Id, Slug: p.Slug, Name: p.Name}
}
