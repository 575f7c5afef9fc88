package viewer

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/klokku/notebook/internal/rest"
	"github.com/klokku/notebook/pkg/note"
	"github.com/klokku/notebook/pkg/user"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	viewer *Service
}

type ViewDTO struct {
	Notes      []note.NotePageDTO `json:"notes"`
	Page       int                `json:"page"`
	TotalPages int                `json:"totalPages"`
}

type LocateDTO struct {
	Page  int  `json:"page"`
	Found bool `json:"found"`
}

func NewHandler(s *Service) *Handler {
	return &Handler{viewer: s}
}

// GetPage godoc
// @Summary One page of the note viewer
// @Description Note pages ordered by their first date, two per page. Page 0 or absent is the last page.
// @Tags Viewer
// @Produce json
// @Param project query string false "Show only pages of this project"
// @Param page query int false "1-based page number"
// @Success 200 {object} ViewDTO
// @Failure 404 {object} rest.ErrorResponse "Page out of range"
// @Router /api/viewer [get]
// @Security BearerToken
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	page, ok := intParam(w, r, "page")
	if !ok {
		return
	}
	project := r.URL.Query().Get("project")
	log.Debugf("Viewing page %d of project %q", page, project)

	view, err := h.viewer.Page(r.Context(), project, page)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	err = json.NewEncoder(w).Encode(ViewDTO{
		Notes:      note.PagesToDTO(view.Notes),
		Page:       view.Page,
		TotalPages: view.TotalPages,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// Locate godoc
// @Summary Find the viewer page of a date
// @Description Returns the page of the first note tagged on the date. When none matches, found is false and page is the current page.
// @Tags Viewer
// @Produce json
// @Param date query string true "Date as YYYY-MM-DD or RFC 3339"
// @Param project query string false "Search only pages of this project"
// @Param current query int false "Current page of the viewer"
// @Success 200 {object} LocateDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid date"
// @Router /api/viewer/locate [get]
// @Security BearerToken
func (h *Handler) Locate(w http.ResponseWriter, r *http.Request) {
	currentUser, err := user.CurrentUser(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	date, err := note.ParseDate(r.URL.Query().Get("date"), currentUser.Location())
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid date", err.Error())
		return
	}
	current, ok := intParam(w, r, "current")
	if !ok {
		return
	}

	page, found, err := h.viewer.Locate(r.Context(), r.URL.Query().Get("project"), date, current)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(LocateDTO{Page: page, Found: found}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// intParam reads an optional integer query parameter, absent means 0.
func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return 0, true
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid "+name, "'"+name+"' must be an integer")
		return 0, false
	}
	return n, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrNoUser):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ErrPageOutOfRange):
		rest.WriteError(w, http.StatusNotFound, "Page out of range", err.Error())
	default:
		log.Errorf("viewer request failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

