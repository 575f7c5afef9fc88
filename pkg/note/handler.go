package note

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/klokku/notebook/internal/rest"
	"github.com/klokku/notebook/pkg/user"
	log "github.com/sirupsen/logrus"
)

const maxUploadSize = 10 << 20

type ProjectTagDTO struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

type NotePageDTO struct {
	Id            string          `json:"id"`
	Width         int             `json:"width"`
	Height        int             `json:"height"`
	Size          int64           `json:"size"`
	Type          string          `json:"type"`
	Url           string          `json:"url"`
	ThumbnailUrl  string          `json:"thumbnailUrl"`
	Projects      []ProjectTagDTO `json:"projects"`
	Transcription *Transcription  `json:"transcription,omitempty"`
	CreatedAt     *time.Time      `json:"createdAt,omitempty"`
}

type NotePatchDTO struct {
	Width         *int             `json:"width"`
	Height        *int             `json:"height"`
	Size          *int64           `json:"size"`
	Type          *string          `json:"type"`
	Url           *string          `json:"url"`
	ThumbnailUrl  *string          `json:"thumbnailUrl"`
	Projects      *[]ProjectTagDTO `json:"projects"`
	Transcription *Transcription   `json:"transcription"`
}

type CategoryDTO struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// List godoc
// @Summary List note pages
// @Description Every note page of the current user, in upload order
// @Tags Note
// @Produce json
// @Success 200 {array} NotePageDTO
// @Failure 403 {string} string "User not found"
// @Router /api/note [get]
// @Security BearerToken
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log.Debug("Listing note pages")
	pages, err := h.service.ListNotes(r.Context())
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PagesToDTO(pages))
}

// Get godoc
// @Summary Get a note page
// @Tags Note
// @Produce json
// @Param id path string true "Note page ID"
// @Success 200 {object} NotePageDTO
// @Failure 404 {string} string "Note page not found"
// @Router /api/note/{id} [get]
// @Security BearerToken
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	log.Debugf("Getting note page %s", id)
	page, err := h.service.GetNote(r.Context(), id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PageToDTO(page))
}

// Create godoc
// @Summary Create a note page
// @Description Registers a page with its project tags. The photo is uploaded separately.
// @Tags Note
// @Accept json
// @Produce json
// @Param page body NotePageDTO true "Note page"
// @Success 201 {object} NotePageDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid note page"
// @Router /api/note [post]
// @Security BearerToken
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating note page")
	page, ok := h.decodePage(w, r)
	if !ok {
		return
	}
	created, err := h.service.CreateNote(r.Context(), page)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, PageToDTO(created))
}

// Put godoc
// @Summary Replace a note page
// @Tags Note
// @Accept json
// @Produce json
// @Param id path string true "Note page ID"
// @Param page body NotePageDTO true "Note page"
// @Success 200 {object} NotePageDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid note page"
// @Failure 404 {string} string "Note page not found"
// @Router /api/note/{id} [put]
// @Security BearerToken
func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	log.Debugf("Replacing note page %s", id)
	page, ok := h.decodePage(w, r)
	if !ok {
		return
	}
	if page.Id != "" && page.Id != id {
		rest.WriteError(w, http.StatusBadRequest, "Invalid note page id in request body", "")
		return
	}
	page.Id = id
	updated, err := h.service.PutNote(r.Context(), page)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PageToDTO(updated))
}

// Patch godoc
// @Summary Update selected fields of a note page
// @Tags Note
// @Accept json
// @Produce json
// @Param id path string true "Note page ID"
// @Param patch body NotePatchDTO true "Fields to change"
// @Success 200 {object} NotePageDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid note page"
// @Failure 404 {string} string "Note page not found"
// @Router /api/note/{id} [patch]
// @Security BearerToken
func (h *Handler) Patch(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	log.Debugf("Patching note page %s", id)
	var dto NotePatchDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}
	patch, err := dtoToPatch(dto, locationOf(r))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid note page", err.Error())
		return
	}
	updated, err := h.service.PatchNote(r.Context(), id, patch)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PageToDTO(updated))
}

// Delete godoc
// @Summary Delete a note page and its photos
// @Tags Note
// @Param id path string true "Note page ID"
// @Success 204 "No Content"
// @Failure 404 {string} string "Note page not found"
// @Router /api/note/{id} [delete]
// @Security BearerToken
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	log.Debugf("Deleting note page %s", id)
	if err := h.service.DeleteNote(r.Context(), id); err != nil {
		WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Categories godoc
// @Summary Project names with their page counts
// @Tags Note
// @Produce json
// @Success 200 {array} CategoryDTO
// @Router /api/note/categories [get]
// @Security BearerToken
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	dtos := make([]CategoryDTO, 0, len(categories))
	for _, c := range categories {
		dtos = append(dtos, CategoryDTO{Name: c.Name, Count: c.Count})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// Untranscribed godoc
// @Summary Note pages waiting for a transcription, oldest first
// @Tags Note
// @Produce json
// @Success 200 {array} NotePageDTO
// @Router /api/note/untranscribed [get]
// @Security BearerToken
func (h *Handler) Untranscribed(w http.ResponseWriter, r *http.Request) {
	pages, err := h.service.Untranscribed(r.Context())
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PagesToDTO(pages))
}

// UploadImage godoc
// @Summary Upload the photo of a note page
// @Description Multipart upload of the photo and an optional thumbnail (max 10MB)
// @Tags Note
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Note page ID"
// @Param photo formData file true "Page photo"
// @Param thumbnail formData file false "Thumbnail"
// @Success 200 {object} NotePageDTO
// @Failure 400 {object} rest.ErrorResponse "Image too large or invalid"
// @Router /api/note/{id}/image [put]
// @Security BearerToken
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	log.Debugf("Uploading photo of note page %s", id)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		log.Debugf("Upload rejected: %v", err)
		rest.WriteError(w, http.StatusBadRequest, "Image is too large",
			"Maximum size is 10MB. Please try again with a smaller image.")
		return
	}

	photo, err := readUpload(r, "photo")
	if err != nil || photo == nil {
		rest.WriteError(w, http.StatusBadRequest, "Photo is required", "")
		return
	}
	thumbnail, err := readUpload(r, "thumbnail")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid thumbnail", err.Error())
		return
	}

	updated, err := h.service.UploadImage(r.Context(), id, *photo, thumbnail)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PageToDTO(updated))
}

func readUpload(r *http.Request, field string) (*Upload, error) {
	file, _, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return &Upload{Data: data}, nil
}

func (h *Handler) decodePage(w http.ResponseWriter, r *http.Request) (NotePage, bool) {
	var dto NotePageDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return NotePage{}, false
	}
	page, err := DTOToPage(dto, locationOf(r))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid note page", err.Error())
		return NotePage{}, false
	}
	return page, true
}

// WriteServiceError maps note service errors to HTTP responses.
func WriteServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrNoUser):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ErrNotePageNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrInvalidNotePage):
		rest.WriteError(w, http.StatusBadRequest, "Invalid note page", err.Error())
	default:
		log.Errorf("note request failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func locationOf(r *http.Request) *time.Location {
	currentUser, err := user.CurrentUser(r.Context())
	if err != nil {
		return time.UTC
	}
	return currentUser.Location()
}

func PageToDTO(page NotePage) NotePageDTO {
	projects := make([]ProjectTagDTO, 0, len(page.Projects))
	for _, tag := range page.Projects {
		projects = append(projects, ProjectTagDTO{Date: FormatDate(tag.Date), Name: tag.Name})
	}
	dto := NotePageDTO{
		Id:            page.Id,
		Width:         page.Width,
		Height:        page.Height,
		Size:          page.Size,
		Type:          page.Type,
		Url:           page.Url,
		ThumbnailUrl:  page.ThumbnailUrl,
		Projects:      projects,
		Transcription: page.Transcription,
	}
	if !page.CreatedAt.IsZero() {
		createdAt := page.CreatedAt
		dto.CreatedAt = &createdAt
	}
	return dto
}

func PagesToDTO(pages []NotePage) []NotePageDTO {
	dtos := make([]NotePageDTO, 0, len(pages))
	for _, page := range pages {
		dtos = append(dtos, PageToDTO(page))
	}
	return dtos
}

func DTOToPage(dto NotePageDTO, loc *time.Location) (NotePage, error) {
	projects, err := dtoToTags(dto.Projects, loc)
	if err != nil {
		return NotePage{}, err
	}
	return NotePage{
		Id:            dto.Id,
		Width:         dto.Width,
		Height:        dto.Height,
		Size:          dto.Size,
		Type:          dto.Type,
		Url:           dto.Url,
		ThumbnailUrl:  dto.ThumbnailUrl,
		Projects:      projects,
		Transcription: dto.Transcription,
	}, nil
}

func dtoToPatch(dto NotePatchDTO, loc *time.Location) (NotePatch, error) {
	patch := NotePatch{
		Width:         dto.Width,
		Height:        dto.Height,
		Size:          dto.Size,
		Type:          dto.Type,
		Url:           dto.Url,
		ThumbnailUrl:  dto.ThumbnailUrl,
		Transcription: dto.Transcription,
	}
	if dto.Projects != nil {
		projects, err := dtoToTags(*dto.Projects, loc)
		if err != nil {
			return NotePatch{}, err
		}
		patch.Projects = &projects
	}
	return patch, nil
}

func dtoToTags(dtos []ProjectTagDTO, loc *time.Location) ([]ProjectTag, error) {
	tags := make([]ProjectTag, 0, len(dtos))
	for _, dto := range dtos {
		date, err := ParseDate(dto.Date, loc)
		if err != nil {
			return nil, err
		}
		tags = append(tags, ProjectTag{Date: date, Name: dto.Name})
	}
	return tags, nil
}
