package calendar

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/klokku/notebook/internal/rest"
	"github.com/klokku/notebook/pkg/user"
	log "github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

type Handler struct {
	calendar *Service
}

type CellDTO struct {
	Offset  int     `json:"offset"`
	Date    string  `json:"date"`
	Count   int     `json:"count"`
	Tier    string  `json:"tier"`
	Opacity float64 `json:"opacity"`
}

type MonthLabelDTO struct {
	Month      int    `json:"month"`
	WeekColumn int    `json:"weekColumn"`
	Label      string `json:"label"`
}

type GridDTO struct {
	Year        int             `json:"year"`
	GridStart   string          `json:"gridStart"`
	GridEnd     string          `json:"gridEnd"`
	DayCount    int             `json:"dayCount"`
	WeekColumns int             `json:"weekColumns"`
	Cells       []CellDTO       `json:"cells"`
	MonthLabels []MonthLabelDTO `json:"monthLabels"`
}

type ClickDTO struct {
	Date string `json:"date"`
}

func NewHandler(s *Service) *Handler {
	return &Handler{s}
}

// GetGrid godoc
// @Summary Heat-map of a year
// @Description Returns one cell per day from the Monday on or before Jan 1 to the Sunday on or after Dec 31
// @Tags Calendar
// @Produce json
// @Param year query int false "Year, defaults to the current year"
// @Param project query string false "Count only tags of this project"
// @Success 200 {object} GridDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid year"
// @Router /api/calendar [get]
// @Security BearerToken
func (h *Handler) GetGrid(w http.ResponseWriter, r *http.Request) {
	year, ok := h.yearParam(w, r)
	if !ok {
		return
	}
	project := r.URL.Query().Get("project")
	log.Debugf("Building calendar grid for %d (project %q)", year, project)

	grid, err := h.calendar.GetGrid(r.Context(), year, project)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(gridToDTO(grid)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// Export godoc
// @Summary Daily event counts of a year as CSV
// @Tags Calendar
// @Produce text/csv
// @Param year query int false "Year, defaults to the current year"
// @Param project query string false "Count only tags of this project"
// @Success 200 {string} string "date,count,tier rows"
// @Router /api/calendar/export [get]
// @Security BearerToken
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	year, ok := h.yearParam(w, r)
	if !ok {
		return
	}
	counts, err := h.calendar.DailyCounts(r.Context(), year, r.URL.Query().Get("project"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, counts); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"notebook-%d.csv\"", year))
	_, _ = w.Write(buf.Bytes())
}

// Click godoc
// @Summary Resolve a click on a grid cell
// @Description Returns the date of the cell, or 204 when the cell has no events
// @Tags Calendar
// @Produce json
// @Param year query int false "Year, defaults to the current year"
// @Param offset query int true "Cell offset from the grid start"
// @Param project query string false "Count only tags of this project"
// @Success 200 {object} ClickDTO
// @Success 204 "Cell without events"
// @Router /api/calendar/click [get]
// @Security BearerToken
func (h *Handler) Click(w http.ResponseWriter, r *http.Request) {
	year, ok := h.yearParam(w, r)
	if !ok {
		return
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid offset", "'offset' must be an integer")
		return
	}

	date, found, err := h.calendar.Click(r.Context(), year, r.URL.Query().Get("project"), offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !found {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(ClickDTO{Date: date.Format(dateLayout)}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (h *Handler) yearParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	yearString := r.URL.Query().Get("year")
	if yearString == "" {
		year, err := h.calendar.CurrentYear(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return 0, false
		}
		return year, true
	}
	year, err := strconv.Atoi(yearString)
	if err != nil || year < 1 || year > 9999 {
		rest.WriteError(w, http.StatusBadRequest, "Invalid year", "'year' must be a number between 1 and 9999")
		return 0, false
	}
	return year, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, user.ErrNoUser) {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}
	log.Errorf("calendar request failed: %v", err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func gridToDTO(grid Grid) GridDTO {
	cells := make([]CellDTO, 0, len(grid.Cells))
	for _, cell := range grid.Cells {
		cells = append(cells, CellDTO{
			Offset:  cell.Offset,
			Date:    cell.Date.Format(dateLayout),
			Count:   cell.EventCount,
			Tier:    cell.Tier.String(),
			Opacity: cell.Opacity,
		})
	}
	labels := make([]MonthLabelDTO, 0, len(grid.MonthLabels))
	for _, label := range grid.MonthLabels {
		labels = append(labels, MonthLabelDTO{
			Month:      int(label.Month),
			WeekColumn: label.WeekColumn,
			Label:      label.Month.String()[:3],
		})
	}
	return GridDTO{
		Year:        grid.Year,
		GridStart:   grid.GridStart.Format(dateLayout),
		GridEnd:     grid.GridEnd.Format(dateLayout),
		DayCount:    grid.DayCount,
		WeekColumns: grid.WeekColumns(),
		Cells:       cells,
		MonthLabels: labels,
	}
}

