package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/klokku/notebook/internal/utils"
	"github.com/klokku/notebook/pkg/note"
	"github.com/klokku/notebook/pkg/user"
)

// NoteLister is the part of the note service the calendar reads from.
type NoteLister interface {
	ListNotes(ctx context.Context) ([]note.NotePage, error)
}

type DailyCount struct {
	Date  time.Time
	Count int
	Tier  Tier
}

type Service struct {
	notes NoteLister
	clock utils.Clock
}

func NewService(notes NoteLister, clock utils.Clock) *Service {
	return &Service{notes: notes, clock: clock}
}

// CurrentYear is the year of "now" in the current user's timezone.
func (s *Service) CurrentYear(ctx context.Context) (int, error) {
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.clock.Now().In(currentUser.Location()).Year(), nil
}

// GetGrid builds the heat-map of year from the current user's note pages. A non empty project
// counts only the tags of that project.
func (s *Service) GetGrid(ctx context.Context, year int, project string) (Grid, error) {
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return Grid{}, fmt.Errorf("failed to get current user: %w", err)
	}
	pages, err := s.notes.ListNotes(ctx)
	if err != nil {
		return Grid{}, fmt.Errorf("failed to list note pages: %w", err)
	}

	loc := currentUser.Location()
	dates := note.EventDates(pages, project)
	events := make([]EventDate, 0, len(dates))
	for _, d := range dates {
		events = append(events, EventDate{Date: anchor(d, loc)})
	}
	return BuildGrid(year, events, loc), nil
}

// DailyCounts lists the days of year that have at least one event.
func (s *Service) DailyCounts(ctx context.Context, year int, project string) ([]DailyCount, error) {
	grid, err := s.GetGrid(ctx, year, project)
	if err != nil {
		return nil, err
	}
	counts := make([]DailyCount, 0)
	for _, cell := range grid.Cells {
		if cell.EventCount == 0 || cell.Date.Year() != year {
			continue
		}
		counts = append(counts, DailyCount{Date: cell.Date, Count: cell.EventCount, Tier: cell.Tier})
	}
	return counts, nil
}

// Click resolves a click on a grid cell to the date the viewer should navigate to.
func (s *Service) Click(ctx context.Context, year int, project string, offset int) (time.Time, bool, error) {
	grid, err := s.GetGrid(ctx, year, project)
	if err != nil {
		return time.Time{}, false, err
	}
	date, ok := grid.Click(offset)
	return date, ok, nil
}

// anchor places a civil tag date at the start of the same calendar day in loc. Zero dates stay
// zero so the grid keeps ignoring them.
func anchor(date time.Time, loc *time.Location) time.Time {
	if date.IsZero() {
		return date
	}
	y, m, d := date.Date()
	return startOfDay(y, m, d, loc)
}
