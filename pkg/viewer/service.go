package viewer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/klokku/notebook/pkg/note"
)

var ErrPageOutOfRange = errors.New("page out of range")

// NoteLister is the part of the note service the viewer reads from.
type NoteLister interface {
	ListNotes(ctx context.Context) ([]note.NotePage, error)
}

// View is one page of the viewer: up to PageSize note pages.
type View struct {
	Notes      []note.NotePage
	Page       int
	TotalPages int
}

type Service struct {
	notes NoteLister
}

func NewService(notes NoteLister) *Service {
	return &Service{notes: notes}
}

// records returns the pages the viewer pages through: tagged with project when set, ordered by
// their first tag date.
func (s *Service) records(ctx context.Context, project string) ([]note.NotePage, error) {
	pages, err := s.notes.ListNotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list note pages: %w", err)
	}
	return note.SortChronologically(note.FilterByProject(pages, project)), nil
}

// Page returns the given 1-based page. Page 0 selects the last page, where the newest notes are.
func (s *Service) Page(ctx context.Context, project string, page int) (View, error) {
	records, err := s.records(ctx, project)
	if err != nil {
		return View{}, err
	}
	total := TotalPages(len(records))
	if page == 0 {
		page = total
	}
	if page < 0 || page > total {
		return View{}, fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, page, total)
	}

	from, to := PageBounds(page, len(records))
	return View{
		Notes:      records[from:to],
		Page:       page,
		TotalPages: total,
	}, nil
}

// Locate moves the cursor from current to the page holding the first note tagged on date. The
// second result is false, and the cursor unchanged, when no note carries that date.
func (s *Service) Locate(ctx context.Context, project string, date time.Time, current int) (int, bool, error) {
	records, err := s.records(ctx, project)
	if err != nil {
		return current, false, err
	}
	// tag dates are civil dates at midnight UTC
	page, found := Navigate(current, records, note.CivilDate(date), time.UTC)
	return page, found, nil
}
