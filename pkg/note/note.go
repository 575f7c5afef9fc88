package note

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var ErrNotePageNotFound = errors.New("note page not found")
var ErrInvalidNotePage = errors.New("invalid note page")

// ProjectTag assigns a page to a project on a calendar day. Dates are civil dates kept at
// midnight UTC.
type ProjectTag struct {
	Date time.Time
	Name string
}

type Transcription struct {
	RawText   string   `json:"rawText"`
	Tagline   string   `json:"tagline"`
	DotPoints []string `json:"dotPoints"`
	Images    []string `json:"images,omitempty"`
}

// NotePage is one photographed notebook page.
type NotePage struct {
	Id            string
	Width         int
	Height        int
	Size          int64
	Type          string
	Url           string
	ThumbnailUrl  string
	Projects      []ProjectTag
	Transcription *Transcription
	CreatedAt     time.Time
}

// Dates returns the tag dates of the page in stored order.
func (p NotePage) Dates() []time.Time {
	dates := make([]time.Time, 0, len(p.Projects))
	for _, tag := range p.Projects {
		dates = append(dates, tag.Date)
	}
	return dates
}

// FirstDate is the date of the first tag, or the zero time for an untagged page.
func (p NotePage) FirstDate() time.Time {
	if len(p.Projects) == 0 {
		return time.Time{}
	}
	return p.Projects[0].Date
}

func (p NotePage) HasProject(name string) bool {
	for _, tag := range p.Projects {
		if tag.Name == name {
			return true
		}
	}
	return false
}

// IsTranscribed reports whether the page has a transcription with a non blank tagline.
func (p NotePage) IsTranscribed() bool {
	return p.Transcription != nil && strings.TrimSpace(p.Transcription.Tagline) != ""
}

// NotePatch lists the fields a PATCH changes. Nil fields are left untouched.
type NotePatch struct {
	Width         *int
	Height        *int
	Size          *int64
	Type          *string
	Url           *string
	ThumbnailUrl  *string
	Projects      *[]ProjectTag
	Transcription *Transcription
}

func (p NotePage) Apply(patch NotePatch) NotePage {
	if patch.Width != nil {
		p.Width = *patch.Width
	}
	if patch.Height != nil {
		p.Height = *patch.Height
	}
	if patch.Size != nil {
		p.Size = *patch.Size
	}
	if patch.Type != nil {
		p.Type = *patch.Type
	}
	if patch.Url != nil {
		p.Url = *patch.Url
	}
	if patch.ThumbnailUrl != nil {
		p.ThumbnailUrl = *patch.ThumbnailUrl
	}
	if patch.Projects != nil {
		p.Projects = append([]ProjectTag(nil), (*patch.Projects)...)
	}
	if patch.Transcription != nil {
		t := *patch.Transcription
		p.Transcription = &t
	}
	return p
}

// Validate checks that a page carries at least one tag and every tag has a name and a date.
func Validate(page NotePage) error {
	if len(page.Projects) == 0 {
		return fmt.Errorf("%w: at least one project is required", ErrInvalidNotePage)
	}
	for i, tag := range page.Projects {
		if strings.TrimSpace(tag.Name) == "" {
			return fmt.Errorf("%w: project %d has no name", ErrInvalidNotePage, i)
		}
		if tag.Date.IsZero() {
			return fmt.Errorf("%w: project %s has no date", ErrInvalidNotePage, tag.Name)
		}
	}
	if page.Width < 0 || page.Height < 0 || page.Size < 0 {
		return fmt.Errorf("%w: dimensions must not be negative", ErrInvalidNotePage)
	}
	return nil
}

// EventDates flattens the tag dates of pages, one per tag. A non empty project keeps only the
// tags naming it.
func EventDates(pages []NotePage, project string) []time.Time {
	var dates []time.Time
	for _, page := range pages {
		for _, tag := range page.Projects {
			if project != "" && tag.Name != project {
				continue
			}
			dates = append(dates, tag.Date)
		}
	}
	return dates
}

// FilterByProject keeps the pages tagged with project. An empty project keeps every page.
func FilterByProject(pages []NotePage, project string) []NotePage {
	if project == "" {
		return pages
	}
	filtered := make([]NotePage, 0, len(pages))
	for _, page := range pages {
		if page.HasProject(project) {
			filtered = append(filtered, page)
		}
	}
	return filtered
}

// SortChronologically returns a copy of pages ordered by their first tag date. Pages with equal
// dates keep their relative order.
func SortChronologically(pages []NotePage) []NotePage {
	sorted := append([]NotePage(nil), pages...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].FirstDate().Before(sorted[j].FirstDate())
	})
	return sorted
}

type Category struct {
	Name  string
	Count int
}

// CategoriesOf counts pages per project name, most used first and then by name.
func CategoriesOf(pages []NotePage) []Category {
	counts := make(map[string]int)
	for _, page := range pages {
		seen := make(map[string]bool, len(page.Projects))
		for _, tag := range page.Projects {
			if seen[tag.Name] {
				continue
			}
			seen[tag.Name] = true
			counts[tag.Name]++
		}
	}
	categories := make([]Category, 0, len(counts))
	for name, count := range counts {
		categories = append(categories, Category{Name: name, Count: count})
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].Count != categories[j].Count {
			return categories[i].Count > categories[j].Count
		}
		return categories[i].Name < categories[j].Name
	})
	return categories
}

const dateLayout = "2006-01-02"

// ParseDate reads a tag date either as YYYY-MM-DD or as an RFC 3339 timestamp. Timestamps are
// reduced to their calendar day in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD or RFC 3339", value)
	}
	return CivilDate(t.In(loc)), nil
}

// CivilDate keeps the calendar day of t at midnight UTC.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a tag date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}
